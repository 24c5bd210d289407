// Package relay fans run events across API instances through Redis pub/sub so
// that an observer connected to any instance sees its tenant's events.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/cankoe/survey-runner/internal/hub"
	"github.com/cankoe/survey-runner/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const DefaultChannel = "survey_runner:run_events"

func NewRedisClient(host string, port int) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Error().Err(err).Str("address", addr).Msg("Failed to connect to Redis")
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	log.Info().Str("address", addr).Msg("Successfully connected and pinged Redis")
	return client, nil
}

type envelope struct {
	TenantID string          `json:"tenant_id"`
	Event    models.RunEvent `json:"event"`
}

// Relay publishes events to a Redis channel and forwards everything received
// on that channel to the local hub. While its own subscription is down, events
// published here are delivered to the local hub directly.
type Relay struct {
	client  *redis.Client
	channel string
	local   *hub.Hub

	subscribed atomic.Bool

	retryMin       time.Duration
	retryMax       time.Duration
	receiveTimeout time.Duration
}

func New(client *redis.Client, channel string, local *hub.Hub) *Relay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Relay{
		client:         client,
		channel:        channel,
		local:          local,
		retryMin:       100 * time.Millisecond,
		retryMax:       5 * time.Second,
		receiveTimeout: time.Second,
	}
}

// Subscribed reports whether the relay currently holds a live subscription.
func (r *Relay) Subscribed() bool {
	return r.subscribed.Load()
}

// Publish sends event to every instance. If Redis is unreachable, or this
// instance is not subscribed, the event still reaches its local observers.
func (r *Relay) Publish(tenantID string, event models.RunEvent) {
	payload, err := json.Marshal(envelope{TenantID: tenantID, Event: event})
	if err != nil {
		log.Error().Err(err).Str("run_id", event.RunID).Msg("Failed to encode relayed event")
		return
	}

	// A subscription that comes up between this check and the PUBLISH can
	// deliver the event twice; observers get it at least once.
	delivered := false
	if !r.subscribed.Load() {
		r.local.Publish(tenantID, event)
		delivered = true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		log.Warn().Err(err).Str("run_id", event.RunID).Msg("Failed to relay event, delivering locally")
		if !delivered {
			r.local.Publish(tenantID, event)
		}
	}
}

// Run keeps a subscription to the relay channel alive until ctx ends,
// resubscribing with exponential backoff whenever it is lost.
func (r *Relay) Run(ctx context.Context) error {
	backoff := r.retryMin
	for {
		established, err := r.subscribe(ctx)
		r.subscribed.Store(false)
		if ctx.Err() != nil {
			log.Info().Str("channel", r.channel).Msg("Relay stopped by cancellation")
			return nil
		}
		if established {
			backoff = r.retryMin
		}
		log.Warn().Err(err).Str("channel", r.channel).Dur("retry_in", backoff).
			Msg("Relay subscription down, delivering locally until it recovers")

		select {
		case <-ctx.Done():
			log.Info().Str("channel", r.channel).Msg("Relay stopped by cancellation")
			return nil
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > r.retryMax {
			backoff = r.retryMax
		}
	}
}

// subscribe forwards messages until the subscription breaks or ctx ends. It
// reports whether the subscription was ever confirmed.
func (r *Relay) subscribe(ctx context.Context) (bool, error) {
	ps := r.client.Subscribe(ctx, r.channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return false, fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	r.subscribed.Store(true)
	log.Info().Str("channel", r.channel).Msg("Relay subscribed")

	for {
		if ctx.Err() != nil {
			return true, ctx.Err()
		}
		msg, err := ps.ReceiveTimeout(ctx, r.receiveTimeout)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				if err := ps.Ping(ctx); err != nil {
					return true, fmt.Errorf("relay ping failed: %w", err)
				}
				continue
			}
			return true, fmt.Errorf("relay receive failed: %w", err)
		}

		m, ok := msg.(*redis.Message)
		if !ok {
			continue
		}
		var env envelope
		if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
			log.Warn().Err(err).Msg("Discarding malformed relayed event")
			continue
		}
		r.local.Publish(env.TenantID, env.Event)
	}
}
