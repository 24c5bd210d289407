package hub

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cankoe/survey-runner/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, conn *Connection) map[string]interface{} {
	t.Helper()
	select {
	case data, ok := <-conn.Messages():
		require.True(t, ok, "connection closed")
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func assertEmpty(t *testing.T, conn *Connection) {
	t.Helper()
	select {
	case data, ok := <-conn.Messages():
		if ok {
			t.Fatalf("unexpected message: %s", data)
		}
	default:
	}
}

func event(runID, code string) models.RunEvent {
	return models.RunEvent{
		TenantID: "T1",
		RunID:    runID,
		Ts:       time.Now().UTC(),
		Level:    models.LevelInfo,
		Code:     code,
		Message:  code,
		Data:     map[string]interface{}{"k": "v"},
	}
}

func TestSubscribeSendsConnectedAck(t *testing.T) {
	h := NewHub(8)
	conn := h.Subscribe("T1")

	msg := receive(t, conn)
	assert.Equal(t, TypeConnected, msg["type"])
	assert.Equal(t, "T1", msg["tenantId"])
	assert.NotEmpty(t, msg["ts"])
	assert.Equal(t, 1, h.ObserverCount("T1"))
}

func TestPublishReachesAllObserversThenRemaining(t *testing.T) {
	h := NewHub(8)
	conns := []*Connection{h.Subscribe("T1"), h.Subscribe("T1"), h.Subscribe("T1")}
	for _, c := range conns {
		receive(t, c)
	}

	h.Publish("T1", event("r1", "LOGIN_OK"))
	for _, c := range conns {
		msg := receive(t, c)
		assert.Equal(t, TypeRunEvent, msg["type"])
		assert.Equal(t, "r1", msg["runId"])
		assert.Equal(t, "LOGIN_OK", msg["code"])
		assert.Equal(t, "info", msg["level"])
		assert.Equal(t, map[string]interface{}{"k": "v"}, msg["data"])
	}

	h.Unsubscribe(conns[1])
	h.Publish("T1", event("r1", "SURVEYS_FOUND"))

	assert.Equal(t, "SURVEYS_FOUND", receive(t, conns[0])["code"])
	assert.Equal(t, "SURVEYS_FOUND", receive(t, conns[2])["code"])
	_, ok := <-conns[1].Messages()
	assert.False(t, ok, "removed observer gets nothing")
	assert.Equal(t, 2, h.ObserverCount("T1"))
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	h := NewHub(8)
	conn := h.Subscribe("T1")

	h.Unsubscribe(conn)
	assert.NotPanics(t, func() { h.Unsubscribe(conn) })
	assert.NotPanics(t, func() { h.Unsubscribe(nil) })
	assert.Equal(t, 0, h.TenantCount(), "empty tenants are dropped")
}

func TestSlowObserverIsDroppedWithoutAffectingOthers(t *testing.T) {
	h := NewHub(2)
	slow := h.Subscribe("T1")
	fast := h.Subscribe("T1")
	receive(t, fast)

	// slow still holds its ack, so only one more message fits.
	h.Publish("T1", event("r1", "A"))
	receive(t, fast)
	h.Publish("T1", event("r1", "B"))
	receive(t, fast)

	assert.Equal(t, 1, h.ObserverCount("T1"))
	assert.Equal(t, TypeConnected, receive(t, slow)["type"])
	assert.Equal(t, "A", receive(t, slow)["code"])
	_, ok := <-slow.Messages()
	assert.False(t, ok)
}

func TestTenantIsolation(t *testing.T) {
	h := NewHub(8)
	t1 := h.Subscribe("T1")
	t2 := h.Subscribe("T2")
	receive(t, t1)
	receive(t, t2)

	h.Publish("T1", event("r1", "LOGIN_OK"))

	assert.Equal(t, "LOGIN_OK", receive(t, t1)["code"])
	assertEmpty(t, t2)
}

func TestPublishWithoutObserversKeepsNoState(t *testing.T) {
	h := NewHub(8)
	h.Publish("nobody", event("r1", "A"))
	assert.Equal(t, 0, h.TenantCount())
}

func TestConcurrentSubscribePublishUnsubscribe(t *testing.T) {
	h := NewHub(1024)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tenant := fmt.Sprintf("T%d", i%3)
			conn := h.Subscribe(tenant)
			for j := 0; j < 10; j++ {
				h.Publish(tenant, event("r", "X"))
			}
			h.Unsubscribe(conn)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, h.TenantCount())
}
