package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cankoe/survey-runner/internal/hub"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type baseMessage struct {
	Type string `json:"type"`
}

func main() {
	addr := flag.String("addr", "ws://localhost:8080", "Survey runner base websocket address")
	tenantID := flag.String("tenant", "", "Tenant to observe")
	flag.Parse()

	if *tenantID == "" {
		fmt.Fprintln(os.Stderr, "-tenant is required")
		os.Exit(2)
	}

	url := fmt.Sprintf("%s/ws/%s", *addr, *tenantID)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatal().Err(err).Str("url", url).Msg("Failed to connect")
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					log.Error().Err(err).Msg("Read error")
				}
				return
			}
			printMessage(data)
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case <-done:
	case <-interrupt:
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}

func printMessage(data []byte) {
	var base baseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		log.Warn().Err(err).Msg("Unmarshal error")
		return
	}

	switch base.Type {
	case hub.TypeConnected:
		var m hub.ConnectedMessage
		if err := json.Unmarshal(data, &m); err == nil {
			fmt.Printf("%s connected to tenant %s\n", m.Ts.Format(time.RFC3339), m.TenantID)
		}
	case hub.TypeRunEvent:
		var m hub.RunEventMessage
		if err := json.Unmarshal(data, &m); err == nil {
			fmt.Printf("%s [%s] run=%s %s %s", m.Ts.Format(time.RFC3339), m.Level, m.RunID, m.Code, m.Message)
			if len(m.Data) > 0 {
				payload, _ := json.Marshal(m.Data)
				fmt.Printf(" %s", payload)
			}
			fmt.Println()
		}
	default:
		fmt.Printf("[%s] %s\n", base.Type, data)
	}
}
