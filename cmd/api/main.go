package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cankoe/survey-runner/internal/api"
	"github.com/cankoe/survey-runner/internal/helpers"
	"github.com/cankoe/survey-runner/internal/hub"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := helpers.InitializeCommonComponents(ctx, "api")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize components")
	}

	if components.Relay != nil {
		go func() {
			if err := components.Relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("Event relay stopped")
			}
		}()
	}

	r := gin.Default()
	api.RegisterRoutes(r, api.Deps{
		Store:      components.Store,
		EventLog:   components.EventLog,
		Engine:     components.Engine,
		Stream:     hub.NewStreamServer(components.Hub, components.StreamConfig()),
		UserAPIKey: components.Config.APIKeys.User,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", components.Config.Server.Port),
		Handler: r,
	}

	go func() {
		log.Info().Int("port", components.Config.Server.Port).Msg("API server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Msgf("Received signal %s, shutting down API gracefully...", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	// In-flight runs observe cancellation and record their failure before exit.
	cancel()
	components.Engine.Wait()
	components.CloseAll(shutdownCtx)
	log.Info().Msg("API service exited gracefully")
}
