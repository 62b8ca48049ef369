package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anazari96/voice-agent/internal/agent"
	"github.com/anazari96/voice-agent/internal/config"
	"github.com/anazari96/voice-agent/internal/httpserver"
	"github.com/anazari96/voice-agent/internal/langdetect"
	"github.com/anazari96/voice-agent/internal/llm"
	"github.com/anazari96/voice-agent/internal/profile"
	"github.com/anazari96/voice-agent/internal/transcript"
	"github.com/anazari96/voice-agent/internal/tts"
	"github.com/anazari96/voice-agent/supabase"
	"github.com/anazari96/voice-agent/twilio"
)

func main() {
	// Include sub-second precision in all log timestamps
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg := config.Load()

	var store *profile.SupabaseStore
	if cfg.SupabaseURL != "" && cfg.SupabaseKey != "" {
		var err error
		store, err = profile.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			log.Printf("profile store unavailable: %v", err)
		}
	}

	var catalog profile.CatalogSource
	if cfg.CloverAPIKey != "" && cfg.CloverMerchantID != "" {
		catalog = profile.NewCloverClient(cfg.CloverAPIURL, cfg.CloverAPIKey, cfg.CloverMerchantID)
	}

	var profiles agent.ProfileSource
	if store != nil {
		profiles = profile.NewService(store, catalog)
	}

	responder := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	synth := tts.NewElevenLabsClient(cfg.ElevenLabsKey, cfg.ElevenLabsVoiceID, cfg.ElevenLabsModelID)
	detector := langdetect.New()

	var recordings twilio.Storage
	if cfg.SupabaseURL != "" && cfg.SupabaseKey != "" {
		st, err := supabase.New(supabase.Config{
			URL:            cfg.SupabaseURL,
			ServiceRoleKey: cfg.SupabaseKey,
			Bucket:         cfg.SupabaseBucket,
		})
		if err != nil {
			log.Printf("recording storage unavailable: %v", err)
		} else {
			recordings = st
		}
	}
	twilioSvc := twilio.New(twilio.Config{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		PublicHost: cfg.PublicHost,
	}, recordings)

	deps := httpserver.Deps{
		NewSession: func(ctx context.Context, t agent.Transport) *agent.Session {
			transcriber := transcript.NewDeepgramService(ctx, cfg.DeepgramAPIKey, cfg.DeepgramModel, cfg.DeepgramLanguage)
			return agent.NewSession(t, transcriber, responder, synth, profiles, detector)
		},
		Twilio: twilioSvc,
	}
	if store != nil {
		deps.Profiles = store
	}
	e := httpserver.New(deps)

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", cfg.HTTPAddress)
		serverErrors <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-sigChan:
		log.Printf("shutdown signal received: %v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = server.Close()
	}
}
