package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"lumigen/internal/backend"
	"lumigen/internal/config"
	"lumigen/internal/kv"
	"lumigen/internal/responder"
	"lumigen/internal/scheduler"
	"lumigen/internal/session"
	"lumigen/internal/storage"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	// the dev server is the backend; forwarding to itself would loop
	if cfg.Responder == config.ResponderRemote {
		log.Printf("remote responder is not available in the dev server, using the simulator")
		cfg.Responder = config.ResponderSimulator
	}
	newResponder, err := responder.NewFactory(cfg)
	if err != nil {
		log.Fatalf("failed to create responder: %v", err)
	}

	store := kv.Open(cfg.KVBackend, cfg.KVPath)
	if c, ok := store.(interface{ Close() error }); ok {
		defer c.Close()
	}

	var rec storage.Recorder
	if cfg.TranscriptPath != "" {
		fr, err := storage.NewFileRecorder(cfg.TranscriptPath)
		if err != nil {
			log.Printf("failed to init transcript recorder: %v", err)
		} else {
			rec = fr
		}
	}

	srv := backend.New(backend.Options{
		Port: cfg.DevServerPort,
		Accounts: []backend.Account{{
			ID:       "1",
			Email:    cfg.DemoEmail,
			Password: cfg.DemoPassword,
			Name:     "Usuário Teste",
			Token:    cfg.DemoToken,
		}},
		Responder: newResponder(session.Session{}),
		KV:        store,
		Recorder:  rec,
		TokenTTL:  cfg.TokenTTL,
	})

	sched := scheduler.New()
	err = sched.AddJob(cfg.PurgeSpec, "token-purge", func(context.Context) error {
		if n := srv.Tokens().PurgeExpired(); n > 0 {
			log.Printf("purged %d expired token(s)", n)
		}
		return nil
	})
	if err != nil {
		log.Printf("token purge disabled: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("dev server failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	if err := srv.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
	}
}
