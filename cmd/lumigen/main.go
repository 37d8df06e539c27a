package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"lumigen/internal/auth"
	"lumigen/internal/chat"
	"lumigen/internal/config"
	"lumigen/internal/course"
	"lumigen/internal/kv"
	"lumigen/internal/responder"
	"lumigen/internal/scheduler"
	"lumigen/internal/storage"
	"lumigen/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	if cfg.TelegramBotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is required")
	}

	store := kv.Open(cfg.KVBackend, cfg.KVPath)
	if c, ok := store.(interface{ Close() error }); ok {
		defer c.Close()
	}

	newResponder, err := responder.NewFactory(cfg)
	if err != nil {
		log.Fatalf("failed to create responder: %v", err)
	}

	var demo *auth.DemoAccount
	if cfg.DemoEmail != "" {
		demo = &auth.DemoAccount{Email: cfg.DemoEmail, Password: cfg.DemoPassword, Token: cfg.DemoToken, Name: "Usuário Teste"}
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

	bot, err := telegram.New(cfg.TelegramBotToken, telegram.Options{
		Auth:         auth.NewClient(cfg.BackendBaseURL, cfg.HTTPTimeout, demo),
		Courses:      course.NewClient(cfg.BackendBaseURL, cfg.HTTPTimeout),
		KV:           store,
		NewResponder: telegram.ResponderFactory(newResponder),
		Typewriter: chat.TypewriterConfig{
			ThinkingText:  cfg.ThinkingText,
			ThinkingDelay: cfg.ThinkingDelay,
			Tick:          cfg.RevealTick,
			Chunk:         cfg.RevealChunk,
		},
		EditInterval: cfg.EditInterval,
		SessionKey:   cfg.SessionKey,
		SeedSamples:  cfg.SeedSamples,
		Recorder:     rec,
		AdminChatID:  cfg.AdminChatID,
	})
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	sched := scheduler.New()
	if rec != nil && cfg.ReportSpec != "" {
		if err := sched.AddJob(cfg.ReportSpec, "daily-report", bot.SendDailyReport); err != nil {
			log.Printf("daily report disabled: %v", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("lumigen bot started (responder=%s, kv=%s)", cfg.Responder, cfg.KVBackend)
	bot.Start(ctx)
	bot.Stop()
}
