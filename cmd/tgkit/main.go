// Copyright (c) 2024 tgkit

// Command tgkit runs a minimal echo bot, useful for verifying a token
// and watching update traffic. Configuration comes from the
// environment, optionally seeded from a .env file.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"

	"github.com/tgkit/tgkit/internal/utils"
	"github.com/tgkit/tgkit/telegram"
)

type config struct {
	Token          string        `env:"TGKIT_TOKEN,required"`
	APIURL         string        `env:"TGKIT_API_URL"`
	LogLevel       string        `env:"TGKIT_LOG_LEVEL" envDefault:"info"`
	WebhookAddr    string        `env:"TGKIT_WEBHOOK_ADDR"`
	WebhookURL     string        `env:"TGKIT_WEBHOOK_URL"`
	WebhookSecret  string        `env:"TGKIT_WEBHOOK_SECRET"`
	RequestTimeout time.Duration `env:"TGKIT_REQUEST_TIMEOUT" envDefault:"30s"`
}

func main() {
	log := utils.NewLogger("tgkit")

	// A missing .env file is fine, the process environment wins anyway.
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	log.SetLevel(utils.ParseLogLevel(cfg.LogLevel))

	client, err := telegram.NewClient(telegram.ClientConfig{
		Token:          cfg.Token,
		APIURL:         cfg.APIURL,
		LogLevel:       cfg.LogLevel,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         log,
	})
	if err != nil {
		log.WithError(err).Fatal("client setup failed")
	}

	if _, err := client.OnCommand("start", func(ctx *telegram.Context, m *telegram.Message) error {
		_, err := ctx.Reply("hello, I echo everything you send me")
		return err
	}); err != nil {
		log.WithError(err).Fatal("handler registration failed")
	}

	if _, err := client.OnMessage(func(ctx *telegram.Context, m *telegram.Message) error {
		_, err := ctx.Reply(m.Text)
		return err
	}); err != nil {
		log.WithError(err).Fatal("handler registration failed")
	}

	if cfg.WebhookAddr != "" {
		runWebhook(client, cfg, log)
		return
	}

	ctx, cancel := signalContext()
	defer cancel()

	client.StartPolling(&telegram.PollerOptions{SkipPending: true})
	log.Info("echo bot running, ^C to stop")

	<-ctx.Done()
	client.Stop()
	client.Idle()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runWebhook(client *telegram.Client, cfg config, log *utils.Logger) {
	ctx, cancel := signalContext()
	defer cancel()

	if cfg.WebhookURL != "" {
		if err := client.SetWebhook(ctx, cfg.WebhookURL, cfg.WebhookSecret, nil); err != nil {
			log.WithError(err).Fatal("setWebhook failed")
		}
	}

	go func() {
		<-ctx.Done()
		client.Stop()
	}()

	if err := client.ListenWebhook(cfg.WebhookAddr, "/webhook", cfg.WebhookSecret); err != nil {
		log.WithError(err).Error("webhook server failed")
		os.Exit(1)
	}
}
