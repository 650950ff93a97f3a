package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/marchford/receipt-relay/internal/api"
	"github.com/marchford/receipt-relay/internal/conversation"
	"github.com/marchford/receipt-relay/internal/gateway"
	"github.com/marchford/receipt-relay/internal/infrastructure/config"
	"github.com/marchford/receipt-relay/internal/infrastructure/logging"
	"github.com/marchford/receipt-relay/internal/parser"
	"github.com/marchford/receipt-relay/internal/storage"
	"github.com/marchford/receipt-relay/internal/transport/telegram"
	"github.com/marchford/receipt-relay/internal/transport/twilio"
	"github.com/marchford/receipt-relay/internal/web"
)

// routingSender picks a transport per recipient. Phone numbers (E.164, with a
// leading "+") go out over SMS; everything else is a Telegram chat ID. The
// final summary always prefers Telegram when it is configured.
type routingSender struct {
	telegram *telegram.Client
	twilio   *twilio.Client
}

func (s *routingSender) SendToSender(ctx context.Context, senderID, text string) error {
	if strings.HasPrefix(senderID, "+") {
		if s.twilio == nil {
			return errors.New("sms transport not configured")
		}
		return s.twilio.SendToSender(ctx, senderID, text)
	}
	if s.telegram == nil {
		return errors.New("telegram transport not configured")
	}
	return s.telegram.SendToSender(ctx, senderID, text)
}

func (s *routingSender) SendToReceiver(ctx context.Context, text string) error {
	if s.telegram != nil {
		return s.telegram.SendToReceiver(ctx, text)
	}
	if s.twilio != nil {
		return s.twilio.SendToReceiver(ctx, text)
	}
	return errors.New("no transport configured for receiver")
}

func main() {
	var configFile = flag.String("config", "config.yaml", "Configuration file path")
	flag.Parse()

	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.LoadOrEnv_WithPath(*configFile)
	logger := logging.NewLogger(cfg.Observability.Logging)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	recorder := storage.NewReceiptRecorder(store, logger)

	openaiClient := parser.NewRealOpenAIClient(cfg.OpenAI.APIKey)
	receiptParser := parser.NewReceiptParser(openaiClient, logger).WithModel(cfg.OpenAI.Model)
	storeInfoParser := parser.NewStoreInfoParser(openaiClient, logger, time.Now)
	gw := gateway.New(receiptParser, logger)

	sender := &routingSender{}
	if cfg.Telegram.BotToken != "" {
		sender.telegram = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ReceiverChatID, logger)
	}
	if !cfg.Twilio.Disabled {
		sender.twilio = twilio.NewClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.PhoneNumber, cfg.Twilio.ReceiverNumber, logger)
	}

	machineCfg := conversation.DefaultConfig()
	for _, id := range []string{
		cfg.Telegram.SenderChatID,
		cfg.Telegram.ReceiverChatID,
		cfg.Twilio.SenderNumber,
		cfg.Twilio.ReceiverNumber,
	} {
		if id != "" {
			machineCfg.AllowedSenders = append(machineCfg.AllowedSenders, id)
		}
	}

	machine := conversation.NewMachine(
		conversation.NewMemoryStore(time.Now),
		gw,
		storeInfoParser,
		sender,
		recorder,
		conversation.NewScheduler(),
		machineCfg,
		logger,
	)

	webhooks := api.Webhooks{
		// The SMS route stays mounted when Twilio is disabled so that stale
		// Twilio configurations get a clean 503 instead of a 404.
		Twilio: twilio.NewWebhookHandler(machine, cfg.Twilio.Disabled, logger),
	}
	if sender.telegram != nil {
		webhooks.Telegram = telegram.NewWebhookHandler(machine, sender.telegram, logger)
	}

	upload := web.NewHandler(gw, sender, recorder, web.NewSessionStore(time.Now), cfg.Web.UploadPassword, true, logger)

	server := api.NewServer(api.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: api.DefaultConfig().AllowedOrigins,
	}, store, webhooks, upload, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("receipt relay running",
		"port", cfg.Server.Port,
		"telegram", sender.telegram != nil,
		"sms", !cfg.Twilio.Disabled,
	)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	case err := <-errCh:
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
