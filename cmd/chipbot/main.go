package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/susu3304/chipbot/internal/advice"
	"github.com/susu3304/chipbot/internal/api"
	"github.com/susu3304/chipbot/internal/bot"
	"github.com/susu3304/chipbot/internal/commands"
	"github.com/susu3304/chipbot/internal/config"
	"github.com/susu3304/chipbot/internal/equity"
	"github.com/susu3304/chipbot/internal/ledger"
	"github.com/susu3304/chipbot/internal/logging"
	"github.com/susu3304/chipbot/internal/session"
	"github.com/susu3304/chipbot/internal/vision"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logs, err := logging.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		return err
	}
	log := logs.Logger("MAIN")

	ctx := context.Background()
	st, err := openStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	sessions := session.NewManager(st)
	engine := ledger.New(st, cfg.ConsistencyTolerance)
	advisor := advice.NewAdvisor(advice.NewCache(), cfg.AdviceRiskThreshold)
	eq := equity.Options{
		Trials:  cfg.EquityTrials,
		Seed:    time.Now().UnixNano(),
		Workers: cfg.EquityWorkers,
	}

	var recognizer vision.Recognizer
	if cfg.OpenAIAPIKey != "" {
		recognizer = vision.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIVisionModel)
	} else {
		log.Info("OPENAI_API_KEY not set, card photos are ignored")
	}
	handler := commands.NewHandler(sessions, engine, advisor, eq, recognizer)

	// Initialize Discord bot
	discordBot, err := bot.New(cfg.DiscordToken, handler, sessions, engine, cfg.ReminderIdle)
	if err != nil {
		return fmt.Errorf("failed to create discord bot: %w", err)
	}

	// Initialize API server
	apiServer := api.New(cfg, st, sessions)

	// Start Discord bot
	if err := discordBot.Start(); err != nil {
		return fmt.Errorf("failed to start discord bot: %w", err)
	}
	defer discordBot.Stop()

	// Start API server
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Errorf("API server error: %v", err)
		}
	}()

	// Wait for signal to stop
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Warnf("API shutdown: %v", err)
	}
	return nil
}
