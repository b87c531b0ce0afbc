package main

import (
	"log"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/arzbazar/orderbook-bot/bot"
	"github.com/arzbazar/orderbook-bot/config"
	"github.com/arzbazar/orderbook-bot/db"
	"github.com/arzbazar/orderbook-bot/flow"
	"github.com/arzbazar/orderbook-bot/logger"
	"github.com/arzbazar/orderbook-bot/market"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() {
		_ = zl.Sync()
	}()

	store, err := db.NewStore(cfg.DBPath)
	if err != nil {
		zl.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	telegramBot, err := bot.NewBot(cfg,
		flow.NewManager(store),
		market.NewManager(store, zl),
		zl)
	if err != nil {
		zl.Fatal("failed to initialize bot", zap.Error(err))
	}

	telegramBot.Start()
}
