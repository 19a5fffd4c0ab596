package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nantokaworks/betboard/internal/announce"
	"github.com/nantokaworks/betboard/internal/env"
	"github.com/nantokaworks/betboard/internal/eventstore"
	"github.com/nantokaworks/betboard/internal/localdb"
	"github.com/nantokaworks/betboard/internal/shared/logger"
	"github.com/nantokaworks/betboard/internal/version"
	"github.com/nantokaworks/betboard/internal/webserver"
	"go.uber.org/zap"
)

func main() {
	logger.Init(false)
	defer logger.Sync()

	logger.Info("Starting betboard server", zap.String("version", version.String()))

	env.LoadEnv()
	if env.Value.DebugMode {
		logger.Init(true)
		logger.Info("Debug mode enabled")
	}

	db, err := localdb.SetupDB(env.Value.DBPath)
	if err != nil {
		logger.Fatal("Failed to setup database", zap.Error(err))
	}

	store := eventstore.New(localdb.NewGateway(db), env.Value.DefaultPrize, env.Value.OperatorIDs)
	webserver.Configure(store, announce.New(env.Value.OperatorContact))

	if err := webserver.StartWebServer(env.Value.ServerPort); err != nil {
		logger.Fatal("Failed to start web server", zap.Error(err))
	}

	logger.Info("Server started",
		zap.Int("port", env.Value.ServerPort),
		zap.String("api", fmt.Sprintf("http://localhost:%d/api/", env.Value.ServerPort)),
		zap.String("ws", fmt.Sprintf("ws://localhost:%d/ws", env.Value.ServerPort)))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")

	webserver.StopWebServer()
	if err := db.Close(); err != nil {
		logger.Warn("Failed to close database", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
