package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"docanalyzer/app/server"
	"docanalyzer/config"
	"docanalyzer/logger"
)

func main() {
	log, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := godotenv.Load(); err != nil {
		log.Warn("no .env file found, using environment as is")
	}

	cfg := config.Load()
	s := server.NewServer(cfg, log)

	go func() {
		if err := s.Run(); err != nil {
			log.Fatal("server exited", "error", err)
		}
	}()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	<-sigch

	log.Info("received shutdown signal, shutting down server")
	s.Stop()
}
