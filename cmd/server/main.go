package main

import (
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tyrowin/gopaint/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	addr := flag.String("addr", "", "listen address, overrides config (e.g. :9001)")
	flag.Parse()

	log.Println("Starting paint server...")

	config, err := server.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Loading configuration: %v", err)
	}
	if *addr != "" {
		config.Port = *addr
	}
	server.SetConfig(config)
	active := server.CurrentConfig()

	hub := server.NewHub()
	go hub.Run()

	httpServer := server.CreateServer(active.Port, server.SetupRoutes(hub))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.StartServer(httpServer)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	case sig := <-stop:
		log.Printf("Received %s, shutting down", sig)
	}

	if err := server.ShutdownServer(httpServer, shutdownTimeout); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	if err := hub.Shutdown(shutdownTimeout); err != nil {
		log.Printf("Hub shutdown: %v", err)
	}
}
