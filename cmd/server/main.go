package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bandroom/backend/internal/config"
	"github.com/bandroom/backend/internal/roster"
	"github.com/bandroom/backend/internal/stats"
	"github.com/bandroom/backend/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (optional)")
	port := flag.Int("port", 0, "Override server port")
	token := flag.String("token", "", "Override auth token")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *token != "" {
		cfg.Security.AuthToken = *token
	}

	r := roster.New()
	hub := ws.NewHub(r)
	gateway := ws.NewGateway(r, hub, cfg.Coordinator.SendBuffer, cfg.Coordinator.WriteTimeout)
	collector := stats.NewCollector()
	server := ws.NewServer(gateway, hub, r, collector, cfg.Security.AllowedOrigins, cfg.Security.AuthToken)

	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		os.Exit(0)
	}()

	if err := ws.ListenAndServe(cfg.Server.Host, cfg.Server.Port, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
