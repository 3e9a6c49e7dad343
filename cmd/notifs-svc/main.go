package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"researchhub/internal/wire"

	"github.com/joho/godotenv"
)

func main() {

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	log.Println("Initializing application...")
	app, err := wire.InitializeApplication()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	addr := fmt.Sprintf("%s:%s", app.Config.Server.Host, app.Config.Server.NotifServicePort)
	server := &http.Server{
		Addr:        addr,
		Handler:     app.Handler.Router(),
		ReadTimeout: time.Duration(app.Config.Server.ReadTimeout) * time.Second,
		// No write timeout: the event stream holds its response open
		// for the lifetime of the connection.
		WriteTimeout: 0,
	}

	go func() {
		log.Printf("Notification service listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Closing the registry first wakes every SSE handler so the HTTP
	// shutdown below can drain them.
	app.Registry.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
