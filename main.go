package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"quickpoll/internal/config"
	"quickpoll/internal/database"
	"quickpoll/internal/server"
	"quickpoll/internal/services"
	"quickpoll/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// --- Initialize Database ---
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// --- Initialize RabbitMQ Client ---
	var publisher services.EventPublisher
	if cfg.EventsEnabled() {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
		publisher = mqClient

		// --- Start RabbitMQ Consumer ---
		if err := mqClient.ConsumePollEvents(rabbitmq.LogEvent); err != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", err)
		}
	} else {
		log.Println("RABBITMQ_URL not set, poll events are disabled")
	}

	app := server.New(server.Options{
		DB:        db,
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.JWTTTL,
		Publisher: publisher,
		AccessLog: true,
	})

	if err := seedAdmin(app.AuthService, cfg); err != nil {
		log.Fatalf("Failed to seed admin account: %v", err)
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}

// seedAdmin creates the configured admin account unless it already exists.
func seedAdmin(authService *services.AuthService, cfg *config.Config) error {
	if cfg.AdminEmail == "" {
		return nil
	}
	user, err := authService.EnsureAdmin(cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
	if err != nil {
		return err
	}
	log.Printf("Admin account ready: %s (ID: %d)", user.Email, user.ID)
	return nil
}
