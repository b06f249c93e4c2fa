package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/andriyansyah/todosync/api"
	"github.com/andriyansyah/todosync/internal/config"
	"github.com/andriyansyah/todosync/internal/devserver"
)

func main() {
	// 1. Load configuration
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// 2. Choose the task store: Mongo when configured, memory otherwise
	var store devserver.TaskStore = devserver.NewMemoryStore()
	if cfg.MongoURI != "" {
		client, err := devserver.ConnectMongoDB(cfg.MongoURI)
		if err != nil {
			log.Fatalf("Error connecting to MongoDB: %v", err)
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Printf("Error disconnecting from MongoDB: %v", err)
			}
		}()
		store = devserver.NewMongoStore(client.Database(cfg.DBName))
	}

	// 3. Mint a token for the sync agent
	token, err := devserver.MintDevToken([]byte(cfg.JWTSecret), "dev", 24*time.Hour)
	if err != nil {
		log.Fatalf("Error minting dev token: %v", err)
	}
	log.Printf("Dev token (set as API_TOKEN): %s", token)

	// 4. Initialize handlers and middleware
	taskHandler := devserver.NewTaskHandler(store)
	authMiddleware := devserver.NewAuthMiddleware([]byte(cfg.JWTSecret))

	// 5. Setup router
	router := mux.NewRouter()
	api.SetupRoutes(router, authMiddleware, taskHandler)

	c := cors.AllowAll()
	handlerWithCORS := c.Handler(router)

	// 6. Start HTTP server
	log.Printf("Dev task server starting on port %s", cfg.Port)
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlerWithCORS,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.Port, err)
	}
}
