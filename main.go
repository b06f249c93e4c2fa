package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/andriyansyah/todosync/internal/config"
	"github.com/andriyansyah/todosync/internal/connectivity"
	"github.com/andriyansyah/todosync/internal/models"
	"github.com/andriyansyah/todosync/internal/remote"
	"github.com/andriyansyah/todosync/internal/services"
	"github.com/andriyansyah/todosync/internal/storage"
)

func main() {
	// 1. Load configuration
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// 2. Open durable local storage
	kv, err := storage.OpenSQLite(cfg.StoragePath)
	if err != nil {
		log.Fatalf("Error opening local storage: %v", err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Printf("Error closing local storage: %v", err)
		}
	}()

	// 3. Remote task service client
	client := remote.NewClient(cfg.APIBaseURL, cfg.APIToken, cfg.RequestTimeout)

	// 4. Local task store and pending change log
	changeLog := storage.NewChangeLog(kv)
	taskStore := storage.NewTaskStore(kv, changeLog)

	// 5. Mutation gateway and reconciliation engine
	gateway := services.NewGateway(client, taskStore, changeLog)
	engine := services.NewSyncEngine(client, taskStore, changeLog, gateway.ReplaceAll)

	// 6. Connectivity monitor and listener
	monitor := connectivity.NewMonitor(cfg.ProbeAddr, cfg.ProbeInterval)
	listener := services.NewConnectivityListener(monitor, engine)
	listener.Start()
	monitor.Start()
	defer func() {
		listener.Stop()
		monitor.Stop()
	}()

	// 7. Initial load: remote when reachable, local cache otherwise
	gateway.Subscribe(func(tasks []models.Task) {
		log.Printf("Task collection now has %d entries", len(tasks))
	})
	tasks := gateway.Refresh(context.Background())
	log.Printf("Sync agent ready with %d tasks", len(tasks))

	// 8. Wait for shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("Shutting down")
}
