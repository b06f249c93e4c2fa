package api

import (
	"github.com/gorilla/mux"

	"github.com/andriyansyah/todosync/internal/devserver"
)

// SetupRoutes configures the dev server's task routes
func SetupRoutes(router *mux.Router, authMiddleware *devserver.AuthMiddleware, taskHandler *devserver.TaskHandler) {
	v1 := router.PathPrefix("/api/v1").Subrouter()

	// Task routes (protected)
	v1.HandleFunc("/tasks", authMiddleware.Bearer(taskHandler.CreateTask)).Methods("POST")
	v1.HandleFunc("/tasks", authMiddleware.Bearer(taskHandler.GetTasks)).Methods("GET")
	v1.HandleFunc("/tasks/{id}", authMiddleware.Bearer(taskHandler.UpdateTask)).Methods("PUT")
	v1.HandleFunc("/tasks/{id}", authMiddleware.Bearer(taskHandler.DeleteTask)).Methods("DELETE")
}
