package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"newsreel/internal/config"
	"newsreel/internal/core"
	"newsreel/internal/utils"
)

type Server struct {
	config        *config.Config
	manager       *core.Manager
	logger        *utils.Logger
	httpServer    *http.Server
	apiHandler    *APIHandler
	streamHandler *StreamHandler
}

func NewServer(cfg *config.Config, manager *core.Manager, logger *utils.Logger) *Server {
	return &Server{
		config:        cfg,
		manager:       manager,
		logger:        logger,
		apiHandler:    NewAPIHandler(manager, logger),
		streamHandler: NewStreamHandler(manager, cfg, logger),
	}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.apiHandler.Health).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/status", s.apiHandler.GetStatus).Methods("GET")
	api.HandleFunc("/test/notifications", s.apiHandler.TestNotifications).Methods("GET")

	// Literal addon routes before the options-prefixed variants, so a
	// bare install without an options segment still resolves.
	router.HandleFunc("/manifest.json", s.streamHandler.Manifest).Methods("GET")
	router.HandleFunc("/stream/{type}/{id}.json", s.streamHandler.Streams).Methods("GET")
	router.HandleFunc("/{options}/manifest.json", s.streamHandler.Manifest).Methods("GET")
	router.HandleFunc("/{options}/stream/{type}/{id}.json", s.streamHandler.Streams).Methods("GET")

	return router
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf(":%d", s.config.App.Port),
		Handler:     s.Router(),
		ReadTimeout: 15 * time.Second,
		// Stream requests may walk several result pages upstream.
		WriteTimeout: 2 * time.Minute,
	}

	s.logger.Info("Starting server on port", s.config.App.Port)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
