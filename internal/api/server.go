package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"order_service/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server представляет HTTP-сервер.
type Server struct {
	httpServer *http.Server
	repo       repository.Repository
}

// NewServer создает и настраивает новый экземпляр сервера.
func NewServer(port string, repo repository.Repository) *Server {
	server := &Server{repo: repo}
	server.httpServer = &http.Server{
		Addr: fmt.Sprintf(":%s", port),
		// otelhttp оборачивает весь роутер для трассировки входящих запросов
		Handler:      otelhttp.NewHandler(server.setupRouter(), "order-service"),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server
}

// Run запускает HTTP-сервер.
func (s *Server) Run() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("http server starting")
	return s.httpServer.ListenAndServe()
}

// Shutdown корректно останавливает сервер.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// setupRouter настраивает маршрутизацию.
func (s *Server) setupRouter() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	orderHandler := NewOrderHandler(s.repo)
	router.Get("/api/orders", orderHandler.List)
	router.Post("/api/order", orderHandler.Create)
	router.Get("/api/order/{orderUID}", orderHandler.GetByUID)
	router.Delete("/api/order/{orderUID}", orderHandler.Delete)

	router.Handle("/metrics", promhttp.Handler())

	// Статика веб-интерфейса
	fileServer := http.FileServer(http.Dir("./web/"))
	router.Handle("/*", fileServer)

	return router
}
