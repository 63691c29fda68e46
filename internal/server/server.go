package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/akolanti/docqa/internal/adapter/utils"
	"github.com/akolanti/docqa/internal/config"
	"github.com/akolanti/docqa/internal/handlers"
	"github.com/akolanti/docqa/internal/middleware"
	"github.com/akolanti/docqa/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

var (
	server  *http.Server
	_logger = logger_i.NewLogger("Server")
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
}

// Routes builds the API router. mcpHandler may be nil when MCP over HTTP is
// not wanted.
func Routes(h *handlers.Handlers, mw *middleware.Middleware, mcpHandler http.Handler) *chi.Mux {
	r := utils.NewRouter()

	r.Get("/health", mw.Public(h.Health))

	r.Route("/collections", func(r chi.Router) {
		r.Post("/", mw.Wrap(h.CreateCollection))
		r.Get("/", mw.Wrap(h.ListCollections))
		r.Get("/{id}", mw.Wrap(h.GetCollection))
		r.Put("/{id}", mw.Wrap(h.UpdateCollection))
		r.Delete("/{id}", mw.Wrap(h.DeleteCollection))

		r.Post("/{id}/documents", mw.Wrap(h.UploadDocument))
		r.Get("/{id}/documents", mw.Wrap(h.ListDocuments))
		r.Post("/{id}/query", mw.Wrap(h.Query))
		r.Get("/{id}/conversations", mw.Wrap(h.ListConversations))
	})

	r.Get("/documents/{id}", mw.Wrap(h.GetDocument))
	r.Delete("/documents/{id}", mw.Wrap(h.DeleteDocument))
	r.Get("/documents/{id}/chunks", mw.Wrap(h.ListChunks))

	r.Get("/conversations/{id}", mw.Wrap(h.GetConversation))
	r.Delete("/conversations/{id}", mw.Wrap(h.DeleteConversation))

	r.Get("/jobs/{id}", mw.Wrap(h.GetJobStatus))
	r.Get("/index/stats", mw.Wrap(h.IndexStats))

	if mcpHandler != nil {
		r.Handle("/mcp", mw.Wrap(mcpHandler.ServeHTTP))
	}
	return r
}

func CreateServer(listenAddr string, handler http.Handler) {
	server = &http.Server{
		Addr:         listenAddr,
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening at", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err.Error(), "addr", listenAddr)
	}
}

// ShutDownHandler waits for a signal, drains HTTP, stops the workers and
// closes external services. StopExecution is closed either way.
func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	_logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		if server != nil {
			server.SetKeepAlivesEnabled(false)
			if err := server.Shutdown(ctx); err != nil {
				_logger.Error("Could not shutdown gracefully", "error", err)
			}
		}

		//close workers
		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Gracefully shut down")
	case <-ctx.Done():
		_logger.Warn("Force shut down, workers still running")
	}
	shutdownParams.CloseServices()
	close(shutdownParams.StopExecution)
}
