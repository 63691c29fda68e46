package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/docqa/internal/config"
	"github.com/akolanti/docqa/internal/domain/jobModel"
	"github.com/akolanti/docqa/internal/handlers"
	"github.com/akolanti/docqa/internal/job"
	"github.com/akolanti/docqa/internal/mcpServer"
	"github.com/akolanti/docqa/internal/middleware"
	"github.com/akolanti/docqa/internal/server"
	"github.com/akolanti/docqa/internal/worker"
	"github.com/akolanti/docqa/pkg/logger_i"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the ingestion workers and the MCP endpoint",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	logger_i.Init(settings)
	logger := logger_i.NewLogger("main")

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	a, err := buildApp(serviceContext, settings)
	if err != nil {
		logger.Error("could not start", "error", err)
		return err
	}

	//init buffered job channel
	jobChannel := make(chan jobModel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel := make(chan bool, 1)
	var workerWaitGroup sync.WaitGroup

	logger.Info("Starting job service")
	jobService := job.InitJobService(job.ServiceConfig{
		JobChannel:        jobChannel,
		DispatcherChannel: dispatcherChannel,
		JobStore:          a.jobs,
	})

	//init worker pool
	worker.InitServices(jobService, a.rag)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	h := handlers.New(handlers.Deps{
		Collections:   a.db,
		Documents:     a.db,
		Chunks:        a.db,
		Conversations: a.convs,
		RAG:           a.rag,
		Jobs:          jobService,
		Formats:       a.formats,
		Uploads: handlers.UploadPolicy{
			MaxBytes:          settings.MaxFileSizeBytes(),
			AllowedExtensions: settings.AllowedExtensions,
		},
		Usage:   a.usage,
		Version: mcpServer.Version,
	})

	mcp, err := mcpServer.NewServer(mcpServer.Deps{RAG: a.rag, Collections: a.db, Documents: a.db})
	if err != nil {
		a.close()
		return err
	}

	limiter := middleware.NewIPRateLimiter(rate.Limit(config.RATE_LIMIT_PER_SECOND), config.BURST_RATE_LIMIT_PER_SECOND)
	router := server.Routes(h, middleware.New(settings.AuthToken, limiter), mcp.HTTPHandler())

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices: func() {
			closeExternalServices()
			a.close()
		},
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(settings.ListenAddr, router)

	<-stopExecution
	logger.Info("Server stopped")
	return nil
}
