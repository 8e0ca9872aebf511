package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/oa-labs/group-assessment-service/internal/config"
	"github.com/oa-labs/group-assessment-service/internal/repository/postgres"
	"github.com/oa-labs/group-assessment-service/internal/service"
	myhttp "github.com/oa-labs/group-assessment-service/internal/transport/http"
	"github.com/oa-labs/group-assessment-service/pkg/logger/slogpretty"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.MustLoad()
	log := slogpretty.SetupLogger(cfg.Env)

	log.Info("starting group-assessment-service", slog.String("env", cfg.Env))

	errChan := make(chan error, 1)

	db, err := postgres.NewDB(cfg.Postgres, log)
	if err != nil {
		return fmt.Errorf("failed to init db: %v", err)
	}
	defer func() {
		err = db.DB().Close()
		if err != nil {
			errChan <- fmt.Errorf("db close failed: %v", err)
		}
	}()

	groupRepo := postgres.NewGroupRepository(db.DB(), log)
	projectRepo := postgres.NewProjectRepository(db.DB(), log)
	workflowRepo := postgres.NewWorkflowRepository(db.DB(), log)
	assessmentRepo := postgres.NewAssessmentRepository(db.DB(), log)

	groupService := service.NewGroupService(log, groupRepo)
	projectService := service.NewProjectService(db.DB(), log, groupRepo, projectRepo)
	assessmentService := service.NewAssessmentService(
		db.DB(), log,
		workflowRepo, workflowRepo, assessmentRepo,
		groupRepo, projectRepo,
	)

	srv := myhttp.NewServer(log, groupService, projectService, assessmentService)
	httpServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Routes(),
	}

	go startServer(log, httpServer, errChan)

	select {
	case err := <-errChan:
		return fmt.Errorf("http server error: %v", err)

	case <-ctx.Done():
		log.Info("stopping server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down http server: %v", err)
	}

	return nil
}

func startServer(log *slog.Logger, httpServer *http.Server, errChan chan error) {
	defer close(errChan)

	log.Info("service started", slog.String("addr", httpServer.Addr))

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		errChan <- fmt.Errorf("error listening and serving: %v", err)
	}
}
