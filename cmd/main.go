package main

import (
	"fmt"
	"os"

	redisclient "github.com/studyforge/curriculum-backend/internal/clients/redis"
	"github.com/studyforge/curriculum-backend/internal/data/db"
	repos "github.com/studyforge/curriculum-backend/internal/data/repos/curriculum"
	httpapi "github.com/studyforge/curriculum-backend/internal/http"
	"github.com/studyforge/curriculum-backend/internal/http/handlers"
	"github.com/studyforge/curriculum-backend/internal/platform/envutil"
	"github.com/studyforge/curriculum-backend/internal/platform/logger"
	"github.com/studyforge/curriculum-backend/internal/validation"
)

func main() {
	logMode := envutil.String("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	gdb := postgresService.DB()

	subjectRepo := repos.NewSubjectRepo(gdb, log)
	topicRepo := repos.NewTopicRepo(gdb, log)
	runRepo := repos.NewIngestionRunRepo(gdb, log)

	validator := validation.NewValidator(log, topicRepo)

	reportCache, err := redisclient.NewReportCache(log)
	if err != nil {
		log.Warn("Report cache disabled", "error", err)
		reportCache = nil
	}

	router := httpapi.NewRouter(
		handlers.NewHealthHandler(),
		handlers.NewSubjectHandler(log, subjectRepo, topicRepo, validator, reportCache),
		handlers.NewRunHandler(log, runRepo),
	)

	addr := ":" + envutil.String("PORT", "8080")
	log.Info("Starting curriculum API", "addr", addr)
	if err := router.Run(addr); err != nil {
		log.Fatal("Server stopped", "error", err)
	}
}
