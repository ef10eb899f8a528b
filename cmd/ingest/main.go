package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	redisclient "github.com/studyforge/curriculum-backend/internal/clients/redis"
	"github.com/studyforge/curriculum-backend/internal/data/db"
	repos "github.com/studyforge/curriculum-backend/internal/data/repos/curriculum"
	"github.com/studyforge/curriculum-backend/internal/extraction"
	"github.com/studyforge/curriculum-backend/internal/normalization"
	"github.com/studyforge/curriculum-backend/internal/pipeline"
	"github.com/studyforge/curriculum-backend/internal/platform/envutil"
	"github.com/studyforge/curriculum-backend/internal/platform/logger"
	"github.com/studyforge/curriculum-backend/internal/staging"
	"github.com/studyforge/curriculum-backend/internal/syncer"
	"github.com/studyforge/curriculum-backend/internal/validation"
)

func main() {
	manifestPath := flag.String("manifest", "", "path to the ingestion manifest (YAML)")
	profilesPath := flag.String("profiles", "", "optional extraction profiles file (YAML)")
	aliasesPath := flag.String("aliases", "", "optional natural-key alias overrides (YAML)")
	promote := flag.Bool("sync", false, "promote staged subjects to production after extraction")
	cutover := flag.Bool("full-cutover", false, "promote every staged subject with session timeouts disabled")
	parallelism := flag.Int("parallelism", 4, "subjects extracted concurrently")
	flag.Parse()

	logMode := envutil.String("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *manifestPath == "" && !*cutover {
		log.Fatal("Nothing to do: pass -manifest or -full-cutover")
	}

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	gdb := postgresService.DB()

	stagingSubjectRepo := repos.NewStagingSubjectRepo(gdb, log)
	stagingTopicRepo := repos.NewStagingTopicRepo(gdb, log)
	subjectRepo := repos.NewSubjectRepo(gdb, log)
	topicRepo := repos.NewTopicRepo(gdb, log)
	runRepo := repos.NewIngestionRunRepo(gdb, log)

	resolver := normalization.NewResolver()
	if *aliasesPath != "" {
		if err := resolver.LoadOverrides(*aliasesPath); err != nil {
			log.Fatal("Could not load alias overrides", "error", err)
		}
	}

	profiles := map[string]extraction.Profile{}
	if *profilesPath != "" {
		profiles, err = extraction.LoadProfiles(*profilesPath)
		if err != nil {
			log.Fatal("Could not load extraction profiles", "error", err)
		}
	}

	reportCache, err := redisclient.NewReportCache(log)
	if err != nil {
		log.Warn("Report cache disabled", "error", err)
		reportCache = nil
	}

	stagingSvc := staging.NewService(gdb, log, stagingSubjectRepo, stagingTopicRepo)
	syncSvc := syncer.NewService(gdb, log, resolver, stagingSubjectRepo, stagingTopicRepo, subjectRepo, topicRepo)
	validator := validation.NewValidator(log, topicRepo)
	pipelineSvc := pipeline.NewService(gdb, log, stagingSvc, syncSvc, validator, runRepo, stagingSubjectRepo, profiles, reportCache)

	ctx := context.Background()

	if *cutover {
		results, err := syncSvc.FullCutover(ctx)
		if err != nil {
			log.Fatal("Full cutover failed", "error", err)
		}
		for _, r := range results {
			log.Info("Cutover result",
				"subject_code", r.Key.SubjectCode,
				"inserted", r.TopicsInserted,
				"updated", r.TopicsUpdated,
				"deleted", r.TopicsDeleted,
				"skipped", r.Skipped,
				"failed", r.Failed,
			)
		}
		return
	}

	inputs, err := pipeline.LoadManifest(*manifestPath)
	if err != nil {
		log.Fatal("Could not load manifest", "error", err)
	}

	summaries, err := pipelineSvc.RunAll(ctx, inputs, *parallelism)
	if err != nil {
		log.Fatal("Extraction batch failed", "error", err)
	}
	for _, sum := range summaries {
		log.Info("Extraction summary",
			"exam_board", sum.Key.ExamBoard,
			"subject_code", sum.Key.SubjectCode,
			"extracted", sum.TopicsExtracted,
			"staged", sum.TopicsStaged,
			"orphans", sum.Orphans,
			"duplicates_dropped", sum.Duplicates,
			"error", sum.Err,
		)
	}

	if !*promote {
		return
	}
	for _, in := range inputs {
		res, report, err := pipelineSvc.PromoteSubject(ctx, in.Key)
		if err != nil {
			log.Error("Promotion failed",
				"exam_board", in.Key.ExamBoard,
				"subject_code", in.Key.SubjectCode,
				"error", err,
			)
			continue
		}
		if res.Skipped {
			log.Warn("Promotion skipped", "subject_code", in.Key.SubjectCode, "reason", res.SkipReason)
			continue
		}
		log.Info("Promotion summary",
			"subject_id", res.SubjectID,
			"inserted", res.TopicsInserted,
			"updated", res.TopicsUpdated,
			"deleted", res.TopicsDeleted,
			"parents_linked", res.ParentsLinked,
			"orphans", report.OrphanCount,
			"duplicate_codes", report.DuplicateCodeCount,
		)
	}
}
