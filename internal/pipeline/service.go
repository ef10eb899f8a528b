package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	redisclient "github.com/studyforge/curriculum-backend/internal/clients/redis"
	repos "github.com/studyforge/curriculum-backend/internal/data/repos/curriculum"
	types "github.com/studyforge/curriculum-backend/internal/domain/curriculum"
	"github.com/studyforge/curriculum-backend/internal/extraction"
	"github.com/studyforge/curriculum-backend/internal/hierarchy"
	"github.com/studyforge/curriculum-backend/internal/pkg/dbctx"
	"github.com/studyforge/curriculum-backend/internal/platform/logger"
	"github.com/studyforge/curriculum-backend/internal/staging"
	"github.com/studyforge/curriculum-backend/internal/syncer"
	"github.com/studyforge/curriculum-backend/internal/validation"
)

// SubjectInput is one subject's worth of work: the natural key plus the raw
// text blocks handed over by the document collaborators.
type SubjectInput struct {
	Key       types.SubjectKey
	SourceRef string
	Profile   string
	Blocks    []extraction.Block
}

// RunSummary reports one extraction pass for operator review.
type RunSummary struct {
	Key             types.SubjectKey `json:"key"`
	TopicsExtracted int              `json:"topics_extracted"`
	TopicsStaged    int              `json:"topics_staged"`
	Orphans         int              `json:"orphans"`
	Duplicates      int              `json:"duplicates_dropped"`
	Err             string           `json:"error,omitempty"`
}

// Service orchestrates the per-subject pipeline: extract, build, stage,
// and optionally promote. Subjects are independent and may run in
// parallel; within one subject the stages stay strictly sequential.
type Service struct {
	gdb       *gorm.DB
	log       *logger.Logger
	staging   *staging.Service
	syncer    *syncer.Service
	validator *validation.Validator
	runs      repos.IngestionRunRepo
	subjects  repos.StagingSubjectRepo
	profiles  map[string]extraction.Profile
	reports   *redisclient.ReportCache
}

func NewService(
	gdb *gorm.DB,
	baseLog *logger.Logger,
	stagingSvc *staging.Service,
	syncSvc *syncer.Service,
	validator *validation.Validator,
	runs repos.IngestionRunRepo,
	subjects repos.StagingSubjectRepo,
	profiles map[string]extraction.Profile,
	reports *redisclient.ReportCache,
) *Service {
	return &Service{
		gdb:       gdb,
		log:       baseLog.With("service", "PipelineService"),
		staging:   stagingSvc,
		syncer:    syncSvc,
		validator: validator,
		runs:      runs,
		subjects:  subjects,
		profiles:  profiles,
		reports:   reports,
	}
}

func (s *Service) profile(name string) extraction.Profile {
	if p, ok := s.profiles[name]; ok {
		return p
	}
	return extraction.DefaultProfile()
}

// RunSubject extracts one subject's blocks and stages the resulting tree.
// The whole pass is idempotent: re-running with identical input produces
// an identical staging topic set.
func (s *Service) RunSubject(ctx context.Context, in SubjectInput) (*RunSummary, error) {
	dbc := dbctx.Context{Ctx: ctx}
	summary := &RunSummary{Key: in.Key}

	run := &types.IngestionRun{
		ExamBoard:         in.Key.ExamBoard,
		QualificationType: in.Key.QualificationType,
		SubjectCode:       in.Key.SubjectCode,
		Stage:             "extract",
		Status:            types.RunStatusRunning,
	}
	if err := s.runs.Create(dbc, run); err != nil {
		return nil, fmt.Errorf("record ingestion run: %w", err)
	}

	runner := extraction.NewRunner(s.profile(in.Profile), s.log)
	st := extraction.NewState(s.profile(in.Profile))
	tuples := runner.ExtractBlocks(in.Blocks, st)
	tree := hierarchy.Build(tuples)

	summary.TopicsExtracted = len(tuples)
	summary.Orphans = tree.Orphans
	summary.Duplicates = tree.Duplicates

	subjectID, err := s.staging.UpsertSubject(dbc, in.Key, in.SourceRef)
	if err != nil {
		s.finishRun(dbc, run, types.RunStatusFailed, err)
		return summary, err
	}
	staged, err := s.staging.ReplaceTopics(dbc, subjectID, tree)
	if err != nil {
		s.finishRun(dbc, run, types.RunStatusFailed, err)
		return summary, err
	}
	summary.TopicsStaged = staged

	run.TopicsExtracted = len(tuples)
	run.TopicsStaged = staged
	run.OrphanCount = tree.Orphans
	s.finishRun(dbc, run, types.RunStatusSucceeded, nil)
	return summary, nil
}

// RunAll fans subjects out across workers. Per-subject failures are
// captured in the summaries; one bad subject never aborts the rest.
func (s *Service) RunAll(ctx context.Context, inputs []SubjectInput, parallelism int) ([]*RunSummary, error) {
	if parallelism <= 0 {
		parallelism = 4
	}
	summaries := make([]*RunSummary, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			summary, err := s.RunSubject(gctx, in)
			if err != nil {
				s.log.Error("Subject extraction failed",
					"exam_board", in.Key.ExamBoard,
					"subject_code", in.Key.SubjectCode,
					"error", err,
				)
				if summary == nil {
					summary = &RunSummary{Key: in.Key}
				}
				summary.Err = err.Error()
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summaries, err
	}
	return summaries, nil
}

// PromoteSubject syncs one staged subject into production and validates
// the result. The validation report is attached to the promotion run and
// cached for the API when a cache is configured.
func (s *Service) PromoteSubject(ctx context.Context, key types.SubjectKey) (*syncer.Result, *validation.Report, error) {
	dbc := dbctx.Context{Ctx: ctx}

	stagingSubject, err := s.subjects.GetByNaturalKey(dbc, key)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup staging subject: %w", err)
	}

	run := &types.IngestionRun{
		ExamBoard:         key.ExamBoard,
		QualificationType: key.QualificationType,
		SubjectCode:       key.SubjectCode,
		Stage:             "promote",
		Status:            types.RunStatusRunning,
	}
	if err := s.runs.Create(dbc, run); err != nil {
		return nil, nil, fmt.Errorf("record promotion run: %w", err)
	}

	res, err := s.syncer.SyncSubject(ctx, stagingSubject.ID)
	if err != nil {
		s.finishRun(dbc, run, types.RunStatusFailed, err)
		return nil, nil, err
	}
	if res.Skipped {
		run.ErrorMessage = res.SkipReason
		s.finishRun(dbc, run, types.RunStatusSkipped, nil)
		return res, nil, nil
	}

	report, err := s.validator.ValidateSubject(ctx, res.SubjectID)
	if err != nil {
		s.finishRun(dbc, run, types.RunStatusFailed, err)
		return res, nil, err
	}

	run.TopicsSynced = res.TopicsInserted + res.TopicsUpdated
	run.OrphanCount = report.OrphanCount
	if raw, err := json.Marshal(report); err == nil {
		run.Report = datatypes.JSON(raw)
	}
	s.finishRun(dbc, run, types.RunStatusSucceeded, nil)

	if s.reports != nil {
		if err := s.reports.Put(ctx, res.SubjectID, report); err != nil {
			s.log.Warn("Report cache write failed", "subject_id", res.SubjectID, "error", err)
		}
	}
	return res, report, nil
}

func (s *Service) finishRun(dbc dbctx.Context, run *types.IngestionRun, status string, cause error) {
	now := time.Now().UTC()
	run.Status = status
	run.FinishedAt = &now
	if cause != nil {
		run.ErrorMessage = cause.Error()
	}
	if err := s.runs.Update(dbc, run); err != nil {
		s.log.Warn("Could not finalize ingestion run", "run_id", run.ID, "error", err)
	}
}
