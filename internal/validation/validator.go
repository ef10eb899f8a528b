package validation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	repos "github.com/studyforge/curriculum-backend/internal/data/repos/curriculum"
	types "github.com/studyforge/curriculum-backend/internal/domain/curriculum"
	"github.com/studyforge/curriculum-backend/internal/pkg/dbctx"
	"github.com/studyforge/curriculum-backend/internal/platform/logger"
)

// maxDepth bounds cycle detection; no real curriculum tree is deeper.
const maxDepth = 32

// Report is the post-sync invariant summary for one subject. Nothing in it
// halts the pipeline; curriculum scraping is exploratory and a human
// decides whether to accept or re-run.
type Report struct {
	SubjectID          uuid.UUID   `json:"subject_id"`
	TopicCount         int         `json:"topic_count"`
	OrphanCount        int         `json:"orphan_count"`
	DuplicateCodeCount int         `json:"duplicate_code_count"`
	LevelViolations    int         `json:"level_violations"`
	CycleCount         int         `json:"cycle_count"`
	LevelHistogram     map[int]int `json:"level_histogram"`
}

type Validator struct {
	log    *logger.Logger
	topics repos.TopicRepo
}

func NewValidator(baseLog *logger.Logger, topics repos.TopicRepo) *Validator {
	return &Validator{log: baseLog.With("service", "Validator"), topics: topics}
}

// ValidateSubject loads a subject's production topics and checks the tree
// invariants.
func (v *Validator) ValidateSubject(ctx context.Context, subjectID uuid.UUID) (*Report, error) {
	rows, err := v.topics.ListBySubjectID(dbctx.Context{Ctx: ctx}, subjectID)
	if err != nil {
		return nil, fmt.Errorf("load topics: %w", err)
	}
	report := Compute(subjectID, rows)
	v.log.Info("Validation report",
		"subject_id", subjectID,
		"topics", report.TopicCount,
		"orphans", report.OrphanCount,
		"duplicate_codes", report.DuplicateCodeCount,
		"level_violations", report.LevelViolations,
		"cycles", report.CycleCount,
	)
	return report, nil
}

// Compute derives the invariant report from an in-memory topic set.
func Compute(subjectID uuid.UUID, rows []*types.Topic) *Report {
	report := &Report{
		SubjectID:      subjectID,
		TopicCount:     len(rows),
		LevelHistogram: map[int]int{},
	}

	byID := make(map[uuid.UUID]*types.Topic, len(rows))
	codes := make(map[string]int, len(rows))
	for _, t := range rows {
		byID[t.ID] = t
		codes[t.Code]++
		report.LevelHistogram[t.Level]++
	}
	for _, n := range codes {
		if n > 1 {
			report.DuplicateCodeCount += n - 1
		}
	}

	for _, t := range rows {
		if t.ParentTopicID == nil {
			// A declared parent that never resolved lands with a NULL
			// pointer but a non-empty parent code.
			if t.ParentCode != "" {
				report.OrphanCount++
			}
			continue
		}
		parent, ok := byID[*t.ParentTopicID]
		if !ok {
			report.OrphanCount++
			continue
		}
		if t.Level != parent.Level+1 {
			report.LevelViolations++
		}
	}

	// Cycle check: following parents must reach a root within maxDepth.
	for _, t := range rows {
		cur := t
		for depth := 0; ; depth++ {
			if cur.ParentTopicID == nil {
				break
			}
			next, ok := byID[*cur.ParentTopicID]
			if !ok {
				break
			}
			if depth >= maxDepth {
				report.CycleCount++
				break
			}
			cur = next
		}
	}

	return report
}
