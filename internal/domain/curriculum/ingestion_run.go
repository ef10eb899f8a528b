package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
	RunStatusSkipped   = "skipped"
)

// IngestionRun records one extraction or promotion pass for a subject so an
// operator can review counts before accepting a sync.
type IngestionRun struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ExamBoard         string         `gorm:"column:exam_board;not null;index" json:"exam_board"`
	QualificationType string         `gorm:"column:qualification_type;not null" json:"qualification_type"`
	SubjectCode       string         `gorm:"column:subject_code;not null;index" json:"subject_code"`
	Stage             string         `gorm:"column:stage;not null" json:"stage"` // extract|promote
	Status            string         `gorm:"column:status;not null;index" json:"status"`
	TopicsExtracted   int            `gorm:"column:topics_extracted;not null;default:0" json:"topics_extracted"`
	TopicsStaged      int            `gorm:"column:topics_staged;not null;default:0" json:"topics_staged"`
	TopicsSynced      int            `gorm:"column:topics_synced;not null;default:0" json:"topics_synced"`
	OrphanCount       int            `gorm:"column:orphan_count;not null;default:0" json:"orphan_count"`
	Report            datatypes.JSON `gorm:"column:report;type:jsonb" json:"report,omitempty"`
	ErrorMessage      string         `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	StartedAt         time.Time      `gorm:"column:started_at;not null" json:"started_at"`
	FinishedAt        *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt         time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (IngestionRun) TableName() string { return "ingestion_run" }

func (r *IngestionRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
