package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StagingSubject is the disposable copy of a subject written by extraction
// runs. One row per (exam_board, qualification_type, subject_code); re-runs
// update in place.
type StagingSubject struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ExamBoard         string         `gorm:"column:exam_board;not null;index:idx_staging_subject_key,unique" json:"exam_board"`
	QualificationType string         `gorm:"column:qualification_type;not null;index:idx_staging_subject_key,unique" json:"qualification_type"`
	SubjectCode       string         `gorm:"column:subject_code;not null;index:idx_staging_subject_key,unique" json:"subject_code"`
	SubjectName       string         `gorm:"column:subject_name;not null" json:"subject_name"`
	SourceRef         string         `gorm:"column:source_ref" json:"source_ref,omitempty"`
	Metadata          datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt         time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (StagingSubject) TableName() string { return "staging_subject" }

func (s *StagingSubject) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *StagingSubject) Key() SubjectKey {
	return SubjectKey{
		ExamBoard:         s.ExamBoard,
		QualificationType: s.QualificationType,
		SubjectCode:       s.SubjectCode,
		SubjectName:       s.SubjectName,
	}
}

// StagingTopic mirrors Topic but keeps the raw ParentCode alongside the
// resolved ParentTopicID so the synchronizer can re-link by code.
type StagingTopic struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SubjectID     uuid.UUID  `gorm:"type:uuid;not null;index;index:idx_staging_topic_subject_code,unique" json:"subject_id"`
	Code          string     `gorm:"column:code;not null;index:idx_staging_topic_subject_code,unique" json:"code"`
	Name          string     `gorm:"column:name;not null" json:"name"`
	Level         int        `gorm:"column:level;not null" json:"level"`
	ParentCode    string     `gorm:"column:parent_code" json:"parent_code,omitempty"`
	ParentTopicID *uuid.UUID `gorm:"type:uuid;index" json:"parent_topic_id,omitempty"`
	SortOrder     int        `gorm:"column:sort_order;not null;default:0" json:"sort_order"`
	CreatedAt     time.Time  `gorm:"not null;default:now()" json:"created_at"`
}

func (StagingTopic) TableName() string { return "staging_topic" }

func (t *StagingTopic) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
