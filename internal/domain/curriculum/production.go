package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Subject is the production copy referenced by downstream systems. Exactly
// one row per natural key carries IsCurrent=true; superseded versions stay
// behind with IsCurrent=false and are never hard-deleted.
type Subject struct {
	ID                    uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ExamBoardCode         string         `gorm:"column:exam_board_code;not null;index:idx_subject_key" json:"exam_board_code"`
	QualificationTypeCode string         `gorm:"column:qualification_type_code;not null;index:idx_subject_key" json:"qualification_type_code"`
	SubjectCode           string         `gorm:"column:subject_code;not null;index:idx_subject_key" json:"subject_code"`
	SubjectName           string         `gorm:"column:subject_name;not null" json:"subject_name"`
	SourceRef             string         `gorm:"column:source_ref" json:"source_ref,omitempty"`
	IsCurrent             bool           `gorm:"column:is_current;not null;default:true;index" json:"is_current"`
	Metadata              datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt             time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt             time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Subject) TableName() string { return "subject" }

func (s *Subject) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Topic is one node of a subject's content tree. IDs are stable across
// re-syncs for unchanged codes because user progress rows reference them.
// ParentCode keeps the declared parent even when it never resolved, so
// validation can tell an orphan from a real root.
type Topic struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SubjectID     uuid.UUID  `gorm:"type:uuid;not null;index;index:idx_topic_subject_code,unique" json:"subject_id"`
	Subject       *Subject   `gorm:"constraint:OnDelete:CASCADE;foreignKey:SubjectID;references:ID" json:"subject,omitempty"`
	Code          string     `gorm:"column:code;not null;index:idx_topic_subject_code,unique" json:"code"`
	Name          string     `gorm:"column:name;not null" json:"name"`
	Level         int        `gorm:"column:level;not null" json:"level"`
	ParentCode    string     `gorm:"column:parent_code" json:"parent_code,omitempty"`
	ParentTopicID *uuid.UUID `gorm:"type:uuid;index" json:"parent_topic_id,omitempty"`
	SortOrder     int        `gorm:"column:sort_order;not null;default:0" json:"sort_order"`
	CreatedAt     time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (Topic) TableName() string { return "topic" }

func (t *Topic) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
