package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/studyforge/curriculum-backend/internal/domain/curriculum"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Staging (disposable, wiped per subject on re-extraction)
		&types.StagingSubject{},
		&types.StagingTopic{},

		// Production (referenced by downstream user progress)
		&types.Subject{},
		&types.Topic{},

		// Operator audit trail
		&types.IngestionRun{},
	)
}

func EnsureCurriculumIndexes(db *gorm.DB) error {
	// Exactly one current subject per natural key.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_subject_current_key
		ON subject (exam_board_code, qualification_type_code, subject_code)
		WHERE is_current = true AND deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_subject_current_key: %w", err)
	}

	// Parent lookups during two-phase linking and orphan scans.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_topic_subject_parent
		ON topic (subject_id, parent_topic_id);
	`).Error; err != nil {
		return fmt.Errorf("create idx_topic_subject_parent: %w", err)
	}

	// Run listing per subject, newest first.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_ingestion_run_subject_started
		ON ingestion_run (exam_board, subject_code, started_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_ingestion_run_subject_started: %w", err)
	}

	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureCurriculumIndexes(s.db); err != nil {
		s.log.Error("Curriculum index migration failed", "error", err)
		return err
	}
	return nil
}
