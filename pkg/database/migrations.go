package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	catalogrepo "github.com/skolahq/skola/internal/catalog/repository"
	enrollrepo "github.com/skolahq/skola/internal/enrollment/repository"
)

// Migration represents an applied database migration.
type Migration struct {
	ID        uint      `gorm:"primaryKey"`
	Version   string    `gorm:"uniqueIndex;not null"`
	Name      string    `gorm:"not null"`
	AppliedAt time.Time `gorm:"not null"`
}

// MigrationFunc is a function that performs a migration.
type MigrationFunc func(*gorm.DB) error

// MigrationEntry represents a single migration.
type MigrationEntry struct {
	Version string
	Name    string
	Up      MigrationFunc
}

// Migrator handles database migrations.
type Migrator struct {
	db         *gorm.DB
	migrations []MigrationEntry
}

// NewMigrator creates a new migrator instance.
func NewMigrator(db *gorm.DB) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getAllMigrations(),
	}
}

// Migrate runs all pending migrations.
func (m *Migrator) Migrate() error {
	if err := m.db.AutoMigrate(&Migration{}); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var appliedMigrations []Migration
	if err := m.db.Find(&appliedMigrations).Error; err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	applied := make(map[string]bool)
	for _, migration := range appliedMigrations {
		applied[migration.Version] = true
	}

	for _, migration := range m.migrations {
		if applied[migration.Version] {
			continue
		}

		err := m.db.Transaction(func(tx *gorm.DB) error {
			if err := migration.Up(tx); err != nil {
				return err
			}

			return tx.Create(&Migration{
				Version:   migration.Version,
				Name:      migration.Name,
				AppliedAt: time.Now(),
			}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to run migration %s: %w", migration.Version, err)
		}
	}

	return nil
}

// GetPendingMigrations returns a list of pending migrations.
func (m *Migrator) GetPendingMigrations() ([]MigrationEntry, error) {
	var appliedMigrations []Migration
	if err := m.db.Find(&appliedMigrations).Error; err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	applied := make(map[string]bool)
	for _, migration := range appliedMigrations {
		applied[migration.Version] = true
	}

	var pending []MigrationEntry
	for _, migration := range m.migrations {
		if !applied[migration.Version] {
			pending = append(pending, migration)
		}
	}

	return pending, nil
}

// getAllMigrations returns all migrations in order.
func getAllMigrations() []MigrationEntry {
	return []MigrationEntry{
		{
			Version: "20250301_001",
			Name:    "Create catalog schema",
			Up:      migration001CreateCatalogSchema,
		},
		{
			Version: "20250301_002",
			Name:    "Create enrollment schema",
			Up:      migration002CreateEnrollmentSchema,
		},
		{
			Version: "20250301_003",
			Name:    "Add enrollment uniqueness constraint",
			Up:      migration003AddEnrollmentConstraint,
		},
	}
}

// migration001CreateCatalogSchema creates the course, video and activity tables.
func migration001CreateCatalogSchema(tx *gorm.DB) error {
	if tx.Dialector.Name() == "postgres" {
		if err := tx.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
			return fmt.Errorf("failed to create UUID extension: %w", err)
		}
	}

	if err := tx.AutoMigrate(
		&catalogrepo.Course{},
		&catalogrepo.Video{},
		&catalogrepo.Activity{},
	); err != nil {
		return fmt.Errorf("failed to migrate catalog models: %w", err)
	}

	return nil
}

// migration002CreateEnrollmentSchema creates the enrollment table.
func migration002CreateEnrollmentSchema(tx *gorm.DB) error {
	if err := tx.AutoMigrate(&enrollrepo.Enrollment{}); err != nil {
		return fmt.Errorf("failed to migrate enrollment models: %w", err)
	}
	return nil
}

// migration003AddEnrollmentConstraint guarantees at most one active
// enrollment per (student, course) pair at the storage level.
func migration003AddEnrollmentConstraint(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_enrollments_active_unique
		ON enrollments (student_id, course_id)
		WHERE status = 'active'
	`).Error
}
