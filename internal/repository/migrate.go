package repository

import (
	"github.com/av-estimator/engine/internal/models"
	"gorm.io/gorm"
)

// registeredModels returns all models that need migration.
func registeredModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.CatalogItem{},
		&models.Project{},
		&models.PackageDefinition{},
		&models.SyncJob{},
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := enableUUIDExtension(db); err != nil {
		return err
	}
	if err := db.AutoMigrate(registeredModels()...); err != nil {
		return err
	}
	return runCustomMigrations(db)
}

// runCustomMigrations handles schema changes AutoMigrate can't handle.
func runCustomMigrations(db *gorm.DB) error {
	migrations := []func(*gorm.DB) error{
		addPackageNameIndexes,
		addSyncJobIndexes,
	}
	for _, migration := range migrations {
		if err := migration(db); err != nil {
			return err
		}
	}
	return nil
}

func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error
}

// A name identifies a definition within its scope; instances created before
// ids were stamped resolve by it.
func addPackageNameIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_package_definitions_catalog_name
		ON package_definitions(name)
		WHERE scope = 'catalog' AND deleted_at IS NULL
	`).Error; err != nil {
		return err
	}
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_package_definitions_project_name
		ON package_definitions(project_id, name)
		WHERE scope = 'project' AND deleted_at IS NULL
	`).Error
}

func addSyncJobIndexes(db *gorm.DB) error {
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_sync_jobs_project_status
		ON sync_jobs(project_id, status)
		WHERE deleted_at IS NULL
	`).Error
}
