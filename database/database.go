package database

import (
	"github.com/theneural/backend/models"
	"gorm.io/gorm"
)

type Database struct {
	projectRepo *ProjectRepo
	sessionRepo *SessionRepo
}

// New initializes a new Database struct with each repository using a shared
// GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		projectRepo: NewProjectRepo(db),
		sessionRepo: NewSessionRepo(db),
	}
}

func (d Database) ProjectRepo() *ProjectRepo {
	return d.projectRepo
}

func (d Database) SessionRepo() *SessionRepo {
	return d.sessionRepo
}

// Migrate creates or updates the schema for every persisted entity.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Project{}, &models.Session{})
}
