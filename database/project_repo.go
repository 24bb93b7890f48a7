package database

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/theneural/backend/errs"
	"github.com/theneural/backend/models"
	"gorm.io/gorm"
)

// ProjectFilter narrows a listing. Zero values mean "no filter". Search
// matches name, description and tags case-insensitively.
type ProjectFilter struct {
	Status    string
	Type      string
	CreatedBy string
	Search    string
	Limit     int
	Offset    int
}

type ProjectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) *ProjectRepo {
	return &ProjectRepo{db}
}

// FindAll returns one page ordered by creation time, newest first, plus the
// total count of rows matching the filter.
func (r *ProjectRepo) FindAll(filter ProjectFilter) ([]*models.Project, int64, error) {
	query := r.db.Model(&models.Project{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.CreatedBy != "" {
		query = query.Where("created_by = ?", filter.CreatedBy)
	}
	if filter.Search != "" {
		pattern := fmt.Sprintf("%%%s%%", filter.Search)
		query = query.Where("name ILIKE ? OR description ILIKE ? OR tags::text ILIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []*models.Project
	err := query.Order("created_at DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&projects).Error
	return projects, total, err
}

// FindByID returns nil without an error when the project does not exist;
// mapping that to a 404 is the service's call.
func (r *ProjectRepo) FindByID(id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := r.db.First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Add inserts a new project into the database
func (r *ProjectRepo) Add(project *models.Project) error {
	return r.db.Create(project).Error
}

// Update persists the project guarded by its version column. A writer
// holding a stale version gets a conflict instead of silently overwriting.
func (r *ProjectRepo) Update(project *models.Project) error {
	current := project.Version
	project.Version = current + 1

	res := r.db.Model(&models.Project{}).
		Where("id = ? AND version = ?", project.ID, current).
		Select("*").
		Omit("created_at").
		Updates(project)
	if res.Error != nil {
		project.Version = current
		return res.Error
	}
	if res.RowsAffected == 0 {
		project.Version = current
		return errs.NewConflict("project was modified concurrently")
	}
	return nil
}

// Delete removes the row and reports whether it existed.
func (r *ProjectRepo) Delete(id uuid.UUID) (bool, error) {
	res := r.db.Delete(&models.Project{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
