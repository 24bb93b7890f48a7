package database

import (
	"errors"
	"time"

	"github.com/theneural/backend/models"
	"gorm.io/gorm"
)

type SessionRepo struct {
	db *gorm.DB
}

func NewSessionRepo(db *gorm.DB) *SessionRepo {
	return &SessionRepo{db}
}

func (r *SessionRepo) Add(session *models.Session) error {
	return r.db.Create(session).Error
}

func (r *SessionRepo) FindByID(id string) (*models.Session, error) {
	var session models.Session
	err := r.db.First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepo) Update(session *models.Session) error {
	return r.db.Save(session).Error
}

func (r *SessionRepo) Delete(id string) (bool, error) {
	res := r.db.Delete(&models.Session{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteExpired sweeps sessions whose expiry has passed.
func (r *SessionRepo) DeleteExpired(now time.Time) (int64, error) {
	res := r.db.Delete(&models.Session{}, "expires_at < ?", now)
	return res.RowsAffected, res.Error
}
