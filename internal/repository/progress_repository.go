package repository

import (
	"time"

	"formacion_residuos_backend/internal/model"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) Find(userID, moduleID uint) (*model.ModuleProgress, error) {
	var p model.ModuleProgress
	err := r.DB.Where("user_id = ? AND module_id = ?", userID, moduleID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProgressRepository) FindByUser(userID uint) ([]model.ModuleProgress, error) {
	var progress []model.ModuleProgress
	err := r.DB.Where("user_id = ?", userID).Find(&progress).Error
	return progress, err
}

func (r *ProgressRepository) Create(p *model.ModuleProgress) error {
	return r.DB.Create(p).Error
}

// UpdateSeconds fija el tiempo acumulado solo si el módulo no está
// completado y el nuevo valor es mayor: el tiempo nunca decrece ni cambia
// tras completar.
func (r *ProgressRepository) UpdateSeconds(userID, moduleID uint, seconds int) error {
	return r.DB.Model(&model.ModuleProgress{}).
		Where("user_id = ? AND module_id = ? AND completed = ? AND seconds_seen < ?", userID, moduleID, false, seconds).
		Update("seconds_seen", seconds).
		Error
}

// MarkCompleted cierra el progreso. La condición completed = false hace la
// operación idempotente frente a peticiones repetidas.
func (r *ProgressRepository) MarkCompleted(userID, moduleID uint, at time.Time) error {
	return r.DB.Model(&model.ModuleProgress{}).
		Where("user_id = ? AND module_id = ? AND completed = ?", userID, moduleID, false).
		Updates(map[string]interface{}{
			"completed":    true,
			"completed_at": at,
		}).Error
}

func (r *ProgressRepository) CountCompleted(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ModuleProgress{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Count(&count).Error
	return count, err
}

func (r *ProgressRepository) DeleteByUser(userID uint) error {
	return r.DB.Unscoped().Where("user_id = ?", userID).Delete(&model.ModuleProgress{}).Error
}
