package repository

import (
	"formacion_residuos_backend/internal/model"

	"gorm.io/gorm"
)

type ExamConfigRepository struct {
	DB *gorm.DB
}

func NewExamConfigRepository(db *gorm.DB) *ExamConfigRepository {
	return &ExamConfigRepository{DB: db}
}

// Get devuelve la fila singleton (id=1) si existe.
func (r *ExamConfigRepository) Get() (*model.ExamConfig, error) {
	var cfg model.ExamConfig
	err := r.DB.First(&cfg, 1).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *ExamConfigRepository) Save(cfg *model.ExamConfig) error {
	cfg.ID = 1
	return r.DB.Save(cfg).Error
}
