package repository

import (
	"formacion_residuos_backend/internal/model"

	"gorm.io/gorm"
)

type ModuleRepository struct {
	DB *gorm.DB
}

func NewModuleRepository(db *gorm.DB) *ModuleRepository {
	return &ModuleRepository{DB: db}
}

func (r *ModuleRepository) FindActiveOrdered() ([]model.Module, error) {
	var modules []model.Module
	err := r.DB.Where("active = ?", true).Order("`order` ASC").Find(&modules).Error
	return modules, err
}

func (r *ModuleRepository) FindByID(id uint) (*model.Module, error) {
	var m model.Module
	err := r.DB.First(&m, id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *ModuleRepository) CountActive() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Module{}).Where("active = ?", true).Count(&count).Error
	return count, err
}

func (r *ModuleRepository) Create(m *model.Module) error {
	return r.DB.Create(m).Error
}

func (r *ModuleRepository) Update(m *model.Module) error {
	return r.DB.Save(m).Error
}

func (r *ModuleRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Module{}, id).Error
}

func (r *ModuleRepository) FindAll() ([]model.Module, error) {
	var modules []model.Module
	err := r.DB.Order("`order` ASC").Find(&modules).Error
	return modules, err
}
