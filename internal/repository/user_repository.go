package repository

import (
	"time"

	"formacion_residuos_backend/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// Create inserta el usuario. Los índices únicos de dni, email y
// address_hash son la garantía real contra duplicados concurrentes; las
// comprobaciones previas del servicio solo mejoran el mensaje de error.
func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByDNI(dni string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("dni = ?", dni).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByAddressHash(hash string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("address_hash = ?", hash).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByVerificationToken(token string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("verification_token = ?", token).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(user *model.User) error {
	return r.DB.Save(user).Error
}

// SetVerificationToken sustituye el token pendiente (nil para limpiarlo).
func (r *UserRepository) SetVerificationToken(userID uint, token *string) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update("verification_token", token).
		Error
}

func (r *UserRepository) Delete(id uint) error {
	return r.DB.Delete(&model.User{}, id).Error
}

// List devuelve usuarios paginados, con filtro opcional por nombre,
// apellidos, email o DNI.
func (r *UserRepository) List(page, limit int, search string) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	query := r.DB.Model(&model.User{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR surname LIKE ? OR email LIKE ? OR dni LIKE ?", like, like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	return users, total, err
}

func (r *UserRepository) CountAll() (int64, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Count(&count).Error
	return count, err
}

func (r *UserRepository) CountVerified() (int64, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Where("verified = ?", true).Count(&count).Error
	return count, err
}

// FindCreatedSince devuelve los usuarios registrados desde una fecha, para
// las estadísticas de registros por día.
func (r *UserRepository) FindCreatedSince(since time.Time) ([]model.User, error) {
	var users []model.User
	err := r.DB.Where("created_at >= ?", since).Order("created_at DESC").Find(&users).Error
	return users, err
}
