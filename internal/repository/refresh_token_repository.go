package repository

import (
	"time"

	"formacion_residuos_backend/internal/model"

	"gorm.io/gorm"
)

type RefreshTokenRepository struct {
	DB *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{DB: db}
}

func (r *RefreshTokenRepository) Create(token *model.RefreshToken) error {
	return r.DB.Create(token).Error
}

func (r *RefreshTokenRepository) FindByToken(token string) (*model.RefreshToken, error) {
	var rt model.RefreshToken
	err := r.DB.Where("token = ?", token).First(&rt).Error
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *RefreshTokenRepository) Delete(token string) error {
	return r.DB.Unscoped().Where("token = ?", token).Delete(&model.RefreshToken{}).Error
}

// DeleteByUser revoca todas las sesiones de un usuario (logout global,
// restablecimiento de contraseña).
func (r *RefreshTokenRepository) DeleteByUser(userID uint, isAdmin bool) error {
	return r.DB.Unscoped().
		Where("user_id = ? AND is_admin = ?", userID, isAdmin).
		Delete(&model.RefreshToken{}).Error
}

// DeleteExpired purga tokens caducados; se invoca periódicamente.
func (r *RefreshTokenRepository) DeleteExpired() error {
	return r.DB.Unscoped().
		Where("expires_at < ?", time.Now()).
		Delete(&model.RefreshToken{}).Error
}
