package repository

import (
	"time"

	"formacion_residuos_backend/internal/model"

	"gorm.io/gorm"
)

type CertificateRepository struct {
	DB *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{DB: db}
}

// Create inserta el certificado; el índice único de user_id impide dos
// certificados por usuario bajo solicitudes concurrentes.
func (r *CertificateRepository) Create(cert *model.Certificate) error {
	return r.DB.Create(cert).Error
}

func (r *CertificateRepository) FindByUser(userID uint) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.DB.Where("user_id = ?", userID).First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *CertificateRepository) FindByUserWithOwner(userID uint) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.DB.Preload("User").Where("user_id = ?", userID).First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *CertificateRepository) FindByID(id uint) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.DB.Preload("User").First(&cert, id).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *CertificateRepository) FindByCode(code string) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.DB.Preload("User").Where("verification_code = ?", code).First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *CertificateRepository) Update(cert *model.Certificate) error {
	return r.DB.Save(cert).Error
}

// MarkSigned firma el certificado con un compare-and-set sobre signed:
// la transición ocurre exactamente una vez. Devuelve false si ya estaba
// firmado.
func (r *CertificateRepository) MarkSigned(id uint, signatureID string, at time.Time) (bool, error) {
	result := r.DB.Model(&model.Certificate{}).
		Where("id = ? AND signed = ?", id, false).
		Updates(map[string]interface{}{
			"signed":       true,
			"signature_id": signatureID,
			"signed_at":    at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SetPDF registra la ruta del PDF generado y cacheado.
func (r *CertificateRepository) SetPDF(id uint, path string) error {
	return r.DB.Model(&model.Certificate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"pdf_generated": true,
			"pdf_path":      path,
		}).Error
}

// FindPending devuelve los certificados solicitados y aún sin firmar, los
// más antiguos primero, para la cola de firma de la consola de
// administración.
func (r *CertificateRepository) FindPending() ([]model.Certificate, error) {
	var certs []model.Certificate
	err := r.DB.Preload("User").
		Where("signature_requested = ? AND signed = ?", true, false).
		Order("created_at ASC").
		Find(&certs).Error
	return certs, err
}

func (r *CertificateRepository) List(page, limit int) ([]model.Certificate, int64, error) {
	var certs []model.Certificate
	var total int64

	if err := r.DB.Model(&model.Certificate{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.DB.Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&certs).Error
	return certs, total, err
}

func (r *CertificateRepository) CountAll() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Certificate{}).Count(&count).Error
	return count, err
}

func (r *CertificateRepository) CountSigned() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Certificate{}).Where("signed = ?", true).Count(&count).Error
	return count, err
}

func (r *CertificateRepository) DeleteByUser(userID uint) error {
	return r.DB.Unscoped().Where("user_id = ?", userID).Delete(&model.Certificate{}).Error
}
