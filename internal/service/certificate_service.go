package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"formacion_residuos_backend/internal/model"
	"formacion_residuos_backend/internal/repository"
	"formacion_residuos_backend/internal/util"
	"formacion_residuos_backend/pkg/logger"
	"formacion_residuos_backend/pkg/monitoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PublicCertificateView es lo único que ve un verificador anónimo: nombre
// del titular, documento censurado y datos de emisión. Un certificado sin
// firmar no existe a efectos públicos.
type PublicCertificateView struct {
	Valid            bool       `json:"valid"`
	HolderName       string     `json:"holderName"`
	Document         string     `json:"document"`
	ExamScore        float64    `json:"examScore"`
	IssuedAt         time.Time  `json:"issuedAt"`
	SignedAt         *time.Time `json:"signedAt,omitempty"`
	VerificationCode string     `json:"verificationCode"`
}

// CertificateService gestiona el ciclo del certificado: solicitud tras
// aprobar, firma única, PDF bajo demanda y verificación pública por QR.
type CertificateService struct {
	CertRepo *repository.CertificateRepository
	ExamRepo *repository.ExamRepository
	UserRepo *repository.UserRepository
	PDF      *PDFService
	Storage  *StorageService
	Email    *EmailService
}

func NewCertificateService(certRepo *repository.CertificateRepository, examRepo *repository.ExamRepository,
	userRepo *repository.UserRepository, pdf *PDFService, storage *StorageService, email *EmailService) *CertificateService {
	return &CertificateService{
		CertRepo: certRepo,
		ExamRepo: examRepo,
		UserRepo: userRepo,
		PDF:      pdf,
		Storage:  storage,
		Email:    email,
	}
}

// Request solicita el certificado tras aprobar el examen. Es idempotente:
// si ya existe, lo devuelve tal cual. El índice único de user_id impide
// duplicados bajo solicitudes concurrentes.
func (s *CertificateService) Request(ctx context.Context, userID uint) (*model.Certificate, error) {
	if cert, err := s.CertRepo.FindByUser(userID); err == nil {
		return cert, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	passed, err := s.ExamRepo.FindPassedByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNoPassingExam
		}
		return nil, err
	}

	cert := &model.Certificate{
		UserID:             userID,
		ExamScore:          *passed.Score,
		SignatureRequested: true,
	}
	if err := s.CertRepo.Create(cert); err != nil {
		// Carrera con otra solicitud del mismo usuario: quédate con la ganadora
		if strings.Contains(err.Error(), "Duplicate entry") || strings.Contains(err.Error(), "UNIQUE constraint") {
			return s.CertRepo.FindByUser(userID)
		}
		return nil, err
	}
	return cert, nil
}

// Get devuelve el certificado del usuario con sus datos de titular.
func (s *CertificateService) Get(userID uint) (*model.Certificate, error) {
	cert, err := s.CertRepo.FindByUserWithOwner(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCertNotFound
		}
		return nil, err
	}
	return cert, nil
}

// CompleteSignature aplica la firma sobre el certificado. La transición
// ocurre exactamente una vez; reintentos y webhooks duplicados reciben
// conflicto. Tras firmar, el PDF se genera y el titular recibe un aviso;
// ninguno de los dos pasos bloquea la firma si falla.
func (s *CertificateService) CompleteSignature(ctx context.Context, certID uint, signatureID string) (*model.Certificate, error) {
	cert, err := s.CertRepo.FindByID(certID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCertNotFound
		}
		return nil, err
	}

	if signatureID == "" {
		signatureID = uuid.New().String()
	}

	now := time.Now()
	signed, err := s.CertRepo.MarkSigned(cert.ID, signatureID, now)
	if err != nil {
		return nil, err
	}
	if !signed {
		return nil, util.ErrCertAlreadySigned
	}
	monitoring.CertificatesSigned.Inc()

	cert.Signed = true
	cert.SignatureID = signatureID
	cert.SignedAt = &now

	if _, err := s.ensurePDF(ctx, cert); err != nil {
		logger.Log.Error("no se pudo generar el PDF del certificado tras la firma",
			zap.Uint("certificate_id", cert.ID), zap.Error(err))
	}

	if err := s.Email.SendCertificateReady(cert.User.Email, cert.User.Name, cert.VerificationCode); err != nil {
		logger.Log.Error("no se pudo notificar la firma del certificado",
			zap.Uint("certificate_id", cert.ID), zap.Error(err))
	}

	return cert, nil
}

// Download entrega el PDF del certificado firmado del usuario. Si el PDF
// cacheado no está disponible se regenera: el fichero es un artefacto
// derivado, la base de datos es la fuente de verdad.
func (s *CertificateService) Download(ctx context.Context, userID uint) (io.ReadCloser, string, error) {
	cert, err := s.CertRepo.FindByUserWithOwner(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", util.ErrCertNotFound
		}
		return nil, "", err
	}
	if !cert.Signed {
		return nil, "", util.ErrCertNotSigned
	}

	if cert.PDFGenerated && cert.PDFPath != "" {
		if reader, err := s.Storage.Download(ctx, cert.PDFPath); err == nil {
			return reader, s.downloadName(cert), nil
		}
		logger.Log.Warn("PDF cacheado no disponible, regenerando",
			zap.Uint("certificate_id", cert.ID), zap.String("path", cert.PDFPath))
	}

	path, err := s.ensurePDF(ctx, cert)
	if err != nil {
		return nil, "", err
	}
	reader, err := s.Storage.Download(ctx, path)
	if err != nil {
		return nil, "", err
	}
	return reader, s.downloadName(cert), nil
}

func (s *CertificateService) downloadName(cert *model.Certificate) string {
	return fmt.Sprintf("certificado_%s.pdf", cert.User.DNI)
}

// ensurePDF renderiza el PDF, lo sube al almacenamiento y registra la ruta.
func (s *CertificateService) ensurePDF(ctx context.Context, cert *model.Certificate) (string, error) {
	data, err := s.PDF.RenderCertificate(cert)
	if err != nil {
		return "", err
	}

	path := fmt.Sprintf("certificados/%s.pdf", cert.VerificationCode)
	if _, err := s.Storage.UploadBytes(ctx, path, data, "application/pdf"); err != nil {
		return "", err
	}
	if err := s.CertRepo.SetPDF(cert.ID, path); err != nil {
		return "", err
	}

	cert.PDFGenerated = true
	cert.PDFPath = path
	return path, nil
}

// VerifyPublic resuelve un código de verificación para un tercero anónimo.
// Código inexistente y certificado sin firmar responden igual: no
// encontrado. El documento del titular viaja censurado.
func (s *CertificateService) VerifyPublic(code string) (*PublicCertificateView, error) {
	cert, err := s.CertRepo.FindByCode(strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCertNotFound
		}
		return nil, err
	}
	if !cert.Signed {
		return nil, util.ErrCertNotFound
	}

	return &PublicCertificateView{
		Valid:            true,
		HolderName:       cert.User.FullName(),
		Document:         util.MaskDNI(cert.User.DNI),
		ExamScore:        cert.ExamScore,
		IssuedAt:         cert.IssuedAt,
		SignedAt:         cert.SignedAt,
		VerificationCode: cert.VerificationCode,
	}, nil
}
