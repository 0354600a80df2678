package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"formacion_residuos_backend/internal/model"
	"formacion_residuos_backend/internal/repository"
	"formacion_residuos_backend/internal/util"

	"gorm.io/gorm"
)

func newCertService(t *testing.T, db *gorm.DB) *CertificateService {
	t.Helper()

	cfg := testConfig()
	cfg.Storage.LocalPath = t.TempDir()

	storage, err := NewStorageService(cfg)
	if err != nil {
		t.Fatalf("creating storage service: %v", err)
	}

	return NewCertificateService(
		repository.NewCertificateRepository(db),
		repository.NewExamRepository(db),
		repository.NewUserRepository(db),
		NewPDFService(cfg),
		storage,
		NewEmailService(cfg),
	)
}

func createPassedExam(t *testing.T, db *gorm.DB, userID uint, score float64) *model.Exam {
	t.Helper()

	now := time.Now()
	passed := true
	exam := &model.Exam{
		UserID:       userID,
		AttemptNum:   1,
		QuestionIDs:  "[1,2]",
		TimeLimitMin: 30,
		PassScore:    70,
		StartedAt:    now.Add(-10 * time.Minute),
		FinishedAt:   &now,
		Score:        &score,
		Passed:       &passed,
	}
	if err := db.Create(exam).Error; err != nil {
		t.Fatalf("creating passed exam: %v", err)
	}
	return exam
}

func TestCertificateRequestRequiresPassingExam(t *testing.T) {
	db := newTestDB(t)
	svc := newCertService(t, db)
	user := createTestUser(t, db, 1)

	_, err := svc.Request(context.Background(), user.ID)
	if !errors.Is(err, util.ErrNoPassingExam) {
		t.Fatalf("expected ErrNoPassingExam, got %v", err)
	}
}

func TestCertificateLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := newCertService(t, db)
	ctx := context.Background()
	user := createTestUser(t, db, 1)
	createPassedExam(t, db, user.ID, 85)

	cert, err := svc.Request(ctx, user.ID)
	if err != nil {
		t.Fatalf("Request returned error: %v", err)
	}
	if cert.Signed {
		t.Fatal("expected unsigned certificate on creation")
	}
	if !cert.SignatureRequested {
		t.Fatal("expected signature requested")
	}
	if cert.ExamScore != 85 {
		t.Fatalf("expected score 85 on certificate, got %f", cert.ExamScore)
	}
	if cert.VerificationCode == "" {
		t.Fatal("expected verification code assigned")
	}

	// Repetir la solicitud devuelve el mismo certificado
	again, err := svc.Request(ctx, user.ID)
	if err != nil {
		t.Fatalf("second Request returned error: %v", err)
	}
	if again.ID != cert.ID {
		t.Fatalf("expected idempotent request, got ids %d and %d", cert.ID, again.ID)
	}

	// Sin firmar no existe para la verificación pública
	if _, err := svc.VerifyPublic(cert.VerificationCode); !errors.Is(err, util.ErrCertNotFound) {
		t.Fatalf("expected ErrCertNotFound for unsigned certificate, got %v", err)
	}

	// La descarga tampoco está disponible sin firma
	if _, _, err := svc.Download(ctx, user.ID); !errors.Is(err, util.ErrCertNotSigned) {
		t.Fatalf("expected ErrCertNotSigned, got %v", err)
	}

	signed, err := svc.CompleteSignature(ctx, cert.ID, "firma-externa-1")
	if err != nil {
		t.Fatalf("CompleteSignature returned error: %v", err)
	}
	if !signed.Signed || signed.SignatureID != "firma-externa-1" || signed.SignedAt == nil {
		t.Fatalf("unexpected signed certificate: %+v", signed)
	}

	// La firma ocurre exactamente una vez
	if _, err := svc.CompleteSignature(ctx, cert.ID, "firma-externa-2"); !errors.Is(err, util.ErrCertAlreadySigned) {
		t.Fatalf("expected ErrCertAlreadySigned, got %v", err)
	}

	// Verificación pública con el documento censurado
	view, err := svc.VerifyPublic(cert.VerificationCode)
	if err != nil {
		t.Fatalf("VerifyPublic returned error: %v", err)
	}
	if !view.Valid {
		t.Fatal("expected valid certificate")
	}
	if view.Document == user.DNI {
		t.Fatal("expected masked document in public view")
	}
	if !strings.HasSuffix(user.DNI, view.Document[len(view.Document)-4:]) {
		t.Fatalf("expected mask to keep last characters, got %q", view.Document)
	}
	if !strings.Contains(view.Document, "*") {
		t.Fatalf("expected asterisks in masked document, got %q", view.Document)
	}

	// Descarga del PDF firmado
	reader, name, err := svc.Download(ctx, user.ID)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("reading PDF: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Fatal("expected PDF payload")
	}
	if !strings.HasSuffix(name, ".pdf") {
		t.Fatalf("expected pdf filename, got %q", name)
	}
}

func TestCertificateVerifyUnknownCode(t *testing.T) {
	db := newTestDB(t)
	svc := newCertService(t, db)

	if _, err := svc.VerifyPublic("codigo-inexistente"); !errors.Is(err, util.ErrCertNotFound) {
		t.Fatalf("expected ErrCertNotFound, got %v", err)
	}
}
