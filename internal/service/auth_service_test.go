package service

import (
	"errors"
	"testing"

	"formacion_residuos_backend/internal/model"
	"formacion_residuos_backend/internal/repository"
	"formacion_residuos_backend/internal/util"

	"gorm.io/gorm"
)

func newAuthService(db *gorm.DB) *AuthService {
	cfg := testConfig()
	return NewAuthService(
		repository.NewUserRepository(db),
		repository.NewAdminRepository(db),
		repository.NewRefreshTokenRepository(db),
		NewEmailService(cfg),
		cfg,
	)
}

func registerRequest(dni, email, street string) *RegisterRequest {
	return &RegisterRequest{
		DNI:        dni,
		Name:       "Amparo",
		Surname:    "García López",
		Email:      email,
		Password:   "contraseña-segura",
		Address:    street,
		Number:     "12",
		Floor:      "3",
		Door:       "B",
		PostalCode: "30001",
		Locality:   "Villanueva del Segura",
	}
}

func storedToken(t *testing.T, db *gorm.DB, userID uint) string {
	t.Helper()

	var user model.User
	if err := db.First(&user, userID).Error; err != nil {
		t.Fatalf("loading user: %v", err)
	}
	if user.VerificationToken == nil {
		t.Fatal("expected pending token on user")
	}
	return *user.VerificationToken
}

func TestRegisterValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	// Letra de control incorrecta
	_, err := svc.Register(registerRequest("12345678A", "a@example.com", "Calle Mayor"))
	if !errors.Is(err, util.ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument for bad check letter, got %v", err)
	}

	// DNI válido en minúsculas y con espacios se normaliza
	user, err := svc.Register(registerRequest(" 12345678z ", "a@example.com", "Calle Mayor"))
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.DNI != "12345678Z" {
		t.Fatalf("expected normalized DNI, got %q", user.DNI)
	}
	if user.Verified {
		t.Fatal("expected unverified account on registration")
	}

	// NIE válido
	if _, err := svc.Register(registerRequest("X0000000T", "nie@example.com", "Avenida Libertad")); err != nil {
		t.Fatalf("Register NIE returned error: %v", err)
	}

	// Código postal malformado
	req := registerRequest("00000000T", "cp@example.com", "Plaza del Sol")
	req.PostalCode = "300"
	if _, err := svc.Register(req); !errors.Is(err, util.ErrInvalidPostalCode) {
		t.Fatalf("expected ErrInvalidPostalCode, got %v", err)
	}

	// Teléfono malformado; el campo es opcional pero si llega se valida
	req = registerRequest("00000000T", "tel@example.com", "Plaza del Sol")
	req.Phone = "12345"
	if _, err := svc.Register(req); !errors.Is(err, util.ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}

	// Teléfono válido
	req = registerRequest("00000000T", "tel@example.com", "Plaza del Sol")
	req.Phone = "612 345 678"
	if _, err := svc.Register(req); err != nil {
		t.Fatalf("Register with valid phone returned error: %v", err)
	}
}

func TestRegisterOnePerDwelling(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	if _, err := svc.Register(registerRequest("12345678Z", "primera@example.com", "Calle Mayor")); err != nil {
		t.Fatalf("first Register returned error: %v", err)
	}

	// Misma vivienda escrita distinto: "C/ Mayor" frente a "Calle Mayor"
	_, err := svc.Register(registerRequest("00000000T", "segunda@example.com", "C/ Mayor"))
	if !errors.Is(err, util.ErrAddressRegistered) {
		t.Fatalf("expected ErrAddressRegistered, got %v", err)
	}

	// Mismo DNI en otra vivienda
	req := registerRequest("12345678Z", "tercera@example.com", "Plaza del Sol")
	req.Number = "1"
	if _, err := svc.Register(req); !errors.Is(err, util.ErrDNIRegistered) {
		t.Fatalf("expected ErrDNIRegistered, got %v", err)
	}

	// Mismo email
	req = registerRequest("00000000T", "primera@example.com", "Plaza del Sol")
	req.Number = "2"
	if _, err := svc.Register(req); !errors.Is(err, util.ErrEmailRegistered) {
		t.Fatalf("expected ErrEmailRegistered, got %v", err)
	}
}

func TestEmailVerificationAndLogin(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	user, err := svc.Register(registerRequest("12345678Z", "amparo@example.com", "Calle Mayor"))
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	login := &LoginRequest{Email: "amparo@example.com", Password: "contraseña-segura"}

	// Sin verificar no hay sesión
	if _, err := svc.Login(login); !errors.Is(err, util.ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}

	token := storedToken(t, db, user.ID)
	if err := svc.VerifyEmail(token); err != nil {
		t.Fatalf("VerifyEmail returned error: %v", err)
	}

	// El token es de un solo uso
	if err := svc.VerifyEmail(token); err == nil {
		t.Fatal("expected error reusing verification token")
	}

	pair, err := svc.Login(login)
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected token pair")
	}

	// Contraseña incorrecta
	bad := &LoginRequest{Email: "amparo@example.com", Password: "otra-cosa"}
	if _, err := svc.Login(bad); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRefreshTokenRotation(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	user, err := svc.Register(registerRequest("12345678Z", "amparo@example.com", "Calle Mayor"))
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if err := svc.VerifyEmail(storedToken(t, db, user.ID)); err != nil {
		t.Fatalf("VerifyEmail returned error: %v", err)
	}

	pair, err := svc.Login(&LoginRequest{Email: "amparo@example.com", Password: "contraseña-segura"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	rotated, err := svc.Refresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("expected a new refresh token after rotation")
	}

	// El token antiguo quedó consumido
	if _, err := svc.Refresh(pair.RefreshToken); !errors.Is(err, util.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken reusing rotated token, got %v", err)
	}

	// Logout revoca el vigente
	if err := svc.Logout(rotated.RefreshToken); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if _, err := svc.Refresh(rotated.RefreshToken); !errors.Is(err, util.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after logout, got %v", err)
	}
}

func TestPasswordReset(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthService(db)

	user, err := svc.Register(registerRequest("12345678Z", "amparo@example.com", "Calle Mayor"))
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if err := svc.VerifyEmail(storedToken(t, db, user.ID)); err != nil {
		t.Fatalf("VerifyEmail returned error: %v", err)
	}

	// Con un email desconocido no se revela nada
	if err := svc.RequestPasswordReset("desconocida@example.com"); err != nil {
		t.Fatalf("expected silent success for unknown email, got %v", err)
	}

	if err := svc.RequestPasswordReset("amparo@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset returned error: %v", err)
	}

	token := storedToken(t, db, user.ID)

	// Un token de recuperación no sirve para verificar email
	if err := svc.VerifyEmail(token); err == nil {
		t.Fatal("expected type mismatch error using reset token for verification")
	}

	if err := svc.ResetPassword(token, "nueva-contraseña"); err != nil {
		t.Fatalf("ResetPassword returned error: %v", err)
	}

	// La contraseña antigua deja de valer; la nueva funciona
	if _, err := svc.Login(&LoginRequest{Email: "amparo@example.com", Password: "contraseña-segura"}); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials with old password, got %v", err)
	}
	if _, err := svc.Login(&LoginRequest{Email: "amparo@example.com", Password: "nueva-contraseña"}); err != nil {
		t.Fatalf("Login with new password returned error: %v", err)
	}

	// El token de recuperación es de un solo uso
	if err := svc.ResetPassword(token, "otra-más"); !errors.Is(err, util.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken reusing reset token, got %v", err)
	}
}
