package service

import (
	"errors"
	"strings"
	"time"

	"formacion_residuos_backend/internal/config"
	"formacion_residuos_backend/internal/model"
	"formacion_residuos_backend/internal/repository"
	"formacion_residuos_backend/internal/util"
	"formacion_residuos_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	DNI        string `json:"dni" binding:"required"`
	Name       string `json:"name" binding:"required,max=100"`
	Surname    string `json:"surname" binding:"required,max=150"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone"`
	Password   string `json:"password" binding:"required,min=8"`
	Address    string `json:"address" binding:"required"`
	Number     string `json:"number" binding:"required"`
	Floor      string `json:"floor"`
	Door       string `json:"door"`
	PostalCode string `json:"postalCode" binding:"required"`
	Locality   string `json:"locality"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenPair es la respuesta de login y de refresco.
type TokenPair struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *model.User  `json:"user,omitempty"`
	Admin        *model.Admin `json:"admin,omitempty"`
}

// AuthService cubre registro, verificación de email, sesiones y
// recuperación de contraseña, tanto de ciudadanos como de administradores.
type AuthService struct {
	UserRepo    *repository.UserRepository
	AdminRepo   *repository.AdminRepository
	RefreshRepo *repository.RefreshTokenRepository
	Email       *EmailService
	Config      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, adminRepo *repository.AdminRepository,
	refreshRepo *repository.RefreshTokenRepository, email *EmailService, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo:    userRepo,
		AdminRepo:   adminRepo,
		RefreshRepo: refreshRepo,
		Email:       email,
		Config:      cfg,
	}
}

// Register da de alta a un ciudadano. La unicidad real de DNI, email y
// vivienda la imponen los índices; las consultas previas solo afinan el
// mensaje devuelto.
func (s *AuthService) Register(req *RegisterRequest) (*model.User, error) {
	doc := util.NormalizeDocument(req.DNI)
	if !util.ValidateDocument(doc) {
		return nil, util.ErrInvalidDocument
	}
	if !util.ValidatePostalCode(req.PostalCode) {
		return nil, util.ErrInvalidPostalCode
	}
	if !util.ValidatePhone(req.Phone) {
		return nil, util.ErrInvalidPhone
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	addressHash := util.AddressFingerprint(req.Address, req.Number, req.PostalCode, req.Floor, req.Door)

	if _, err := s.UserRepo.FindByDNI(doc); err == nil {
		return nil, util.ErrDNIRegistered
	}
	if _, err := s.UserRepo.FindByEmail(email); err == nil {
		return nil, util.ErrEmailRegistered
	}
	if _, err := s.UserRepo.FindByAddressHash(addressHash); err == nil {
		return nil, util.ErrAddressRegistered
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		DNI:         doc,
		Name:        strings.TrimSpace(req.Name),
		Surname:     strings.TrimSpace(req.Surname),
		Email:       email,
		Phone:       strings.TrimSpace(req.Phone),
		Password:    string(hashed),
		Address:     strings.TrimSpace(req.Address),
		Number:      strings.TrimSpace(req.Number),
		Floor:       strings.TrimSpace(req.Floor),
		Door:        strings.TrimSpace(req.Door),
		PostalCode:  strings.TrimSpace(req.PostalCode),
		Locality:    strings.TrimSpace(req.Locality),
		AddressHash: addressHash,
	}

	if err := s.UserRepo.Create(user); err != nil {
		return nil, mapDuplicateError(err)
	}

	if err := s.issueVerification(user); err != nil {
		// El alta ya está hecha; el usuario puede pedir reenvío
		logger.Log.Error("no se pudo enviar el email de verificación",
			zap.Uint("user_id", user.ID), zap.Error(err))
	}

	return user, nil
}

// mapDuplicateError traduce la violación de índice único a un error de
// dominio según la columna implicada.
func mapDuplicateError(err error) error {
	msg := err.Error()
	if !strings.Contains(msg, "Duplicate entry") && !strings.Contains(msg, "UNIQUE constraint") {
		return err
	}
	switch {
	case strings.Contains(msg, "dni"):
		return util.ErrDNIRegistered
	case strings.Contains(msg, "email"):
		return util.ErrEmailRegistered
	case strings.Contains(msg, "address_hash"):
		return util.ErrAddressRegistered
	}
	return util.ErrDNIRegistered
}

func (s *AuthService) issueVerification(user *model.User) error {
	token, err := util.GeneratePurposeToken(user.ID, util.TokenEmailVerification,
		s.Config.JWT.Secret, s.Config.JWT.VerifyExpire)
	if err != nil {
		return err
	}
	if err := s.UserRepo.SetVerificationToken(user.ID, &token); err != nil {
		return err
	}
	return s.Email.SendVerification(user.Email, user.Name, token)
}

// VerifyEmail consume el token de verificación. El token debe ser válido,
// del tipo correcto y ser el último emitido: la búsqueda por token
// pendiente descarta de un golpe los ya consumidos o sustituidos.
func (s *AuthService) VerifyEmail(token string) error {
	claims, err := util.ParsePurposeToken(token, util.TokenEmailVerification, s.Config.JWT.Secret)
	if err != nil {
		return util.ErrInvalidToken
	}

	user, err := s.UserRepo.FindByVerificationToken(token)
	if err != nil || user.ID != claims.UserID {
		return util.ErrInvalidToken
	}
	if user.Verified {
		return util.ErrAlreadyVerified
	}

	user.Verified = true
	user.VerificationToken = nil
	return s.UserRepo.Update(user)
}

// ResendVerification emite un token nuevo, invalidando el anterior.
func (s *AuthService) ResendVerification(email string) error {
	user, err := s.UserRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return util.ErrUserNotFound
	}
	if user.Verified {
		return util.ErrAlreadyVerified
	}
	return s.issueVerification(user)
}

// Login autentica a un ciudadano con email verificado y emite el par de
// tokens. El refresh token se persiste para poder revocarlo.
func (s *AuthService) Login(req *LoginRequest) (*TokenPair, error) {
	user, err := s.UserRepo.FindByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, util.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}
	if !user.Verified {
		return nil, util.ErrEmailNotVerified
	}

	pair, err := s.issueTokenPair(user.ID, util.RoleUser)
	if err != nil {
		return nil, err
	}
	pair.User = user
	return pair, nil
}

// AdminLogin autentica a un administrador del ayuntamiento.
func (s *AuthService) AdminLogin(req *LoginRequest) (*TokenPair, error) {
	admin, err := s.AdminRepo.FindByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || !admin.Active {
		return nil, util.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	pair, err := s.issueTokenPair(admin.ID, util.RoleAdmin)
	if err != nil {
		return nil, err
	}
	pair.Admin = admin
	return pair, nil
}

func (s *AuthService) issueTokenPair(id uint, role string) (*TokenPair, error) {
	access, err := util.GenerateToken(id, role, s.Config.JWT.Secret, s.Config.JWT.AccessExpire)
	if err != nil {
		return nil, err
	}
	refresh, err := util.GenerateToken(id, role, s.Config.JWT.RefreshSecret, s.Config.JWT.RefreshExpire)
	if err != nil {
		return nil, err
	}

	err = s.RefreshRepo.Create(&model.RefreshToken{
		Token:     refresh,
		UserID:    id,
		IsAdmin:   role == util.RoleAdmin,
		ExpiresAt: time.Now().Add(s.Config.JWT.RefreshExpire),
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh rota el refresh token: el antiguo se consume y se emite un par
// nuevo. Un token revocado o ya usado no sirve.
func (s *AuthService) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := util.ParseToken(refreshToken, s.Config.JWT.RefreshSecret)
	if err != nil {
		return nil, util.ErrInvalidToken
	}

	stored, err := s.RefreshRepo.FindByToken(refreshToken)
	if err != nil {
		return nil, util.ErrInvalidToken
	}
	if time.Now().After(stored.ExpiresAt) {
		s.RefreshRepo.Delete(refreshToken)
		return nil, util.ErrInvalidToken
	}

	if err := s.RefreshRepo.Delete(refreshToken); err != nil {
		return nil, err
	}
	return s.issueTokenPair(claims.UserID, claims.Role)
}

// Logout revoca el refresh token de la sesión.
func (s *AuthService) Logout(refreshToken string) error {
	return s.RefreshRepo.Delete(refreshToken)
}

// RequestPasswordReset emite el token de recuperación. No revela si el
// email existe: a ojos del cliente siempre termina bien.
func (s *AuthService) RequestPasswordReset(email string) error {
	user, err := s.UserRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	token, err := util.GeneratePurposeToken(user.ID, util.TokenPasswordReset,
		s.Config.JWT.Secret, s.Config.JWT.ResetExpire)
	if err != nil {
		return err
	}
	if err := s.UserRepo.SetVerificationToken(user.ID, &token); err != nil {
		return err
	}
	return s.Email.SendPasswordReset(user.Email, user.Name, token)
}

// ResetPassword consume el token de recuperación, cambia la contraseña y
// revoca todas las sesiones abiertas del usuario.
func (s *AuthService) ResetPassword(token, newPassword string) error {
	claims, err := util.ParsePurposeToken(token, util.TokenPasswordReset, s.Config.JWT.Secret)
	if err != nil {
		return util.ErrInvalidToken
	}

	user, err := s.UserRepo.FindByVerificationToken(token)
	if err != nil || user.ID != claims.UserID {
		return util.ErrInvalidToken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.Password = string(hashed)
	user.VerificationToken = nil
	if err := s.UserRepo.Update(user); err != nil {
		return err
	}

	return s.RefreshRepo.DeleteByUser(user.ID, false)
}

// Profile devuelve los datos del ciudadano autenticado.
func (s *AuthService) Profile(userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}
	return user, nil
}
