package controller

import (
	"errors"

	"formacion_residuos_backend/internal/service"
	"formacion_residuos_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// Register godoc
// @Summary Alta de ciudadano
// @Description Registra a un ciudadano con DNI/NIE, email y domicilio. Solo se admite un registro por vivienda.
// @Tags autenticación
// @Accept json
// @Produce json
// @Param body body service.RegisterRequest true "Datos de registro"
// @Success 201 {object} util.Response "Alta creada, pendiente de verificar email"
// @Failure 400 {object} util.Response "Datos inválidos o documento incorrecto"
// @Failure 409 {object} util.Response "DNI, email o vivienda ya registrados"
// @Router /api/auth/registro [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req service.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.AuthService.Register(&req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidDocument),
			errors.Is(err, util.ErrInvalidPostalCode),
			errors.Is(err, util.ErrInvalidPhone):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrDNIRegistered),
			errors.Is(err, util.ErrEmailRegistered),
			errors.Is(err, util.ErrAddressRegistered):
			util.Conflict(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{"id": user.ID, "email": user.Email})
}

type verifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

// VerifyEmail godoc
// @Summary Verificación del email
// @Description Consume el token enviado por email y activa la cuenta
// @Tags autenticación
// @Accept json
// @Produce json
// @Param body body verifyEmailRequest true "Token de verificación"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "Token inválido o caducado"
// @Router /api/auth/verificar-email [post]
func (c *AuthController) VerifyEmail(ctx *gin.Context) {
	var req verifyEmailRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AuthService.VerifyEmail(req.Token); err != nil {
		switch {
		case errors.Is(err, util.ErrAlreadyVerified):
			util.Conflict(ctx, err.Error())
		case errors.Is(err, util.ErrInvalidToken):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"verified": true})
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResendVerification godoc
// @Summary Reenvío del email de verificación
// @Tags autenticación
// @Accept json
// @Produce json
// @Param body body emailRequest true "Email de la cuenta"
// @Success 200 {object} util.Response
// @Router /api/auth/reenviar-verificacion [post]
func (c *AuthController) ResendVerification(ctx *gin.Context) {
	var req emailRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AuthService.ResendVerification(req.Email); err != nil {
		switch {
		case errors.Is(err, util.ErrUserNotFound):
			util.NotFound(ctx, err.Error())
		case errors.Is(err, util.ErrAlreadyVerified):
			util.Conflict(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, nil)
}

// Login godoc
// @Summary Inicio de sesión
// @Description Autentica con email y contraseña; requiere email verificado
// @Tags autenticación
// @Accept json
// @Produce json
// @Param body body service.LoginRequest true "Credenciales"
// @Success 200 {object} util.Response{data=service.TokenPair}
// @Failure 401 {object} util.Response "Credenciales incorrectas"
// @Failure 403 {object} util.Response "Email sin verificar"
// @Router /api/auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req service.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	pair, err := c.AuthService.Login(&req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidCredentials):
			util.Error(ctx, 401, err.Error())
		case errors.Is(err, util.ErrEmailNotVerified):
			util.Forbidden(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Refresh godoc
// @Summary Refresco de sesión
// @Description Rota el refresh token y emite un par nuevo; el antiguo queda revocado
// @Tags autenticación
// @Accept json
// @Produce json
// @Param body body refreshRequest true "Refresh token vigente"
// @Success 200 {object} util.Response{data=service.TokenPair}
// @Failure 401 {object} util.Response "Token inválido, caducado o ya usado"
// @Router /api/auth/refresh [post]
func (c *AuthController) Refresh(ctx *gin.Context) {
	var req refreshRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	pair, err := c.AuthService.Refresh(req.RefreshToken)
	if err != nil {
		if errors.Is(err, util.ErrInvalidToken) {
			util.Error(ctx, 401, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, pair)
}

// Logout godoc
// @Summary Cierre de sesión
// @Tags autenticación
// @Accept json
// @Produce json
// @Param body body refreshRequest true "Refresh token a revocar"
// @Success 200 {object} util.Response
// @Router /api/auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	var req refreshRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AuthService.Logout(req.RefreshToken); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// RecoverPassword godoc
// @Summary Solicitud de recuperación de contraseña
// @Description Envía el enlace de restablecimiento si la cuenta existe. La respuesta no revela si el email está registrado.
// @Tags autenticación
// @Accept json
// @Produce json
// @Param body body emailRequest true "Email de la cuenta"
// @Success 200 {object} util.Response
// @Router /api/auth/recuperar [post]
func (c *AuthController) RecoverPassword(ctx *gin.Context) {
	var req emailRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AuthService.RequestPasswordReset(req.Email); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

type resetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// ResetPassword godoc
// @Summary Restablecimiento de contraseña
// @Description Consume el token de recuperación, cambia la contraseña y revoca las sesiones abiertas
// @Tags autenticación
// @Accept json
// @Produce json
// @Param body body resetPasswordRequest true "Token y nueva contraseña"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "Token inválido o caducado"
// @Router /api/auth/restablecer [post]
func (c *AuthController) ResetPassword(ctx *gin.Context) {
	var req resetPasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AuthService.ResetPassword(req.Token, req.Password); err != nil {
		if errors.Is(err, util.ErrInvalidToken) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// Profile godoc
// @Summary Perfil del ciudadano autenticado
// @Tags autenticación
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.User}
// @Router /api/auth/perfil [get]
func (c *AuthController) Profile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	user, err := c.AuthService.Profile(claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, user)
}
