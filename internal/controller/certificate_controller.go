package controller

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	"formacion_residuos_backend/internal/config"
	"formacion_residuos_backend/internal/service"
	"formacion_residuos_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CertificateController struct {
	CertService *service.CertificateService
	Config      *config.Config
}

func NewCertificateController(certService *service.CertificateService, cfg *config.Config) *CertificateController {
	return &CertificateController{CertService: certService, Config: cfg}
}

// Request godoc
// @Summary Solicitar el certificado
// @Description Crea el certificado tras aprobar el examen y lo deja pendiente de firma. Repetir la solicitud devuelve el existente.
// @Tags certificado
// @Produce json
// @Security BearerAuth
// @Success 201 {object} util.Response{data=model.Certificate}
// @Failure 403 {object} util.Response "Examen sin aprobar"
// @Router /api/certificado/solicitar [post]
func (c *CertificateController) Request(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	cert, err := c.CertService.Request(ctx.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrNoPassingExam) {
			util.Forbidden(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, cert)
}

// Get godoc
// @Summary Certificado del usuario
// @Tags certificado
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.Certificate}
// @Failure 404 {object} util.Response "Sin certificado"
// @Router /api/certificado [get]
func (c *CertificateController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	cert, err := c.CertService.Get(claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrCertNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, cert)
}

// Download godoc
// @Summary Descarga del certificado en PDF
// @Description Entrega el PDF firmado con el QR de verificación; se regenera si el fichero cacheado no está disponible
// @Tags certificado
// @Produce application/pdf
// @Security BearerAuth
// @Success 200 {file} binary
// @Failure 404 {object} util.Response "Sin certificado"
// @Failure 409 {object} util.Response "Certificado sin firmar todavía"
// @Router /api/certificado/descargar [get]
func (c *CertificateController) Download(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	reader, name, err := c.CertService.Download(ctx.Request.Context(), claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCertNotFound):
			util.NotFound(ctx, err.Error())
		case errors.Is(err, util.ErrCertNotSigned):
			util.Conflict(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	defer reader.Close()

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	ctx.Header("Content-Type", "application/pdf")
	ctx.Status(200)
	io.Copy(ctx.Writer, reader)
}

type webhookRequest struct {
	CertificateID uint   `json:"certificateId" binding:"required"`
	SignatureID   string `json:"signatureId" binding:"required"`
}

// Webhook godoc
// @Summary Callback del proveedor de firma
// @Description Marca el certificado como firmado cuando el proveedor externo completa la firma. Con secreto configurado exige la cabecera X-Firma-Secreto; sin él queda abierto (solo desarrollo).
// @Tags certificado
// @Accept json
// @Produce json
// @Param request body webhookRequest true "Identificadores del certificado y de la firma"
// @Success 200 {object} util.Response{data=model.Certificate}
// @Failure 401 {object} util.Response "Secreto incorrecto"
// @Failure 404 {object} util.Response "Certificado no encontrado"
// @Failure 409 {object} util.Response "Certificado ya firmado"
// @Router /api/certificado/webhook [post]
func (c *CertificateController) Webhook(ctx *gin.Context) {
	if secret := c.Config.App.SignatureWebhookSecret; secret != "" {
		got := ctx.GetHeader("X-Firma-Secreto")
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			util.Unauthorized(ctx)
			return
		}
	}

	var req webhookRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	cert, err := c.CertService.CompleteSignature(ctx.Request.Context(), req.CertificateID, req.SignatureID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCertNotFound):
			util.NotFound(ctx, err.Error())
		case errors.Is(err, util.ErrCertAlreadySigned):
			util.Conflict(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, cert)
}

// VerifyPublic godoc
// @Summary Verificación pública de un certificado
// @Description Endpoint anónimo usado por el QR. Un código inexistente o un certificado sin firmar responden 404; los datos del titular viajan censurados.
// @Tags certificado
// @Produce json
// @Param code path string true "Código de verificación"
// @Success 200 {object} util.Response{data=service.PublicCertificateView}
// @Failure 404 {object} util.Response "Certificado no encontrado"
// @Router /api/certificado/verificar/{code} [get]
func (c *CertificateController) VerifyPublic(ctx *gin.Context) {
	view, err := c.CertService.VerifyPublic(ctx.Param("code"))
	if err != nil {
		if errors.Is(err, util.ErrCertNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, view)
}
