package controller

import (
	"errors"
	"strconv"

	"formacion_residuos_backend/internal/model"
	"formacion_residuos_backend/internal/service"
	"formacion_residuos_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AdminController struct {
	AdminService *service.AdminService
	AuthService  *service.AuthService
	CertService  *service.CertificateService
}

func NewAdminController(adminService *service.AdminService, authService *service.AuthService,
	certService *service.CertificateService) *AdminController {
	return &AdminController{
		AdminService: adminService,
		AuthService:  authService,
		CertService:  certService,
	}
}

func pagination(ctx *gin.Context) (int, int) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// Login godoc
// @Summary Inicio de sesión de administrador
// @Tags administración
// @Accept json
// @Produce json
// @Param body body service.LoginRequest true "Credenciales"
// @Success 200 {object} util.Response{data=service.TokenPair}
// @Failure 401 {object} util.Response "Credenciales incorrectas"
// @Router /api/admin/login [post]
func (c *AdminController) Login(ctx *gin.Context) {
	var req service.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	pair, err := c.AuthService.AdminLogin(&req)
	if err != nil {
		if errors.Is(err, util.ErrInvalidCredentials) {
			util.Error(ctx, 401, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, pair)
}

// Stats godoc
// @Summary Indicadores del panel
// @Description Censo de usuarios, tasas de aprobado por intento, certificados y altas por día
// @Tags administración
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.DashboardStats}
// @Router /api/admin/estadisticas [get]
func (c *AdminController) Stats(ctx *gin.Context) {
	stats, err := c.AdminService.Stats(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// ListUsers godoc
// @Summary Listado de ciudadanos
// @Tags administración
// @Produce json
// @Security BearerAuth
// @Param page query int false "Página"
// @Param limit query int false "Tamaño de página"
// @Param search query string false "Filtro por nombre, email o DNI"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/usuarios [get]
func (c *AdminController) ListUsers(ctx *gin.Context) {
	page, limit := pagination(ctx)

	users, total, err := c.AdminService.ListUsers(page, limit, ctx.Query("search"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: users, Total: total, Page: page, Limit: limit})
}

// GetUser godoc
// @Summary Ficha de un ciudadano
// @Description Datos personales, progreso formativo, intentos de examen y certificado
// @Tags administración
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID del usuario"
// @Success 200 {object} util.Response{data=service.UserDetail}
// @Failure 404 {object} util.Response "Usuario no encontrado"
// @Router /api/admin/usuarios/{id} [get]
func (c *AdminController) GetUser(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	detail, err := c.AdminService.GetUser(id)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, detail)
}

// DeleteUser godoc
// @Summary Baja de un ciudadano
// @Description Elimina al usuario con su progreso, exámenes, certificado y sesiones
// @Tags administración
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID del usuario"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "Usuario no encontrado"
// @Router /api/admin/usuarios/{id} [delete]
func (c *AdminController) DeleteUser(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.AdminService.DeleteUser(id); err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// ExportUsers godoc
// @Summary Exportación del censo en CSV
// @Tags administración
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} binary
// @Router /api/admin/usuarios/exportar [get]
func (c *AdminController) ExportUsers(ctx *gin.Context) {
	ctx.Header("Content-Disposition", `attachment; filename="usuarios.csv"`)
	ctx.Header("Content-Type", "text/csv; charset=utf-8")
	ctx.Status(200)

	if err := c.AdminService.ExportUsersCSV(ctx.Writer); err != nil {
		util.LogInternalError(ctx, err)
	}
}

// ListModules godoc
// @Summary Listado completo de módulos, activos e inactivos
// @Tags administración
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Module}
// @Router /api/admin/modulos [get]
func (c *AdminController) ListModules(ctx *gin.Context) {
	modules, err := c.AdminService.ListModules()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, modules)
}

// CreateModule godoc
// @Summary Alta de módulo formativo
// @Tags administración
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.ModuleRequest true "Datos del módulo"
// @Success 201 {object} util.Response{data=model.Module}
// @Failure 409 {object} util.Response "Orden ya ocupado"
// @Router /api/admin/modulos [post]
func (c *AdminController) CreateModule(ctx *gin.Context) {
	var req service.ModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	m, err := c.AdminService.CreateModule(&req)
	if err != nil {
		util.Conflict(ctx, "no se pudo crear el módulo; comprueba que el orden no esté ocupado")
		return
	}
	util.Created(ctx, m)
}

// UpdateModule godoc
// @Summary Edición de módulo formativo
// @Tags administración
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID del módulo"
// @Param body body service.ModuleRequest true "Datos del módulo"
// @Success 200 {object} util.Response{data=model.Module}
// @Failure 404 {object} util.Response "Módulo no encontrado"
// @Router /api/admin/modulos/{id} [put]
func (c *AdminController) UpdateModule(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	var req service.ModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	m, err := c.AdminService.UpdateModule(id, &req)
	if err != nil {
		if errors.Is(err, util.ErrModuleNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, m)
}

// DeleteModule godoc
// @Summary Baja de módulo formativo
// @Tags administración
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID del módulo"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "Módulo no encontrado"
// @Router /api/admin/modulos/{id} [delete]
func (c *AdminController) DeleteModule(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.AdminService.DeleteModule(id); err != nil {
		if errors.Is(err, util.ErrModuleNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// UploadVideo godoc
// @Summary Subida de vídeo de módulo
// @Description Guarda el vídeo y devuelve sus metadatos con el tiempo de visualización propuesto
// @Tags administración
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param video formData file true "Fichero de vídeo"
// @Success 200 {object} util.Response{data=service.VideoUploadResult}
// @Router /api/admin/modulos/video [post]
func (c *AdminController) UploadVideo(ctx *gin.Context) {
	file, err := ctx.FormFile("video")
	if err != nil {
		util.BadRequest(ctx, "falta el fichero de vídeo")
		return
	}

	result, err := c.AdminService.UploadModuleVideo(ctx.Request.Context(), file)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// ListQuestions godoc
// @Summary Banco de preguntas paginado
// @Tags administración
// @Produce json
// @Security BearerAuth
// @Param page query int false "Página"
// @Param limit query int false "Tamaño de página"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/preguntas [get]
func (c *AdminController) ListQuestions(ctx *gin.Context) {
	page, limit := pagination(ctx)

	questions, total, err := c.AdminService.ListQuestions(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: questions, Total: total, Page: page, Limit: limit})
}

// CreateQuestion godoc
// @Summary Alta de pregunta
// @Tags administración
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.QuestionRequest true "Pregunta con cuatro opciones"
// @Success 201 {object} util.Response{data=model.Question}
// @Router /api/admin/preguntas [post]
func (c *AdminController) CreateQuestion(ctx *gin.Context) {
	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q, err := c.AdminService.CreateQuestion(&req)
	if err != nil {
		if errors.Is(err, util.ErrInvalidOption) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, q)
}

// ImportQuestions godoc
// @Summary Importación de preguntas en lote
// @Description Da de alta varias preguntas a la vez; si alguna es inválida no se importa ninguna
// @Tags administración
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body []service.QuestionRequest true "Lote de preguntas"
// @Success 201 {object} util.Response
// @Router /api/admin/preguntas/importar [post]
func (c *AdminController) ImportQuestions(ctx *gin.Context) {
	var reqs []service.QuestionRequest
	if err := ctx.ShouldBindJSON(&reqs); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if len(reqs) == 0 {
		util.BadRequest(ctx, "el lote está vacío")
		return
	}

	questions, err := c.AdminService.ImportQuestions(reqs)
	if err != nil {
		if errors.Is(err, util.ErrInvalidOption) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, gin.H{"imported": len(questions)})
}

// UpdateQuestion godoc
// @Summary Edición de pregunta
// @Tags administración
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID de la pregunta"
// @Param body body service.QuestionRequest true "Pregunta con cuatro opciones"
// @Success 200 {object} util.Response{data=model.Question}
// @Failure 404 {object} util.Response "Pregunta no encontrada"
// @Router /api/admin/preguntas/{id} [put]
func (c *AdminController) UpdateQuestion(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q, err := c.AdminService.UpdateQuestion(id, &req)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			util.NotFound(ctx, "pregunta no encontrada")
		case errors.Is(err, util.ErrInvalidOption):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, q)
}

// DeleteQuestion godoc
// @Summary Baja de pregunta
// @Description Los intentos ya creados conservan sus preguntas congeladas
// @Tags administración
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID de la pregunta"
// @Success 200 {object} util.Response
// @Router /api/admin/preguntas/{id} [delete]
func (c *AdminController) DeleteQuestion(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.AdminService.DeleteQuestion(id); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// GetExamConfig godoc
// @Summary Configuración vigente del examen
// @Tags administración
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.ExamConfig}
// @Router /api/admin/examen/configuracion [get]
func (c *AdminController) GetExamConfig(ctx *gin.Context) {
	cfg := c.AdminService.GetExamConfig(ctx.Request.Context())
	util.Success(ctx, cfg)
}

// UpdateExamConfig godoc
// @Summary Cambio de la configuración del examen
// @Description Solo afecta a intentos que comiencen a partir de ahora
// @Tags administración
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.ExamConfig true "Nueva configuración"
// @Success 200 {object} util.Response{data=model.ExamConfig}
// @Router /api/admin/examen/configuracion [put]
func (c *AdminController) UpdateExamConfig(ctx *gin.Context) {
	var cfg model.ExamConfig
	if err := ctx.ShouldBindJSON(&cfg); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AdminService.UpdateExamConfig(ctx.Request.Context(), &cfg); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, cfg)
}

// ListCertificates godoc
// @Summary Listado de certificados
// @Tags administración
// @Produce json
// @Security BearerAuth
// @Param page query int false "Página"
// @Param limit query int false "Tamaño de página"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/certificados [get]
func (c *AdminController) ListCertificates(ctx *gin.Context) {
	page, limit := pagination(ctx)

	certs, total, err := c.AdminService.ListCertificates(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: certs, Total: total, Page: page, Limit: limit})
}

// PendingCertificates godoc
// @Summary Cola de certificados pendientes de firma
// @Tags administración
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Certificate}
// @Router /api/admin/certificados/pendientes [get]
func (c *AdminController) PendingCertificates(ctx *gin.Context) {
	certs, err := c.AdminService.PendingCertificates()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, certs)
}

type signRequest struct {
	SignatureID string `json:"signatureId"`
}

// SignCertificate godoc
// @Summary Firma de un certificado
// @Description Aplica la firma exactamente una vez; reintentos reciben conflicto. Tras la firma se genera el PDF y se avisa al titular.
// @Tags administración
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID del certificado"
// @Param body body signRequest false "Referencia externa de firma (opcional)"
// @Success 200 {object} util.Response{data=model.Certificate}
// @Failure 404 {object} util.Response "Certificado no encontrado"
// @Failure 409 {object} util.Response "Ya firmado"
// @Router /api/admin/certificados/{id}/firmar [post]
func (c *AdminController) SignCertificate(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	var req signRequest
	ctx.ShouldBindJSON(&req)

	cert, err := c.CertService.CompleteSignature(ctx.Request.Context(), id, req.SignatureID)
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
