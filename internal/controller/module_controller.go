package controller

import (
	"errors"
	"strconv"

	"formacion_residuos_backend/internal/service"
	"formacion_residuos_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ModuleController struct {
	ModuleService *service.ModuleService
}

func NewModuleController(moduleService *service.ModuleService) *ModuleController {
	return &ModuleController{ModuleService: moduleService}
}

func parseUintParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "identificador no válido")
		return 0, false
	}
	return uint(id), true
}

// List godoc
// @Summary Itinerario formativo
// @Description Devuelve los módulos en orden con el estado de cada uno para el usuario
// @Tags formación
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.ModuleStatus}
// @Router /api/modulos [get]
func (c *ModuleController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	modules, err := c.ModuleService.List(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, modules)
}

// Get godoc
// @Summary Contenido de un módulo
// @Description Entrega el contenido si el módulo está desbloqueado; el primer acceso inicia el progreso
// @Tags formación
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID del módulo"
// @Success 200 {object} util.Response{data=service.ModuleDetail}
// @Failure 403 {object} util.Response "Módulo anterior sin completar"
// @Failure 404 {object} util.Response "Módulo no encontrado"
// @Router /api/modulos/{id} [get]
func (c *ModuleController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	detail, err := c.ModuleService.Get(claims.UserID, id)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrModuleNotFound):
			util.NotFound(ctx, err.Error())
		case errors.Is(err, util.ErrPreviousIncomplete):
			util.Forbidden(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, detail)
}

// ReportProgress godoc
// @Summary Registro de tiempo de visualización
// @Description Informa del tiempo acumulado de visualización; el valor solo puede crecer
// @Tags formación
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID del módulo"
// @Param body body service.ProgressReport true "Segundos acumulados"
// @Success 200 {object} util.Response{data=service.ModuleStatus}
// @Failure 404 {object} util.Response "Módulo o progreso no encontrados"
// @Router /api/modulos/{id}/progreso [put]
func (c *ModuleController) ReportProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	var req service.ProgressReport
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	status, err := c.ModuleService.ReportProgress(claims.UserID, id, req.SecondsSeen)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrModuleNotFound), errors.Is(err, util.ErrNoProgress):
			util.NotFound(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, status)
}

// Complete godoc
// @Summary Completar un módulo
// @Description Marca el módulo como superado si se alcanzó el tiempo mínimo de visualización
// @Tags formación
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID del módulo"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response "Tiempo de visualización insuficiente"
// @Failure 404 {object} util.Response "Módulo o progreso no encontrados"
// @Router /api/modulos/{id}/completar [post]
func (c *ModuleController) Complete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.ModuleService.Complete(claims.UserID, id); err != nil {
		switch {
		case errors.Is(err, util.ErrModuleNotFound), errors.Is(err, util.ErrNoProgress):
			util.NotFound(ctx, err.Error())
		case errors.Is(err, util.ErrInsufficientViewing):
			util.Forbidden(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"completed": true})
}
