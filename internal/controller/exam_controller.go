package controller

import (
	"errors"

	"formacion_residuos_backend/internal/service"
	"formacion_residuos_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExamController struct {
	ExamService *service.ExamService
}

func NewExamController(examService *service.ExamService) *ExamController {
	return &ExamController{ExamService: examService}
}

// Status godoc
// @Summary Situación del usuario frente al examen
// @Description Elegibilidad, intentos consumidos y restantes, y examen abierto si lo hay
// @Tags examen
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.ExamStatusView}
// @Router /api/examen/estado [get]
func (c *ExamController) Status(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	status, err := c.ExamService.Status(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, status)
}

// Start godoc
// @Summary Comenzar un intento de examen
// @Description Crea un intento con preguntas aleatorias del banco; exige la formación completa y cupo de intentos
// @Tags examen
// @Produce json
// @Security BearerAuth
// @Success 201 {object} util.Response{data=service.ExamView}
// @Failure 403 {object} util.Response "Formación sin completar"
// @Failure 409 {object} util.Response "Examen en curso (incluye su ID para retomarlo), ya aprobado o sin intentos"
// @Router /api/examen/comenzar [post]
func (c *ExamController) Start(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	view, err := c.ExamService.Start(ctx.Request.Context(), claims.UserID)
	if err != nil {
		var inProgress *service.ExamInProgressError
		switch {
		case errors.Is(err, util.ErrTrainingIncomplete):
			util.Forbidden(ctx, err.Error())
		case errors.As(err, &inProgress):
			// El cliente recibe el ID del intento abierto para retomarlo
			util.ConflictData(ctx, err.Error(), gin.H{"examenId": inProgress.ExamID})
		case errors.Is(err, util.ErrAlreadyPassed),
			errors.Is(err, util.ErrNoAttemptsLeft):
			util.Conflict(ctx, err.Error())
		case errors.Is(err, util.ErrNotEnoughQuestions):
			util.Error(ctx, 503, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, view)
}

// Get godoc
// @Summary Estado de un intento
// @Description Devuelve preguntas, respuestas guardadas y tiempo restante. Si el tiempo ha vencido, el intento se finaliza en esta misma lectura.
// @Tags examen
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del intento"
// @Success 200 {object} util.Response{data=service.ExamView}
// @Failure 404 {object} util.Response "Intento no encontrado"
// @Router /api/examen/{id} [get]
func (c *ExamController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	view, err := c.ExamService.Get(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrExamNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, view)
}

// SaveAnswer godoc
// @Summary Responder una pregunta
// @Description Registra o cambia la respuesta mientras el intento siga abierto
// @Tags examen
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del intento"
// @Param body body service.AnswerRequest true "Pregunta y opción elegida"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "Opción fuera de rango o pregunta ajena al intento"
// @Failure 409 {object} util.Response "Intento ya finalizado"
// @Router /api/examen/{id}/responder [put]
func (c *ExamController) SaveAnswer(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req service.AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	err := c.ExamService.SaveAnswer(ctx.Request.Context(), claims.UserID, ctx.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrExamNotFound):
			util.NotFound(ctx, err.Error())
		case errors.Is(err, util.ErrExamFinished):
			util.Conflict(ctx, err.Error())
		case errors.Is(err, util.ErrInvalidOption), errors.Is(err, util.ErrQuestionNotInExam):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"saved": true})
}

// Finish godoc
// @Summary Entregar el intento
// @Description Cierra el intento, calcula la nota y devuelve la corrección completa
// @Tags examen
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del intento"
// @Success 200 {object} util.Response{data=service.ExamResultView}
// @Failure 409 {object} util.Response "Intento ya finalizado"
// @Router /api/examen/{id}/finalizar [post]
func (c *ExamController) Finish(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	result, err := c.ExamService.Finish(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrExamNotFound):
			util.NotFound(ctx, err.Error())
		case errors.Is(err, util.ErrExamFinished):
			util.Conflict(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, result)
}

// Result godoc
// @Summary Corrección de un intento cerrado
// @Description Nota, respuestas correctas y explicaciones de un intento finalizado
// @Tags examen
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del intento"
// @Success 200 {object} util.Response{data=service.ExamResultView}
// @Failure 409 {object} util.Response "Intento aún abierto"
// @Router /api/examen/{id}/resultado [get]
func (c *ExamController) Result(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	result, err := c.ExamService.Result(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrExamNotFound):
			util.NotFound(ctx, err.Error())
		case errors.Is(err, util.ErrExamNotFinished):
			util.Conflict(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, result)
}

// History godoc
// @Summary Historial de intentos del usuario
// @Tags examen
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Exam}
// @Router /api/examen/historial [get]
func (c *ExamController) History(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	exams, err := c.ExamService.History(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, exams)
}
