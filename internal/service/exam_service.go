package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"formacion_residuos_backend/internal/model"
	"formacion_residuos_backend/internal/repository"
	"formacion_residuos_backend/internal/util"
	"formacion_residuos_backend/pkg/monitoring"

	"gorm.io/gorm"
)

// ExamQuestionView es una pregunta tal y como la ve el examinado: sin
// índice correcto ni explicación.
type ExamQuestionView struct {
	ID        uint     `json:"id"`
	Statement string   `json:"statement"`
	Options   []string `json:"options"`
}

// ExamView es el estado de un intento. Para intentos abiertos incluye las
// preguntas y el tiempo restante; para intentos cerrados, la nota.
type ExamView struct {
	ID               string             `json:"id"`
	AttemptNum       int                `json:"attemptNum"`
	StartedAt        time.Time          `json:"startedAt"`
	Deadline         time.Time          `json:"deadline"`
	RemainingSeconds int                `json:"remainingSeconds"`
	Finished         bool               `json:"finished"`
	FinishedAt       *time.Time         `json:"finishedAt,omitempty"`
	Score            *float64           `json:"score,omitempty"`
	Passed           *bool              `json:"passed,omitempty"`
	Questions        []ExamQuestionView `json:"questions,omitempty"`
	Answers          map[uint]int       `json:"answers,omitempty"`
}

// QuestionResult es la corrección de una pregunta en un intento cerrado.
type QuestionResult struct {
	ID          uint     `json:"id"`
	Statement   string   `json:"statement"`
	Options     []string `json:"options"`
	CorrectIdx  int      `json:"correctIdx"`
	GivenIdx    *int     `json:"givenIdx,omitempty"`
	Correct     bool     `json:"correct"`
	Explanation string   `json:"explanation,omitempty"`
}

// ExamResultView es la corrección completa de un intento cerrado.
type ExamResultView struct {
	ID         string           `json:"id"`
	AttemptNum int              `json:"attemptNum"`
	Score      float64          `json:"score"`
	Passed     bool             `json:"passed"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt time.Time        `json:"finishedAt"`
	Detail     []QuestionResult `json:"detail"`
}

// ExamStatusView resume la situación del usuario frente al examen.
type ExamStatusView struct {
	TrainingCompleted bool    `json:"trainingCompleted"`
	AttemptsUsed      int     `json:"attemptsUsed"`
	MaxAttempts       int     `json:"maxAttempts"`
	AttemptsLeft      int     `json:"attemptsLeft"`
	Passed            bool    `json:"passed"`
	OpenExamID        *string `json:"openExamId,omitempty"`
	NumQuestions      int     `json:"numQuestions"`
	PassScore         float64 `json:"passScore"`
	TimeLimitMin      int     `json:"timeLimitMin"`
}

type AnswerRequest struct {
	QuestionID uint `json:"questionId" binding:"required"`
	OptionIdx  *int `json:"optionIdx" binding:"required"`
}

// ExamInProgressError señala que ya existe un intento abierto e identifica
// cuál, para que el cliente lo retome en lugar de empezar de cero.
type ExamInProgressError struct {
	ExamID string
}

func (e *ExamInProgressError) Error() string { return util.ErrExamInProgress.Error() }

func (e *ExamInProgressError) Unwrap() error { return util.ErrExamInProgress }

// ExamService implementa el ciclo de vida del examen: elegibilidad,
// comienzo, respuestas, entrega y corrección. Un intento cuyo tiempo vence
// se finaliza automáticamente en la primera lectura posterior, con las
// respuestas guardadas hasta ese momento.
type ExamService struct {
	ExamRepo      *repository.ExamRepository
	QuestionRepo  *repository.QuestionRepository
	ModuleService *ModuleService
	ConfigService *ExamConfigService
}

func NewExamService(examRepo *repository.ExamRepository, questionRepo *repository.QuestionRepository,
	moduleService *ModuleService, configService *ExamConfigService) *ExamService {
	return &ExamService{
		ExamRepo:      examRepo,
		QuestionRepo:  questionRepo,
		ModuleService: moduleService,
		ConfigService: configService,
	}
}

// Status resume la elegibilidad y el historial del usuario.
func (s *ExamService) Status(ctx context.Context, userID uint) (*ExamStatusView, error) {
	cfg := s.ConfigService.Get(ctx)

	completed, err := s.ModuleService.AllCompleted(userID)
	if err != nil {
		return nil, err
	}

	count, err := s.ExamRepo.CountByUser(userID)
	if err != nil {
		return nil, err
	}

	passed := false
	if _, err := s.ExamRepo.FindPassedByUser(userID); err == nil {
		passed = true
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	view := &ExamStatusView{
		TrainingCompleted: completed,
		AttemptsUsed:      int(count),
		MaxAttempts:       cfg.MaxAttempts,
		AttemptsLeft:      cfg.MaxAttempts - int(count),
		Passed:            passed,
		NumQuestions:      cfg.NumQuestions,
		PassScore:         cfg.PassScore,
		TimeLimitMin:      cfg.TimeLimitMin,
	}
	if view.AttemptsLeft < 0 {
		view.AttemptsLeft = 0
	}

	if open, err := s.ExamRepo.FindOpenByUser(userID); err == nil {
		if !open.Expired(time.Now()) {
			id := open.ID
			view.OpenExamID = &id
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return view, nil
}

// Start crea un intento nuevo. La comprobación de intento abierto, de
// aprobado previo y del cupo de intentos se hace dentro de una transacción;
// el índice único (user_id, attempt_num) cierra la carrera entre réplicas.
func (s *ExamService) Start(ctx context.Context, userID uint) (*ExamView, error) {
	completed, err := s.ModuleService.AllCompleted(userID)
	if err != nil {
		return nil, err
	}
	if !completed {
		return nil, util.ErrTrainingIncomplete
	}

	cfg := s.ConfigService.Get(ctx)

	ids, err := s.QuestionRepo.FindActiveIDs()
	if err != nil {
		return nil, err
	}
	if len(ids) < cfg.NumQuestions {
		return nil, util.ErrNotEnoughQuestions
	}
	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	selected := ids[:cfg.NumQuestions]

	exam := &model.Exam{
		UserID:       userID,
		TimeLimitMin: cfg.TimeLimitMin,
		PassScore:    cfg.PassScore,
		StartedAt:    time.Now(),
	}
	if err := exam.SetQuestionIDs(selected); err != nil {
		return nil, err
	}

	err = s.ExamRepo.CreateInTx(func(tx *gorm.DB) error {
		var open model.Exam
		err := tx.Where("user_id = ? AND finished_at IS NULL", userID).First(&open).Error
		if err == nil {
			if !open.Expired(time.Now()) {
				return &ExamInProgressError{ExamID: open.ID}
			}
			// El intento abierto ya venció: ciérralo aquí mismo para
			// liberar el cupo
			if _, err := s.finalize(&open, open.Deadline(), true); err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var passedCount int64
		if err := tx.Model(&model.Exam{}).
			Where("user_id = ? AND passed = ?", userID, true).
			Count(&passedCount).Error; err != nil {
			return err
		}
		if passedCount > 0 {
			return util.ErrAlreadyPassed
		}

		var count int64
		if err := tx.Model(&model.Exam{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if int(count) >= cfg.MaxAttempts {
			return util.ErrNoAttemptsLeft
		}

		exam.AttemptNum = int(count) + 1
		return tx.Create(exam).Error
	})
	if err != nil {
		return nil, err
	}

	monitoring.ExamsStarted.Inc()
	return s.buildView(exam)
}

// Get devuelve el estado de un intento. Si el tiempo del intento ha
// vencido, esta lectura lo finaliza con las respuestas guardadas.
func (s *ExamService) Get(ctx context.Context, userID uint, examID string) (*ExamView, error) {
	exam, err := s.findForUser(userID, examID)
	if err != nil {
		return nil, err
	}

	if exam.Expired(time.Now()) {
		exam, err = s.finalize(exam, exam.Deadline(), true)
		if err != nil {
			return nil, err
		}
	}

	return s.buildView(exam)
}

// SaveAnswer registra o cambia la respuesta de una pregunta del intento.
// Un intento vencido se finaliza y la respuesta se rechaza.
func (s *ExamService) SaveAnswer(ctx context.Context, userID uint, examID string, req *AnswerRequest) error {
	exam, err := s.findForUser(userID, examID)
	if err != nil {
		return err
	}
	if exam.Finished() {
		return util.ErrExamFinished
	}
	if exam.Expired(time.Now()) {
		if _, err := s.finalize(exam, exam.Deadline(), true); err != nil {
			return err
		}
		return util.ErrExamFinished
	}

	if req.OptionIdx == nil || *req.OptionIdx < 0 || *req.OptionIdx >= model.NumOptions {
		return util.ErrInvalidOption
	}

	ids, err := exam.QuestionIDList()
	if err != nil {
		return err
	}
	found := false
	for _, id := range ids {
		if id == req.QuestionID {
			found = true
			break
		}
	}
	if !found {
		return util.ErrQuestionNotInExam
	}

	answers, err := exam.AnswerMap()
	if err != nil {
		return err
	}
	answers[req.QuestionID] = *req.OptionIdx
	if err := exam.SetAnswers(answers); err != nil {
		return err
	}

	// La condición finished_at IS NULL evita pisar un intento que otro
	// proceso acaba de cerrar
	if err := s.ExamRepo.UpdateAnswers(exam.ID, exam.Answers); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrExamFinished
		}
		return err
	}
	return nil
}

// Finish entrega el intento voluntariamente y devuelve la corrección.
func (s *ExamService) Finish(ctx context.Context, userID uint, examID string) (*ExamResultView, error) {
	exam, err := s.findForUser(userID, examID)
	if err != nil {
		return nil, err
	}
	if exam.Finished() {
		return nil, util.ErrExamFinished
	}

	now := time.Now()
	expired := exam.Expired(now)
	finishedAt := now
	if expired {
		finishedAt = exam.Deadline()
	}

	exam, err = s.finalize(exam, finishedAt, expired)
	if err != nil {
		return nil, err
	}
	return s.buildResult(exam)
}

// Result devuelve la corrección completa de un intento cerrado, incluidas
// las respuestas correctas y sus explicaciones.
func (s *ExamService) Result(ctx context.Context, userID uint, examID string) (*ExamResultView, error) {
	exam, err := s.findForUser(userID, examID)
	if err != nil {
		return nil, err
	}

	if exam.Expired(time.Now()) {
		exam, err = s.finalize(exam, exam.Deadline(), true)
		if err != nil {
			return nil, err
		}
	}
	if !exam.Finished() {
		return nil, util.ErrExamNotFinished
	}

	return s.buildResult(exam)
}

// History devuelve los intentos del usuario, el más reciente primero.
func (s *ExamService) History(userID uint) ([]model.Exam, error) {
	return s.ExamRepo.FindByUser(userID)
}

func (s *ExamService) findForUser(userID uint, examID string) (*model.Exam, error) {
	exam, err := s.ExamRepo.FindByIDForUser(examID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}
	return exam, nil
}

// finalize corrige y cierra el intento. El compare-and-set del repositorio
// garantiza que solo una finalización concurrente gana; si esta pierde, se
// relee el resultado del ganador.
func (s *ExamService) finalize(exam *model.Exam, finishedAt time.Time, expired bool) (*model.Exam, error) {
	score, passed, err := s.grade(exam)
	if err != nil {
		return nil, err
	}

	won, err := s.ExamRepo.Finalize(exam.ID, finishedAt, score, passed)
	if err != nil {
		return nil, err
	}
	if !won {
		return s.ExamRepo.FindByIDForUser(exam.ID, exam.UserID)
	}

	outcome := "failed"
	switch {
	case passed:
		outcome = "passed"
	case expired:
		outcome = "expired"
	}
	monitoring.ExamsFinished.WithLabelValues(outcome).Inc()

	exam.FinishedAt = &finishedAt
	exam.Score = &score
	exam.Passed = &passed
	return exam, nil
}

// grade calcula la nota: porcentaje de aciertos sobre el total de preguntas
// del intento, sin redondear. Las preguntas sin responder cuentan como
// falladas.
func (s *ExamService) grade(exam *model.Exam) (float64, bool, error) {
	ids, err := exam.QuestionIDList()
	if err != nil {
		return 0, false, err
	}
	answers, err := exam.AnswerMap()
	if err != nil {
		return 0, false, err
	}

	questions, err := s.QuestionRepo.FindByIDs(ids)
	if err != nil {
		return 0, false, err
	}
	correctByID := make(map[uint]int, len(questions))
	for _, q := range questions {
		correctByID[q.ID] = q.CorrectIdx
	}

	correct := 0
	for _, id := range ids {
		if given, ok := answers[id]; ok && given == correctByID[id] {
			correct++
		}
	}

	score := 100 * float64(correct) / float64(len(ids))
	return score, score >= exam.PassScore, nil
}

func (s *ExamService) buildView(exam *model.Exam) (*ExamView, error) {
	view := &ExamView{
		ID:         exam.ID,
		AttemptNum: exam.AttemptNum,
		StartedAt:  exam.StartedAt,
		Deadline:   exam.Deadline(),
		Finished:   exam.Finished(),
		FinishedAt: exam.FinishedAt,
		Score:      exam.Score,
		Passed:     exam.Passed,
	}
	if exam.Finished() {
		return view, nil
	}

	remaining := int(time.Until(exam.Deadline()).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	view.RemainingSeconds = remaining

	ids, err := exam.QuestionIDList()
	if err != nil {
		return nil, err
	}
	questions, err := s.QuestionRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	view.Questions = make([]ExamQuestionView, 0, len(ids))
	for _, id := range ids {
		q := byID[id]
		if q == nil {
			continue
		}
		opts, err := q.OptionList()
		if err != nil {
			return nil, err
		}
		view.Questions = append(view.Questions, ExamQuestionView{
			ID:        q.ID,
			Statement: q.Statement,
			Options:   opts,
		})
	}

	view.Answers, err = exam.AnswerMap()
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *ExamService) buildResult(exam *model.Exam) (*ExamResultView, error) {
	if !exam.Finished() {
		return nil, util.ErrExamNotFinished
	}

	ids, err := exam.QuestionIDList()
	if err != nil {
		return nil, err
	}
	answers, err := exam.AnswerMap()
	if err != nil {
		return nil, err
	}
	questions, err := s.QuestionRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	detail := make([]QuestionResult, 0, len(ids))
	for _, id := range ids {
		q := byID[id]
		if q == nil {
			continue
		}
		opts, err := q.OptionList()
		if err != nil {
			return nil, err
		}
		r := QuestionResult{
			ID:          q.ID,
			Statement:   q.Statement,
			Options:     opts,
			CorrectIdx:  q.CorrectIdx,
			Explanation: q.Explanation,
		}
		if given, ok := answers[id]; ok {
			g := given
			r.GivenIdx = &g
			r.Correct = given == q.CorrectIdx
		}
		detail = append(detail, r)
	}

	return &ExamResultView{
		ID:         exam.ID,
		AttemptNum: exam.AttemptNum,
		Score:      *exam.Score,
		Passed:     *exam.Passed,
		StartedAt:  exam.StartedAt,
		FinishedAt: *exam.FinishedAt,
		Detail:     detail,
	}, nil
}
