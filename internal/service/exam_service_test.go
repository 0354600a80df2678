package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"formacion_residuos_backend/internal/model"
	"formacion_residuos_backend/internal/util"
)

func answer(questionID uint, idx int) *AnswerRequest {
	return &AnswerRequest{QuestionID: questionID, OptionIdx: &idx}
}

func TestExamStartRequiresCompletedTraining(t *testing.T) {
	db := newTestDB(t)
	svc := newExamService(db)
	user := createTestUser(t, db, 1)
	seedModules(t, db, 3)
	seedQuestions(t, db, 25)

	_, err := svc.Start(context.Background(), user.ID)
	if !errors.Is(err, util.ErrTrainingIncomplete) {
		t.Fatalf("expected ErrTrainingIncomplete, got %v", err)
	}
}

func TestExamStartWithoutEnoughQuestions(t *testing.T) {
	db := newTestDB(t)
	svc := newExamService(db)
	user := createTestUser(t, db, 1)
	seedModules(t, db, 1)
	completeTraining(t, db, user.ID)
	seedQuestions(t, db, 10) // la configuración por defecto pide 20

	_, err := svc.Start(context.Background(), user.ID)
	if !errors.Is(err, util.ErrNotEnoughQuestions) {
		t.Fatalf("expected ErrNotEnoughQuestions, got %v", err)
	}
}

func TestExamFullPassFlow(t *testing.T) {
	db := newTestDB(t)
	svc := newExamService(db)
	ctx := context.Background()
	user := createTestUser(t, db, 1)
	seedModules(t, db, 2)
	completeTraining(t, db, user.ID)
	seedQuestions(t, db, 25)

	view, err := svc.Start(ctx, user.ID)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if len(view.Questions) != model.DefaultNumQuestions {
		t.Fatalf("expected %d questions, got %d", model.DefaultNumQuestions, len(view.Questions))
	}
	if view.AttemptNum != 1 {
		t.Fatalf("expected attempt 1, got %d", view.AttemptNum)
	}
	if view.RemainingSeconds <= 0 {
		t.Fatalf("expected positive remaining time, got %d", view.RemainingSeconds)
	}

	// Un segundo intento con uno abierto debe rechazarse, identificando
	// el intento abierto para poder retomarlo
	_, err = svc.Start(ctx, user.ID)
	if !errors.Is(err, util.ErrExamInProgress) {
		t.Fatalf("expected ErrExamInProgress, got %v", err)
	}
	var inProgress *ExamInProgressError
	if !errors.As(err, &inProgress) {
		t.Fatalf("expected ExamInProgressError, got %T", err)
	}
	if inProgress.ExamID != view.ID {
		t.Fatalf("expected open exam %s in error, got %s", view.ID, inProgress.ExamID)
	}

	// La opción correcta de todas las preguntas sembradas es la 0
	for _, q := range view.Questions {
		if err := svc.SaveAnswer(ctx, user.ID, view.ID, answer(q.ID, 0)); err != nil {
			t.Fatalf("SaveAnswer(%d) returned error: %v", q.ID, err)
		}
	}

	result, err := svc.Finish(ctx, user.ID, view.ID)
	if err != nil {
		t.Fatalf("Finish returned error: %v", err)
	}
	if result.Score != 100 {
		t.Fatalf("expected score 100, got %f", result.Score)
	}
	if !result.Passed {
		t.Fatal("expected passed exam")
	}
	if len(result.Detail) != model.DefaultNumQuestions {
		t.Fatalf("expected %d corrected questions, got %d", model.DefaultNumQuestions, len(result.Detail))
	}

	// Tras aprobar no se pueden iniciar más intentos
	if _, err := svc.Start(ctx, user.ID); !errors.Is(err, util.ErrAlreadyPassed) {
		t.Fatalf("expected ErrAlreadyPassed, got %v", err)
	}
}

func TestExamScoreThreshold(t *testing.T) {
	// 14 aciertos de 20 son exactamente el 70%: aprobado. 13 de 20 no llegan.
	cases := []struct {
		name    string
		correct int
		want    bool
	}{
		{"just above threshold", 14, true},
		{"just below threshold", 13, false},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := newTestDB(t)
			svc := newExamService(db)
			ctx := context.Background()
			user := createTestUser(t, db, i+1)
			seedModules(t, db, 1)
			completeTraining(t, db, user.ID)
			seedQuestions(t, db, 20)

			view, err := svc.Start(ctx, user.ID)
			if err != nil {
				t.Fatalf("Start returned error: %v", err)
			}

			for j, q := range view.Questions {
				if j >= tc.correct {
					break
				}
				if err := svc.SaveAnswer(ctx, user.ID, view.ID, answer(q.ID, 0)); err != nil {
					t.Fatalf("SaveAnswer returned error: %v", err)
				}
			}

			result, err := svc.Finish(ctx, user.ID, view.ID)
			if err != nil {
				t.Fatalf("Finish returned error: %v", err)
			}

			wantScore := 100 * float64(tc.correct) / 20
			if result.Score != wantScore {
				t.Fatalf("expected score %f, got %f", wantScore, result.Score)
			}
			if result.Passed != tc.want {
				t.Fatalf("expected passed=%v with score %f", tc.want, result.Score)
			}
		})
	}
}

func TestExamAttemptLimit(t *testing.T) {
	db := newTestDB(t)
	svc := newExamService(db)
	ctx := context.Background()
	user := createTestUser(t, db, 1)
	seedModules(t, db, 1)
	completeTraining(t, db, user.ID)
	seedQuestions(t, db, 20)

	for attempt := 1; attempt <= model.DefaultMaxAttempts; attempt++ {
		view, err := svc.Start(ctx, user.ID)
		if err != nil {
			t.Fatalf("Start attempt %d returned error: %v", attempt, err)
		}
		if view.AttemptNum != attempt {
			t.Fatalf("expected attempt %d, got %d", attempt, view.AttemptNum)
		}
		// Entregar sin responder: suspenso seguro
		if _, err := svc.Finish(ctx, user.ID, view.ID); err != nil {
			t.Fatalf("Finish attempt %d returned error: %v", attempt, err)
		}
	}

	if _, err := svc.Start(ctx, user.ID); !errors.Is(err, util.ErrNoAttemptsLeft) {
		t.Fatalf("expected ErrNoAttemptsLeft, got %v", err)
	}
}

func TestExamAutoFinalizeOnRead(t *testing.T) {
	db := newTestDB(t)
	svc := newExamService(db)
	ctx := context.Background()
	user := createTestUser(t, db, 1)
	seedModules(t, db, 1)
	completeTraining(t, db, user.ID)
	seedQuestions(t, db, 20)

	view, err := svc.Start(ctx, user.ID)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	// Responde unas cuantas antes de que venza el tiempo
	for _, q := range view.Questions[:5] {
		if err := svc.SaveAnswer(ctx, user.ID, view.ID, answer(q.ID, 0)); err != nil {
			t.Fatalf("SaveAnswer returned error: %v", err)
		}
	}

	// Retrasa el comienzo más allá del tiempo límite
	expired := time.Now().Add(-time.Duration(model.DefaultTimeLimitMin+1) * time.Minute)
	if err := db.Model(&model.Exam{}).Where("id = ?", view.ID).Update("started_at", expired).Error; err != nil {
		t.Fatalf("backdating exam: %v", err)
	}

	got, err := svc.Get(ctx, user.ID, view.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !got.Finished {
		t.Fatal("expected exam finalized on read after expiry")
	}
	if got.Score == nil || *got.Score != 25 {
		t.Fatalf("expected score 25 from 5/20 saved answers, got %v", got.Score)
	}
	if got.Passed == nil || *got.Passed {
		t.Fatal("expected failed exam")
	}

	// Las respuestas posteriores al cierre se rechazan
	err = svc.SaveAnswer(ctx, user.ID, view.ID, answer(view.Questions[6].ID, 0))
	if !errors.Is(err, util.ErrExamFinished) {
		t.Fatalf("expected ErrExamFinished, got %v", err)
	}

	// La finalización manual tras el cierre también
	if _, err := svc.Finish(ctx, user.ID, view.ID); !errors.Is(err, util.ErrExamFinished) {
		t.Fatalf("expected ErrExamFinished, got %v", err)
	}
}

func TestExamAnswerValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newExamService(db)
	ctx := context.Background()
	user := createTestUser(t, db, 1)
	seedModules(t, db, 1)
	completeTraining(t, db, user.ID)
	seedQuestions(t, db, 20)

	view, err := svc.Start(ctx, user.ID)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	// Pregunta ajena al intento
	err = svc.SaveAnswer(ctx, user.ID, view.ID, answer(99999, 0))
	if !errors.Is(err, util.ErrQuestionNotInExam) {
		t.Fatalf("expected ErrQuestionNotInExam, got %v", err)
	}

	// Índice de opción fuera de rango
	err = svc.SaveAnswer(ctx, user.ID, view.ID, answer(view.Questions[0].ID, model.NumOptions))
	if !errors.Is(err, util.ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}

	// Cambiar una respuesta guardada es válido mientras el intento esté abierto
	if err := svc.SaveAnswer(ctx, user.ID, view.ID, answer(view.Questions[0].ID, 1)); err != nil {
		t.Fatalf("SaveAnswer returned error: %v", err)
	}
	if err := svc.SaveAnswer(ctx, user.ID, view.ID, answer(view.Questions[0].ID, 0)); err != nil {
		t.Fatalf("overwriting answer returned error: %v", err)
	}

	// El resultado no está disponible con el intento abierto
	if _, err := svc.Result(ctx, user.ID, view.ID); !errors.Is(err, util.ErrExamNotFinished) {
		t.Fatalf("expected ErrExamNotFinished, got %v", err)
	}
}

func TestExamStatus(t *testing.T) {
	db := newTestDB(t)
	svc := newExamService(db)
	ctx := context.Background()
	user := createTestUser(t, db, 1)
	seedModules(t, db, 1)
	seedQuestions(t, db, 20)

	status, err := svc.Status(ctx, user.ID)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if status.TrainingCompleted {
		t.Fatal("expected training incomplete")
	}
	if status.AttemptsLeft != model.DefaultMaxAttempts {
		t.Fatalf("expected %d attempts left, got %d", model.DefaultMaxAttempts, status.AttemptsLeft)
	}

	completeTraining(t, db, user.ID)
	view, err := svc.Start(ctx, user.ID)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	status, err = svc.Status(ctx, user.ID)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if !status.TrainingCompleted {
		t.Fatal("expected training completed")
	}
	if status.OpenExamID == nil || *status.OpenExamID != view.ID {
		t.Fatalf("expected open exam %s, got %v", view.ID, status.OpenExamID)
	}
	if status.AttemptsUsed != 1 || status.AttemptsLeft != model.DefaultMaxAttempts-1 {
		t.Fatalf("unexpected attempt counters: used=%d left=%d", status.AttemptsUsed, status.AttemptsLeft)
	}
}
