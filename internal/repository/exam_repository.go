package repository

import (
	"time"

	"formacion_residuos_backend/internal/model"

	"gorm.io/gorm"
)

type ExamRepository struct {
	DB *gorm.DB
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{DB: db}
}

func (r *ExamRepository) Create(exam *model.Exam) error {
	return r.DB.Create(exam).Error
}

// CreateInTx ejecuta fn dentro de una transacción; el servicio la usa para
// serializar la comprobación de intentos y la inserción del nuevo intento.
// El índice único (user_id, attempt_num) cierra la carrera restante entre
// instancias.
func (r *ExamRepository) CreateInTx(fn func(tx *gorm.DB) error) error {
	return r.DB.Transaction(fn)
}

func (r *ExamRepository) FindByIDForUser(id string, userID uint) (*model.Exam, error) {
	var exam model.Exam
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&exam).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *ExamRepository) FindByUser(userID uint) ([]model.Exam, error) {
	var exams []model.Exam
	err := r.DB.Where("user_id = ?", userID).Order("attempt_num DESC").Find(&exams).Error
	return exams, err
}

func (r *ExamRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Exam{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// FindOpenByUser devuelve el intento sin finalizar del usuario, si existe.
func (r *ExamRepository) FindOpenByUser(userID uint) (*model.Exam, error) {
	var exam model.Exam
	err := r.DB.Where("user_id = ? AND finished_at IS NULL", userID).First(&exam).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

// FindPassedByUser devuelve el intento aprobado más reciente del usuario.
func (r *ExamRepository) FindPassedByUser(userID uint) (*model.Exam, error) {
	var exam model.Exam
	err := r.DB.Where("user_id = ? AND passed = ?", userID, true).
		Order("finished_at DESC").First(&exam).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

// UpdateAnswers guarda el mapa de respuestas solo si el intento sigue
// abierto; devuelve gorm.ErrRecordNotFound si ya estaba finalizado.
func (r *ExamRepository) UpdateAnswers(id string, answersJSON string) error {
	result := r.DB.Model(&model.Exam{}).
		Where("id = ? AND finished_at IS NULL", id).
		Update("answers", answersJSON)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Finalize cierra el intento con un compare-and-set sobre finished_at:
// solo una de varias finalizaciones concurrentes gana. Devuelve false si
// otro proceso lo finalizó antes.
func (r *ExamRepository) Finalize(id string, finishedAt time.Time, score float64, passed bool) (bool, error) {
	result := r.DB.Model(&model.Exam{}).
		Where("id = ? AND finished_at IS NULL", id).
		Updates(map[string]interface{}{
			"finished_at": finishedAt,
			"score":       score,
			"passed":      passed,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ExamRepository) CountAll() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Exam{}).Count(&count).Error
	return count, err
}

func (r *ExamRepository) CountPassed() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Exam{}).Where("passed = ?", true).Count(&count).Error
	return count, err
}

// FindFinished devuelve los intentos cerrados, para la tasa de aprobados
// por número de intento.
func (r *ExamRepository) FindFinished() ([]model.Exam, error) {
	var exams []model.Exam
	err := r.DB.Where("finished_at IS NOT NULL").Find(&exams).Error
	return exams, err
}

func (r *ExamRepository) DeleteByUser(userID uint) error {
	return r.DB.Unscoped().Where("user_id = ?", userID).Delete(&model.Exam{}).Error
}
