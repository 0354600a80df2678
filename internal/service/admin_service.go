package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"formacion_residuos_backend/internal/model"
	"formacion_residuos_backend/internal/repository"
	"formacion_residuos_backend/internal/util"
	"formacion_residuos_backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DashboardStats agrega los indicadores de la consola de administración.
type DashboardStats struct {
	TotalUsers         int64            `json:"totalUsers"`
	VerifiedUsers      int64            `json:"verifiedUsers"`
	TotalExams         int64            `json:"totalExams"`
	PassedExams        int64            `json:"passedExams"`
	PassRate           float64          `json:"passRate"`
	PassRateByAttempt  map[int]float64  `json:"passRateByAttempt"`
	TotalCertificates  int64            `json:"totalCertificates"`
	SignedCertificates int64            `json:"signedCertificates"`
	RegistrationsByDay map[string]int64 `json:"registrationsByDay"`
}

// UserDetail es la ficha completa de un ciudadano para la consola.
type UserDetail struct {
	User        *model.User            `json:"user"`
	Progress    []model.ModuleProgress `json:"progress"`
	Exams       []model.Exam           `json:"exams"`
	Certificate *model.Certificate     `json:"certificate,omitempty"`
}

type ModuleRequest struct {
	Order       int    `json:"order" binding:"required,min=1"`
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description"`
	Content     string `json:"content" binding:"required"`
	VideoURL    string `json:"videoUrl"`
	DurationMin int    `json:"durationMin" binding:"required,min=1"`
	Active      *bool  `json:"active"`
}

type QuestionRequest struct {
	Statement   string   `json:"statement" binding:"required"`
	Options     []string `json:"options" binding:"required,len=4"`
	CorrectIdx  *int     `json:"correctIdx" binding:"required"`
	Explanation string   `json:"explanation"`
	Active      *bool    `json:"active"`
}

// VideoUploadResult devuelve la URL del vídeo subido junto con los
// metadatos extraídos y el tiempo de visualización propuesto.
type VideoUploadResult struct {
	URL              string  `json:"url"`
	DurationSeconds  float64 `json:"durationSeconds"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	SuggestedMinutes int     `json:"suggestedMinutes"`
}

// AdminService agrupa las operaciones de la consola municipal: gestión de
// contenidos, banco de preguntas, configuración del examen, usuarios,
// firma de certificados y estadísticas.
type AdminService struct {
	UserRepo      *repository.UserRepository
	ModuleRepo    *repository.ModuleRepository
	ProgressRepo  *repository.ProgressRepository
	QuestionRepo  *repository.QuestionRepository
	ExamRepo      *repository.ExamRepository
	CertRepo      *repository.CertificateRepository
	RefreshRepo   *repository.RefreshTokenRepository
	ConfigService *ExamConfigService
	Storage       *StorageService
}

func NewAdminService(userRepo *repository.UserRepository, moduleRepo *repository.ModuleRepository,
	progressRepo *repository.ProgressRepository, questionRepo *repository.QuestionRepository,
	examRepo *repository.ExamRepository, certRepo *repository.CertificateRepository,
	refreshRepo *repository.RefreshTokenRepository, configService *ExamConfigService,
	storage *StorageService) *AdminService {
	return &AdminService{
		UserRepo:      userRepo,
		ModuleRepo:    moduleRepo,
		ProgressRepo:  progressRepo,
		QuestionRepo:  questionRepo,
		ExamRepo:      examRepo,
		CertRepo:      certRepo,
		RefreshRepo:   refreshRepo,
		ConfigService: configService,
		Storage:       storage,
	}
}

// Stats calcula los indicadores del panel.
func (s *AdminService) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		PassRateByAttempt:  make(map[int]float64),
		RegistrationsByDay: make(map[string]int64),
	}

	var err error
	if stats.TotalUsers, err = s.UserRepo.CountAll(); err != nil {
		return nil, err
	}
	if stats.VerifiedUsers, err = s.UserRepo.CountVerified(); err != nil {
		return nil, err
	}
	if stats.TotalExams, err = s.ExamRepo.CountAll(); err != nil {
		return nil, err
	}
	if stats.PassedExams, err = s.ExamRepo.CountPassed(); err != nil {
		return nil, err
	}
	if stats.TotalCertificates, err = s.CertRepo.CountAll(); err != nil {
		return nil, err
	}
	if stats.SignedCertificates, err = s.CertRepo.CountSigned(); err != nil {
		return nil, err
	}

	finished, err := s.ExamRepo.FindFinished()
	if err != nil {
		return nil, err
	}
	totalByAttempt := make(map[int]int)
	passedByAttempt := make(map[int]int)
	for _, e := range finished {
		totalByAttempt[e.AttemptNum]++
		if e.Passed != nil && *e.Passed {
			passedByAttempt[e.AttemptNum]++
		}
	}
	for attempt, total := range totalByAttempt {
		stats.PassRateByAttempt[attempt] = 100 * float64(passedByAttempt[attempt]) / float64(total)
	}
	if len(finished) > 0 {
		passed := 0
		for _, e := range finished {
			if e.Passed != nil && *e.Passed {
				passed++
			}
		}
		stats.PassRate = 100 * float64(passed) / float64(len(finished))
	}

	since := time.Now().AddDate(0, 0, -30)
	recent, err := s.UserRepo.FindCreatedSince(since)
	if err != nil {
		return nil, err
	}
	for _, u := range recent {
		day := u.CreatedAt.Format("2006-01-02")
		stats.RegistrationsByDay[day]++
	}

	return stats, nil
}

// --- Usuarios ---

func (s *AdminService) ListUsers(page, limit int, search string) ([]model.User, int64, error) {
	return s.UserRepo.List(page, limit, search)
}

func (s *AdminService) GetUser(id uint) (*UserDetail, error) {
	user, err := s.UserRepo.FindByID(id)
	if err != nil {
		return nil, util.ErrUserNotFound
	}

	progress, err := s.ProgressRepo.FindByUser(id)
	if err != nil {
		return nil, err
	}
	exams, err := s.ExamRepo.FindByUser(id)
	if err != nil {
		return nil, err
	}

	detail := &UserDetail{User: user, Progress: progress, Exams: exams}
	if cert, err := s.CertRepo.FindByUser(id); err == nil {
		detail.Certificate = cert
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return detail, nil
}

// DeleteUser elimina al ciudadano y todo su rastro: progreso, intentos de
// examen, certificado y sesiones.
func (s *AdminService) DeleteUser(id uint) error {
	if _, err := s.UserRepo.FindByID(id); err != nil {
		return util.ErrUserNotFound
	}

	if err := s.ProgressRepo.DeleteByUser(id); err != nil {
		return err
	}
	if err := s.ExamRepo.DeleteByUser(id); err != nil {
		return err
	}
	if err := s.CertRepo.DeleteByUser(id); err != nil {
		return err
	}
	if err := s.RefreshRepo.DeleteByUser(id, false); err != nil {
		return err
	}
	return s.UserRepo.Delete(id)
}

// ExportUsersCSV vuelca el censo de usuarios en CSV.
func (s *AdminService) ExportUsersCSV(w io.Writer) error {
	users, _, err := s.UserRepo.List(1, 100000, "")
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"dni", "nombre", "apellidos", "email", "telefono", "direccion", "cp", "verificado", "alta"}); err != nil {
		return err
	}
	for _, u := range users {
		record := []string{
			u.DNI,
			u.Name,
			u.Surname,
			u.Email,
			u.Phone,
			fmt.Sprintf("%s %s %s %s", u.Address, u.Number, u.Floor, u.Door),
			u.PostalCode,
			strconv.FormatBool(u.Verified),
			u.CreatedAt.Format("2006-01-02"),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// --- Módulos ---

func (s *AdminService) ListModules() ([]model.Module, error) {
	return s.ModuleRepo.FindAll()
}

func (s *AdminService) CreateModule(req *ModuleRequest) (*model.Module, error) {
	m := &model.Module{
		Order:       req.Order,
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		VideoURL:    req.VideoURL,
		DurationMin: req.DurationMin,
		Active:      true,
	}
	if req.Active != nil {
		m.Active = *req.Active
	}
	if err := s.ModuleRepo.Create(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *AdminService) UpdateModule(id uint, req *ModuleRequest) (*model.Module, error) {
	m, err := s.ModuleRepo.FindByID(id)
	if err != nil {
		return nil, util.ErrModuleNotFound
	}

	m.Order = req.Order
	m.Title = req.Title
	m.Description = req.Description
	m.Content = req.Content
	m.VideoURL = req.VideoURL
	m.DurationMin = req.DurationMin
	if req.Active != nil {
		m.Active = *req.Active
	}

	if err := s.ModuleRepo.Update(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *AdminService) DeleteModule(id uint) error {
	if _, err := s.ModuleRepo.FindByID(id); err != nil {
		return util.ErrModuleNotFound
	}
	return s.ModuleRepo.Delete(id)
}

// UploadModuleVideo guarda el vídeo de un módulo y extrae sus metadatos
// con ffprobe. El fichero pasa por un temporal local porque ffprobe
// trabaja sobre rutas, no sobre streams.
func (s *AdminService) UploadModuleVideo(ctx context.Context, file *multipart.FileHeader) (*VideoUploadResult, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "modulo-video-*"+filepath.Ext(file.Filename))
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return nil, err
	}
	tmp.Close()

	info, err := util.GetVideoInfo(tmpPath)
	if err != nil {
		return nil, err
	}

	in, err := os.Open(tmpPath)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	name := fmt.Sprintf("videos/%s%s", uuid.New().String(), filepath.Ext(file.Filename))
	url, err := s.Storage.Upload(ctx, name, in, info.Size, file.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	logger.Log.Info("vídeo de módulo subido",
		zap.String("file", name),
		zap.Float64("duration_seconds", info.Duration))

	return &VideoUploadResult{
		URL:              url,
		DurationSeconds:  info.Duration,
		Width:            info.Width,
		Height:           info.Height,
		SuggestedMinutes: info.SuggestedMinutes(),
	}, nil
}

// --- Banco de preguntas ---

func (s *AdminService) ListQuestions(page, limit int) ([]model.Question, int64, error) {
	return s.QuestionRepo.FindAll(page, limit)
}

func (s *AdminService) buildQuestion(req *QuestionRequest, q *model.Question) error {
	if req.CorrectIdx == nil || *req.CorrectIdx < 0 || *req.CorrectIdx >= model.NumOptions {
		return util.ErrInvalidOption
	}
	q.Statement = req.Statement
	q.CorrectIdx = *req.CorrectIdx
	q.Explanation = req.Explanation
	q.Active = true
	if req.Active != nil {
		q.Active = *req.Active
	}
	return q.SetOptions(req.Options)
}

func (s *AdminService) CreateQuestion(req *QuestionRequest) (*model.Question, error) {
	var q model.Question
	if err := s.buildQuestion(req, &q); err != nil {
		return nil, err
	}
	if err := s.QuestionRepo.Create(&q); err != nil {
		return nil, err
	}
	return &q, nil
}

// ImportQuestions da de alta un lote de preguntas; falla entero si alguna
// no es válida.
func (s *AdminService) ImportQuestions(reqs []QuestionRequest) ([]model.Question, error) {
	questions := make([]model.Question, len(reqs))
	for i := range reqs {
		if err := s.buildQuestion(&reqs[i], &questions[i]); err != nil {
			return nil, fmt.Errorf("pregunta %d: %w", i+1, err)
		}
	}
	if err := s.QuestionRepo.CreateBatch(questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (s *AdminService) UpdateQuestion(id uint, req *QuestionRequest) (*model.Question, error) {
	q, err := s.QuestionRepo.FindByID(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	if err := s.buildQuestion(req, q); err != nil {
		return nil, err
	}
	if err := s.QuestionRepo.Update(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *AdminService) DeleteQuestion(id uint) error {
	return s.QuestionRepo.Delete(id)
}

// --- Configuración del examen ---

func (s *AdminService) GetExamConfig(ctx context.Context) model.ExamConfig {
	return s.ConfigService.Get(ctx)
}

// UpdateExamConfig guarda la nueva configuración. Solo afecta a exámenes
// que comiencen a partir de ahora.
func (s *AdminService) UpdateExamConfig(ctx context.Context, cfg *model.ExamConfig) error {
	if cfg.NumQuestions < 1 || cfg.PassScore < 0 || cfg.PassScore > 100 ||
		cfg.TimeLimitMin < 1 || cfg.MaxAttempts < 1 {
		return fmt.Errorf("configuración de examen fuera de rango")
	}
	return s.ConfigService.Update(ctx, cfg)
}

// --- Certificados ---

func (s *AdminService) ListCertificates(page, limit int) ([]model.Certificate, int64, error) {
	return s.CertRepo.List(page, limit)
}

func (s *AdminService) PendingCertificates() ([]model.Certificate, error) {
	return s.CertRepo.FindPending()
}
