package service

import (
	"fmt"
	"testing"
	"time"

	"formacion_residuos_backend/internal/config"
	"formacion_residuos_backend/internal/model"
	"formacion_residuos_backend/internal/repository"
	"formacion_residuos_backend/pkg/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	logger.InitLogger("test")
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Admin{},
		&model.Module{},
		&model.ModuleProgress{},
		&model.Question{},
		&model.Exam{},
		&model.Certificate{},
		&model.ExamConfig{},
	)
	if err != nil {
		t.Fatalf("migrating schema: %v", err)
	}
	return db
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.RefreshSecret = "test-refresh-secret"
	cfg.JWT.AccessExpire = 15 * time.Minute
	cfg.JWT.RefreshExpire = 24 * time.Hour
	cfg.JWT.VerifyExpire = 48 * time.Hour
	cfg.JWT.ResetExpire = 30 * time.Minute
	cfg.App.FrontendURL = "http://localhost:3000"
	cfg.App.Locality = "Villanueva del Segura"
	cfg.Storage.Type = "local"
	return cfg
}

func createTestUser(t *testing.T, db *gorm.DB, n int) *model.User {
	t.Helper()

	user := &model.User{
		DNI:         fmt.Sprintf("0000000%dT", n),
		Name:        "Vecina",
		Surname:     "De Prueba",
		Email:       fmt.Sprintf("vecina%d@example.com", n),
		Password:    "irrelevante",
		Address:     "Calle Mayor",
		Number:      fmt.Sprintf("%d", n),
		PostalCode:  "30001",
		AddressHash: fmt.Sprintf("hash-%d", n),
		Verified:    true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	return user
}

// seedModules crea n módulos activos de un minuto cada uno.
func seedModules(t *testing.T, db *gorm.DB, n int) []model.Module {
	t.Helper()

	modules := make([]model.Module, 0, n)
	for i := 1; i <= n; i++ {
		m := model.Module{
			Order:       i,
			Title:       fmt.Sprintf("Módulo %d", i),
			Content:     "<p>contenido</p>",
			DurationMin: 1,
			Active:      true,
		}
		if err := db.Create(&m).Error; err != nil {
			t.Fatalf("creating module %d: %v", i, err)
		}
		modules = append(modules, m)
	}
	return modules
}

// seedQuestions crea n preguntas activas; la opción correcta es siempre la 0.
func seedQuestions(t *testing.T, db *gorm.DB, n int) []model.Question {
	t.Helper()

	questions := make([]model.Question, 0, n)
	for i := 1; i <= n; i++ {
		q := model.Question{
			Statement:  fmt.Sprintf("¿Pregunta %d?", i),
			CorrectIdx: 0,
			Active:     true,
		}
		if err := q.SetOptions([]string{"a", "b", "c", "d"}); err != nil {
			t.Fatalf("setting options: %v", err)
		}
		if err := db.Create(&q).Error; err != nil {
			t.Fatalf("creating question %d: %v", i, err)
		}
		questions = append(questions, q)
	}
	return questions
}

// completeTraining deja todos los módulos activos completados para el usuario.
func completeTraining(t *testing.T, db *gorm.DB, userID uint) {
	t.Helper()

	var modules []model.Module
	if err := db.Where("active = ?", true).Find(&modules).Error; err != nil {
		t.Fatalf("loading modules: %v", err)
	}
	now := time.Now()
	for _, m := range modules {
		p := model.ModuleProgress{
			UserID:      userID,
			ModuleID:    m.ID,
			SecondsSeen: m.RequiredSeconds(),
			Completed:   true,
			CompletedAt: &now,
		}
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("creating progress: %v", err)
		}
	}
}

func newModuleService(db *gorm.DB) *ModuleService {
	return NewModuleService(repository.NewModuleRepository(db), repository.NewProgressRepository(db))
}

func newExamService(db *gorm.DB) *ExamService {
	configService := NewExamConfigService(repository.NewExamConfigRepository(db), nil)
	return NewExamService(
		repository.NewExamRepository(db),
		repository.NewQuestionRepository(db),
		newModuleService(db),
		configService,
	)
}
