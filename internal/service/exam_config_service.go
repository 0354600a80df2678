package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"formacion_residuos_backend/internal/model"
	"formacion_residuos_backend/internal/repository"
	"formacion_residuos_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	examConfigCacheKey = "exam:config"
	examConfigCacheTTL = 5 * time.Minute
)

// ExamConfigService resuelve la configuración efectiva del examen con una
// caché de lectura en Redis delante de la base de datos. Sin registro en
// BD se aplican los valores por defecto.
type ExamConfigService struct {
	ConfigRepo *repository.ExamConfigRepository
	Redis      *redis.Client
}

func NewExamConfigService(configRepo *repository.ExamConfigRepository, rdb *redis.Client) *ExamConfigService {
	return &ExamConfigService{ConfigRepo: configRepo, Redis: rdb}
}

// Get devuelve la configuración efectiva. Los fallos de Redis degradan a
// lectura directa de BD, nunca a error.
func (s *ExamConfigService) Get(ctx context.Context) model.ExamConfig {
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, examConfigCacheKey).Result(); err == nil {
			var cfg model.ExamConfig
			if err := json.Unmarshal([]byte(cached), &cfg); err == nil {
				return cfg
			}
		}
	}

	cfg, err := s.ConfigRepo.Get()
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Log.Warn("no se pudo leer la configuración del examen, aplicando valores por defecto", zap.Error(err))
		}
		def := model.DefaultExamConfig()
		s.cache(ctx, &def)
		return def
	}

	s.cache(ctx, cfg)
	return *cfg
}

// Update guarda la configuración e invalida la caché. Afecta solo a
// exámenes iniciados a partir de ahora.
func (s *ExamConfigService) Update(ctx context.Context, cfg *model.ExamConfig) error {
	if err := s.ConfigRepo.Save(cfg); err != nil {
		return err
	}
	if s.Redis != nil {
		if err := s.Redis.Del(ctx, examConfigCacheKey).Err(); err != nil {
			logger.Log.Warn("no se pudo invalidar la caché de configuración", zap.Error(err))
		}
	}
	return nil
}

func (s *ExamConfigService) cache(ctx context.Context, cfg *model.ExamConfig) {
	if s.Redis == nil {
		return
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, examConfigCacheKey, data, examConfigCacheTTL).Err(); err != nil {
		logger.Log.Warn("no se pudo cachear la configuración del examen", zap.Error(err))
	}
}
