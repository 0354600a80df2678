package service

import (
	"errors"
	"time"

	"formacion_residuos_backend/internal/model"
	"formacion_residuos_backend/internal/repository"
	"formacion_residuos_backend/internal/util"

	"gorm.io/gorm"
)

// Estados de un módulo para un usuario.
const (
	ModuleStatusLocked     = "locked"
	ModuleStatusAvailable  = "available"
	ModuleStatusInProgress = "in_progress"
	ModuleStatusCompleted  = "completed"
)

// ModuleStatus es la vista de un módulo en el itinerario del usuario. El
// contenido no viaja aquí; solo se entrega al abrir un módulo desbloqueado.
type ModuleStatus struct {
	ID              uint   `json:"id"`
	Order           int    `json:"order"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Status          string `json:"status"`
	SecondsSeen     int    `json:"secondsSeen"`
	RequiredSeconds int    `json:"requiredSeconds"`
}

// ModuleDetail añade el contenido al estado del módulo.
type ModuleDetail struct {
	ModuleStatus
	Content  string `json:"content"`
	VideoURL string `json:"videoUrl"`
}

type ProgressReport struct {
	SecondsSeen int `json:"secondsSeen" binding:"required,min=1"`
}

// ModuleService gobierna el itinerario formativo: los módulos se cursan en
// orden estricto y cada uno exige un tiempo mínimo de visualización.
type ModuleService struct {
	ModuleRepo   *repository.ModuleRepository
	ProgressRepo *repository.ProgressRepository
}

func NewModuleService(moduleRepo *repository.ModuleRepository, progressRepo *repository.ProgressRepository) *ModuleService {
	return &ModuleService{ModuleRepo: moduleRepo, ProgressRepo: progressRepo}
}

// List devuelve el itinerario completo con el estado de cada módulo para
// el usuario. El primer módulo no completado y con el anterior completado
// aparece como disponible; los posteriores, bloqueados.
func (s *ModuleService) List(userID uint) ([]ModuleStatus, error) {
	modules, err := s.ModuleRepo.FindActiveOrdered()
	if err != nil {
		return nil, err
	}

	progress, err := s.ProgressRepo.FindByUser(userID)
	if err != nil {
		return nil, err
	}
	byModule := make(map[uint]*model.ModuleProgress, len(progress))
	for i := range progress {
		byModule[progress[i].ModuleID] = &progress[i]
	}

	out := make([]ModuleStatus, 0, len(modules))
	previousCompleted := true
	for _, m := range modules {
		st := ModuleStatus{
			ID:              m.ID,
			Order:           m.Order,
			Title:           m.Title,
			Description:     m.Description,
			RequiredSeconds: m.RequiredSeconds(),
			Status:          ModuleStatusLocked,
		}

		p := byModule[m.ID]
		if p != nil {
			st.SecondsSeen = p.SecondsSeen
		}

		switch {
		case p != nil && p.Completed:
			st.Status = ModuleStatusCompleted
		case previousCompleted && p != nil:
			st.Status = ModuleStatusInProgress
		case previousCompleted:
			st.Status = ModuleStatusAvailable
		}

		previousCompleted = p != nil && p.Completed
		out = append(out, st)
	}

	return out, nil
}

// unlocked comprueba que todos los módulos activos anteriores (por orden)
// están completados.
func (s *ModuleService) unlocked(userID uint, module *model.Module) (bool, error) {
	modules, err := s.ModuleRepo.FindActiveOrdered()
	if err != nil {
		return false, err
	}
	for _, m := range modules {
		if m.Order >= module.Order {
			break
		}
		p, err := s.ProgressRepo.Find(userID, m.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, err
		}
		if !p.Completed {
			return false, nil
		}
	}
	return true, nil
}

// Get abre un módulo desbloqueado y devuelve su contenido. El primer
// acceso crea el registro de progreso.
func (s *ModuleService) Get(userID, moduleID uint) (*ModuleDetail, error) {
	module, err := s.ModuleRepo.FindByID(moduleID)
	if err != nil || !module.Active {
		return nil, util.ErrModuleNotFound
	}

	ok, err := s.unlocked(userID, module)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrPreviousIncomplete
	}

	progress, err := s.ProgressRepo.Find(userID, moduleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = &model.ModuleProgress{UserID: userID, ModuleID: moduleID}
		if err := s.ProgressRepo.Create(progress); err != nil {
			// Otro proceso pudo crearlo a la vez; relee
			progress, err = s.ProgressRepo.Find(userID, moduleID)
			if err != nil {
				return nil, err
			}
		}
	} else if err != nil {
		return nil, err
	}

	status := ModuleStatusInProgress
	if progress.Completed {
		status = ModuleStatusCompleted
	}

	return &ModuleDetail{
		ModuleStatus: ModuleStatus{
			ID:              module.ID,
			Order:           module.Order,
			Title:           module.Title,
			Description:     module.Description,
			Status:          status,
			SecondsSeen:     progress.SecondsSeen,
			RequiredSeconds: module.RequiredSeconds(),
		},
		Content:  module.Content,
		VideoURL: module.VideoURL,
	}, nil
}

// ReportProgress registra el tiempo acumulado de visualización que informa
// el cliente. El valor solo puede crecer y se congela al completar.
func (s *ModuleService) ReportProgress(userID, moduleID uint, secondsSeen int) (*ModuleStatus, error) {
	module, err := s.ModuleRepo.FindByID(moduleID)
	if err != nil || !module.Active {
		return nil, util.ErrModuleNotFound
	}

	progress, err := s.ProgressRepo.Find(userID, moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNoProgress
		}
		return nil, err
	}

	if !progress.Completed && secondsSeen > progress.SecondsSeen {
		if err := s.ProgressRepo.UpdateSeconds(userID, moduleID, secondsSeen); err != nil {
			return nil, err
		}
		progress.SecondsSeen = secondsSeen
	}

	status := ModuleStatusInProgress
	if progress.Completed {
		status = ModuleStatusCompleted
	}
	return &ModuleStatus{
		ID:              module.ID,
		Order:           module.Order,
		Title:           module.Title,
		Description:     module.Description,
		Status:          status,
		SecondsSeen:     progress.SecondsSeen,
		RequiredSeconds: module.RequiredSeconds(),
	}, nil
}

// Complete marca el módulo como superado si el tiempo visto alcanza el
// mínimo exigido. Es idempotente.
func (s *ModuleService) Complete(userID, moduleID uint) error {
	module, err := s.ModuleRepo.FindByID(moduleID)
	if err != nil || !module.Active {
		return util.ErrModuleNotFound
	}

	progress, err := s.ProgressRepo.Find(userID, moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNoProgress
		}
		return err
	}
	if progress.Completed {
		return nil
	}
	if progress.SecondsSeen < module.RequiredSeconds() {
		return util.ErrInsufficientViewing
	}

	return s.ProgressRepo.MarkCompleted(userID, moduleID, time.Now())
}

// AllCompleted indica si el usuario ha superado todos los módulos activos.
// Con el itinerario vacío la formación no puede darse por completada.
func (s *ModuleService) AllCompleted(userID uint) (bool, error) {
	total, err := s.ModuleRepo.CountActive()
	if err != nil {
		return false, err
	}
	if total == 0 {
		return false, nil
	}

	modules, err := s.ModuleRepo.FindActiveOrdered()
	if err != nil {
		return false, err
	}
	for _, m := range modules {
		p, err := s.ProgressRepo.Find(userID, m.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, err
		}
		if !p.Completed {
			return false, nil
		}
	}
	return true, nil
}
