package service

import (
	"errors"
	"testing"

	"formacion_residuos_backend/internal/model"
	"formacion_residuos_backend/internal/util"
)

func TestModuleSequentialUnlock(t *testing.T) {
	db := newTestDB(t)
	svc := newModuleService(db)
	user := createTestUser(t, db, 1)
	modules := seedModules(t, db, 3)

	list, err := svc.List(user.ID)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if list[0].Status != ModuleStatusAvailable {
		t.Fatalf("expected first module available, got %s", list[0].Status)
	}
	if list[1].Status != ModuleStatusLocked || list[2].Status != ModuleStatusLocked {
		t.Fatalf("expected later modules locked, got %s, %s", list[1].Status, list[2].Status)
	}

	// El segundo módulo no se abre con el primero sin completar
	if _, err := svc.Get(user.ID, modules[1].ID); !errors.Is(err, util.ErrPreviousIncomplete) {
		t.Fatalf("expected ErrPreviousIncomplete, got %v", err)
	}

	// Completa el primero y el segundo queda disponible
	if _, err := svc.Get(user.ID, modules[0].ID); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if _, err := svc.ReportProgress(user.ID, modules[0].ID, modules[0].RequiredSeconds()); err != nil {
		t.Fatalf("ReportProgress returned error: %v", err)
	}
	if err := svc.Complete(user.ID, modules[0].ID); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	if _, err := svc.Get(user.ID, modules[1].ID); err != nil {
		t.Fatalf("expected second module unlocked, got %v", err)
	}
	// El tercero sigue bloqueado
	if _, err := svc.Get(user.ID, modules[2].ID); !errors.Is(err, util.ErrPreviousIncomplete) {
		t.Fatalf("expected ErrPreviousIncomplete for third module, got %v", err)
	}
}

func TestModuleViewingTimeGate(t *testing.T) {
	db := newTestDB(t)
	svc := newModuleService(db)
	user := createTestUser(t, db, 1)

	m := model.Module{Order: 1, Title: "Orgánica", Content: "x", DurationMin: 10, Active: true}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("creating module: %v", err)
	}

	// Completar sin haber abierto el módulo
	if err := svc.Complete(user.ID, m.ID); !errors.Is(err, util.ErrNoProgress) {
		t.Fatalf("expected ErrNoProgress, got %v", err)
	}

	if _, err := svc.Get(user.ID, m.ID); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	// 599 segundos no llegan al mínimo de 600
	if _, err := svc.ReportProgress(user.ID, m.ID, 599); err != nil {
		t.Fatalf("ReportProgress returned error: %v", err)
	}
	if err := svc.Complete(user.ID, m.ID); !errors.Is(err, util.ErrInsufficientViewing) {
		t.Fatalf("expected ErrInsufficientViewing at 599s, got %v", err)
	}

	if _, err := svc.ReportProgress(user.ID, m.ID, 600); err != nil {
		t.Fatalf("ReportProgress returned error: %v", err)
	}
	if err := svc.Complete(user.ID, m.ID); err != nil {
		t.Fatalf("expected completion at 600s, got %v", err)
	}

	// Completar de nuevo es idempotente
	if err := svc.Complete(user.ID, m.ID); err != nil {
		t.Fatalf("expected idempotent completion, got %v", err)
	}

	// El tiempo queda congelado tras completar
	status, err := svc.ReportProgress(user.ID, m.ID, 700)
	if err != nil {
		t.Fatalf("ReportProgress returned error: %v", err)
	}
	if status.SecondsSeen != 600 {
		t.Fatalf("expected frozen 600s after completion, got %d", status.SecondsSeen)
	}
	if status.Status != ModuleStatusCompleted {
		t.Fatalf("expected completed status, got %s", status.Status)
	}
}

func TestModuleProgressNeverDecreases(t *testing.T) {
	db := newTestDB(t)
	svc := newModuleService(db)
	user := createTestUser(t, db, 1)
	modules := seedModules(t, db, 1)

	if _, err := svc.Get(user.ID, modules[0].ID); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	if _, err := svc.ReportProgress(user.ID, modules[0].ID, 50); err != nil {
		t.Fatalf("ReportProgress returned error: %v", err)
	}
	status, err := svc.ReportProgress(user.ID, modules[0].ID, 30)
	if err != nil {
		t.Fatalf("ReportProgress returned error: %v", err)
	}
	if status.SecondsSeen != 50 {
		t.Fatalf("expected seconds to stay at 50, got %d", status.SecondsSeen)
	}
}

func TestAllCompleted(t *testing.T) {
	db := newTestDB(t)
	svc := newModuleService(db)
	user := createTestUser(t, db, 1)

	// Sin módulos activos la formación no puede darse por completada
	done, err := svc.AllCompleted(user.ID)
	if err != nil {
		t.Fatalf("AllCompleted returned error: %v", err)
	}
	if done {
		t.Fatal("expected incomplete training with no modules")
	}

	seedModules(t, db, 2)
	if done, _ = svc.AllCompleted(user.ID); done {
		t.Fatal("expected incomplete training")
	}

	completeTraining(t, db, user.ID)
	if done, _ = svc.AllCompleted(user.ID); !done {
		t.Fatal("expected completed training")
	}
}
