package model

import (
	"testing"
	"time"
)

func TestExamDeadlineAndExpiry(t *testing.T) {
	started := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	exam := &Exam{TimeLimitMin: 30, StartedAt: started}

	deadline := started.Add(30 * time.Minute)
	if !exam.Deadline().Equal(deadline) {
		t.Fatalf("Deadline = %v, want %v", exam.Deadline(), deadline)
	}

	if exam.Expired(deadline.Add(-time.Second)) {
		t.Error("expected open attempt just before the deadline")
	}
	// El instante exacto del límite ya cuenta como vencido
	if !exam.Expired(deadline) {
		t.Error("expected expired attempt at the exact deadline")
	}
	if !exam.Expired(deadline.Add(time.Second)) {
		t.Error("expected expired attempt past the deadline")
	}

	// Un intento cerrado nunca está vencido
	finished := deadline.Add(-10 * time.Minute)
	exam.FinishedAt = &finished
	if exam.Expired(deadline.Add(time.Hour)) {
		t.Error("expected finished attempt never reported as expired")
	}
}
