package model

import (
	"encoding/json"
	"time"
)

// Exam es un intento de examen. Las preguntas seleccionadas, el tiempo
// límite y la nota de corte quedan congelados al crearse; las respuestas se
// van acumulando hasta que FinishedAt se fija, momento en el que el intento
// es inmutable. Cambiar la configuración global no afecta a intentos ya
// iniciados.
// swagger:model Exam
type Exam struct {
	UUIDBase
	UserID       uint       `gorm:"uniqueIndex:idx_user_attempt;type:bigint unsigned;not null" json:"userId"`
	AttemptNum   int        `gorm:"uniqueIndex:idx_user_attempt;not null" json:"attemptNum"`
	QuestionIDs  string     `gorm:"type:json;not null" json:"-"` // array JSON de IDs, en orden de extracción
	Answers      string     `gorm:"type:json" json:"-"`          // objeto JSON preguntaID -> índice de opción
	TimeLimitMin int        `gorm:"not null" json:"timeLimitMin"`
	PassScore    float64    `gorm:"not null" json:"passScore"`
	StartedAt    time.Time  `gorm:"not null" json:"startedAt"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
	Score        *float64   `json:"score,omitempty"`
	Passed       *bool      `json:"passed,omitempty"`
}

func (Exam) TableName() string {
	return "exams"
}

// Deadline es el instante límite para entregar el intento.
func (e *Exam) Deadline() time.Time {
	return e.StartedAt.Add(time.Duration(e.TimeLimitMin) * time.Minute)
}

// Expired indica si el intento sigue abierto pero su tiempo ha vencido.
// El instante exacto del límite ya cuenta como vencido.
func (e *Exam) Expired(now time.Time) bool {
	return !e.Finished() && !now.Before(e.Deadline())
}

// Finished indica si el intento está cerrado.
func (e *Exam) Finished() bool {
	return e.FinishedAt != nil
}

func (e *Exam) QuestionIDList() ([]uint, error) {
	var ids []uint
	if err := json.Unmarshal([]byte(e.QuestionIDs), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (e *Exam) SetQuestionIDs(ids []uint) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	e.QuestionIDs = string(raw)
	return nil
}

// AnswerMap devuelve las respuestas guardadas como mapa preguntaID -> opción.
func (e *Exam) AnswerMap() (map[uint]int, error) {
	answers := make(map[uint]int)
	if e.Answers == "" {
		return answers, nil
	}
	if err := json.Unmarshal([]byte(e.Answers), &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func (e *Exam) SetAnswers(answers map[uint]int) error {
	raw, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	e.Answers = string(raw)
	return nil
}
