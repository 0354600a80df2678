package model

// Valores usados cuando no existe registro de configuración.
const (
	DefaultNumQuestions = 20
	DefaultPassScore    = 70
	DefaultTimeLimitMin = 30
	DefaultMaxAttempts  = 3
)

// ExamConfig es un singleton (fila id=1) con los parámetros del examen.
// swagger:model ExamConfig
type ExamConfig struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	NumQuestions int     `gorm:"not null" json:"numQuestions"`
	PassScore    float64 `gorm:"not null" json:"passScore"`    // porcentaje mínimo para aprobar
	TimeLimitMin int     `gorm:"not null" json:"timeLimitMin"` // minutos
	MaxAttempts  int     `gorm:"not null" json:"maxAttempts"`
}

func (ExamConfig) TableName() string {
	return "exam_config"
}

// DefaultExamConfig es la configuración aplicada en ausencia de registro.
func DefaultExamConfig() ExamConfig {
	return ExamConfig{
		ID:           1,
		NumQuestions: DefaultNumQuestions,
		PassScore:    DefaultPassScore,
		TimeLimitMin: DefaultTimeLimitMin,
		MaxAttempts:  DefaultMaxAttempts,
	}
}
