package model

import "time"

// swagger:model Module
type Module struct {
	BaseModel
	Order       int    `gorm:"uniqueIndex;not null" json:"order"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Content     string `gorm:"type:longtext" json:"content"` // cuerpo HTML del módulo
	VideoURL    string `gorm:"size:512" json:"videoUrl"`
	DurationMin int    `gorm:"not null" json:"durationMin"` // minutos de visualización exigidos
	Active      bool   `gorm:"default:true" json:"active"`
}

func (Module) TableName() string {
	return "modules"
}

// RequiredSeconds devuelve el tiempo de visualización exigido en segundos.
func (m *Module) RequiredSeconds() int {
	return m.DurationMin * 60
}

// ModuleProgress acumula el tiempo de visualización de un usuario en un
// módulo. Una vez completado, el tiempo queda congelado.
type ModuleProgress struct {
	BaseModel
	UserID      uint       `gorm:"uniqueIndex:idx_user_module;type:bigint unsigned;not null" json:"userId"`
	ModuleID    uint       `gorm:"uniqueIndex:idx_user_module;type:bigint unsigned;not null" json:"moduleId"`
	SecondsSeen int        `gorm:"default:0" json:"secondsSeen"`
	Completed   bool       `gorm:"default:false" json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (ModuleProgress) TableName() string {
	return "module_progress"
}
