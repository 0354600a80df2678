package model

import "time"

// RefreshToken persiste los refresh tokens emitidos. Son de un solo uso:
// al refrescar se borra el antiguo y se crea uno nuevo, lo que permite
// revocarlos en el logout o al restablecer la contraseña.
type RefreshToken struct {
	BaseModel
	Token     string    `gorm:"size:512;uniqueIndex;not null" json:"-"`
	UserID    uint      `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	IsAdmin   bool      `gorm:"default:false" json:"isAdmin"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
