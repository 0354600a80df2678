package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Certificate es único por usuario. Se crea sin firmar al solicitarlo por
// primera vez tras aprobar el examen; la firma ocurre exactamente una vez.
// swagger:model Certificate
type Certificate struct {
	BaseModel
	UserID             uint       `gorm:"uniqueIndex;type:bigint unsigned;not null" json:"userId"`
	User               User       `gorm:"foreignKey:UserID" json:"-"`
	VerificationCode   string     `gorm:"size:36;uniqueIndex;not null" json:"verificationCode"`
	ExamScore          float64    `gorm:"not null" json:"examScore"`
	IssuedAt           time.Time  `gorm:"not null" json:"issuedAt"`
	SignatureRequested bool       `gorm:"default:false" json:"signatureRequested"`
	Signed             bool       `gorm:"default:false" json:"signed"`
	SignatureID        string     `gorm:"size:100" json:"signatureId,omitempty"`
	SignedAt           *time.Time `json:"signedAt,omitempty"`
	PDFGenerated       bool       `gorm:"default:false" json:"pdfGenerated"`
	PDFPath            string     `gorm:"size:512" json:"-"`
}

func (Certificate) TableName() string {
	return "certificates"
}

func (c *Certificate) BeforeCreate(tx *gorm.DB) (err error) {
	if c.VerificationCode == "" {
		c.VerificationCode = uuid.New().String()
	}
	if c.IssuedAt.IsZero() {
		c.IssuedAt = time.Now()
	}
	return
}
