package model

// swagger:model Admin
type Admin struct {
	BaseModel
	Name     string `gorm:"size:100;not null" json:"name"`
	Email    string `gorm:"size:150;uniqueIndex;not null" json:"email"`
	Password string `gorm:"size:100;not null" json:"-"`
	Active   bool   `gorm:"default:true" json:"active"`
}

func (Admin) TableName() string {
	return "admins"
}
