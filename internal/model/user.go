package model

// swagger:model User
type User struct {
	BaseModel
	DNI         string `gorm:"size:9;uniqueIndex;not null" json:"dni"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Surname     string `gorm:"size:150;not null" json:"surname"`
	Email       string `gorm:"size:150;uniqueIndex;not null" json:"email"`
	Phone       string `gorm:"size:20" json:"phone"`
	Password    string `gorm:"size:100;not null" json:"-"`
	AddressHash string `gorm:"size:64;uniqueIndex;not null" json:"-"`
	Address     string `gorm:"size:255;not null" json:"address"`
	Number      string `gorm:"size:10" json:"number"`
	Floor       string `gorm:"size:10" json:"floor"`
	Door        string `gorm:"size:10" json:"door"`
	PostalCode  string `gorm:"size:5;not null" json:"postalCode"`
	Locality    string `gorm:"size:100" json:"locality"`
	Verified    bool   `gorm:"default:false" json:"verified"`

	// Un único campo para el token de verificación de email y el de
	// recuperación de contraseña; el tipo va dentro del propio JWT.
	// Emitir uno invalida el anterior.
	VerificationToken *string `gorm:"size:512" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// FullName es el nombre tal y como aparece en el certificado.
func (u *User) FullName() string {
	return u.Name + " " + u.Surname
}
