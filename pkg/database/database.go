package database

import (
	"fmt"
	"log"
	"os"

	"formacion_residuos_backend/internal/config"
	"formacion_residuos_backend/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	if err := seed(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate crea o actualiza el esquema. Los índices únicos sobre dni, email,
// address_hash, (user_id, module_id), (user_id, attempt_num), user_id del
// certificado y verification_code salen de las etiquetas de los modelos:
// son los que cierran las carreras de inserciones concurrentes.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Admin{},
		&model.Module{},
		&model.ModuleProgress{},
		&model.Question{},
		&model.Exam{},
		&model.Certificate{},
		&model.ExamConfig{},
	)
}

func seed(db *gorm.DB) error {
	// Configuración del examen: fila singleton con los valores por defecto
	var cfgCount int64
	db.Model(&model.ExamConfig{}).Count(&cfgCount)
	if cfgCount == 0 {
		cfg := model.DefaultExamConfig()
		if err := db.Create(&cfg).Error; err != nil {
			return err
		}
	}

	// Administrador inicial si no existe ninguno
	var adminCount int64
	db.Model(&model.Admin{}).Count(&adminCount)
	if adminCount == 0 {
		password := os.Getenv("ADMIN_INITIAL_PASSWORD")
		if password == "" {
			password = "cambiar-esta-clave"
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		admin := &model.Admin{
			Name:     "Administración",
			Email:    "admin@ayuntamiento.local",
			Password: string(hashed),
			Active:   true,
		}
		if err := db.Create(admin).Error; err != nil {
			return err
		}
		log.Println("Default admin account created")
	}

	return nil
}
