// @title API del Portal de Formación en Gestión de Residuos
// @version 1.0
// @description Backend del portal municipal de formación y certificación para la recogida de residuos puerta a puerta.

// @contact.name Soporte del portal
// @contact.email soporte@ayuntamiento.local

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"

	"formacion_residuos_backend/internal/app"
	"formacion_residuos_backend/internal/config"
	"formacion_residuos_backend/pkg/logger"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "ejecuta la migración de base de datos y termina")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	if *migrateOnly {
		log.Println("Migración completada, saliendo")
		return
	}

	application.Run()
}
