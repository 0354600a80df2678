package app

import (
	"time"

	"formacion_residuos_backend/docs"
	"formacion_residuos_backend/internal/config"
	"formacion_residuos_backend/internal/middleware"
	"formacion_residuos_backend/pkg/monitoring"
	"formacion_residuos_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.Health)

	// Limitador estricto para los endpoints sensibles a fuerza bruta
	strict := security.RateLimiter(10, time.Minute)

	// Rutas públicas
	public := router.Group("/api")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/registro", strict, c.auth.Register)
			auth.POST("/login", strict, c.auth.Login)
			auth.POST("/verificar-email", c.auth.VerifyEmail)
			auth.POST("/reenviar-verificacion", strict, c.auth.ResendVerification)
			auth.POST("/refresh", c.auth.Refresh)
			auth.POST("/recuperar", strict, c.auth.RecoverPassword)
			auth.POST("/restablecer", strict, c.auth.ResetPassword)
		}

		// Verificación anónima de certificados (destino del QR)
		public.GET("/certificado/verificar/:code", c.cert.VerifyPublic)

		// Callback del proveedor externo de firma
		public.POST("/certificado/webhook", strict, c.cert.Webhook)

		public.POST("/admin/login", strict, c.admin.Login)
	}

	// Rutas de ciudadano autenticado
	authorized := router.Group("/api")
	authorized.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		authorized.POST("/auth/logout", c.auth.Logout)
		authorized.GET("/auth/perfil", c.auth.Profile)

		modules := authorized.Group("/modulos")
		{
			modules.GET("", c.module.List)
			modules.GET("/:id", c.module.Get)
			modules.PUT("/:id/progreso", c.module.ReportProgress)
			modules.POST("/:id/completar", c.module.Complete)
		}

		exam := authorized.Group("/examen")
		{
			exam.GET("/estado", c.exam.Status)
			exam.GET("/historial", c.exam.History)
			exam.POST("/comenzar", strict, c.exam.Start)
			exam.GET("/:id", c.exam.Get)
			exam.PUT("/:id/responder", c.exam.SaveAnswer)
			exam.POST("/:id/finalizar", c.exam.Finish)
			exam.GET("/:id/resultado", c.exam.Result)
		}

		cert := authorized.Group("/certificado")
		{
			cert.GET("", c.cert.Get)
			cert.POST("/solicitar", c.cert.Request)
			cert.GET("/descargar", c.cert.Download)
		}
	}

	// Consola de administración
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg.JWT.Secret), middleware.AdminMiddleware())
	{
		admin.GET("/estadisticas", c.admin.Stats)

		admin.GET("/usuarios", c.admin.ListUsers)
		admin.GET("/usuarios/exportar", c.admin.ExportUsers)
		admin.GET("/usuarios/:id", c.admin.GetUser)
		admin.DELETE("/usuarios/:id", c.admin.DeleteUser)

		admin.GET("/modulos", c.admin.ListModules)
		admin.POST("/modulos", c.admin.CreateModule)
		admin.POST("/modulos/video", c.admin.UploadVideo)
		admin.PUT("/modulos/:id", c.admin.UpdateModule)
		admin.DELETE("/modulos/:id", c.admin.DeleteModule)

		admin.GET("/preguntas", c.admin.ListQuestions)
		admin.POST("/preguntas", c.admin.CreateQuestion)
		admin.POST("/preguntas/importar", c.admin.ImportQuestions)
		admin.PUT("/preguntas/:id", c.admin.UpdateQuestion)
		admin.DELETE("/preguntas/:id", c.admin.DeleteQuestion)

		admin.GET("/examen/configuracion", c.admin.GetExamConfig)
		admin.PUT("/examen/configuracion", c.admin.UpdateExamConfig)

		admin.GET("/certificados", c.admin.ListCertificates)
		admin.GET("/certificados/pendientes", c.admin.PendingCertificates)
		admin.POST("/certificados/:id/firmar", c.admin.SignCertificate)
	}
}
