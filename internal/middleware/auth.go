package middleware

import (
	"strings"

	"formacion_residuos_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware valida el token Bearer y deja los claims en el contexto.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseToken(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

// AdminMiddleware exige el rol de administrador; se encadena detrás de
// AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		if claims == nil || claims.Role != util.RoleAdmin {
			util.Forbidden(c, "se requiere rol de administrador")
			c.Abort()
			return
		}
		c.Next()
	}
}
