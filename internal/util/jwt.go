package util

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles transportados en el claim "role".
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Tipos de token de propósito único (verificación de email / reset de
// contraseña). El tipo viaja dentro del payload, no en almacenamiento.
const (
	TokenEmailVerification = "email_verification"
	TokenPasswordReset     = "password_reset"
)

type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// PurposeClaims son los claims de los tokens de un solo propósito.
type PurposeClaims struct {
	UserID uint   `json:"user_id"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// GenerateToken emite un token de sesión. El claim jti hace único cada
// token: dos emisiones para el mismo usuario en el mismo segundo no deben
// producir la misma cadena, o la rotación de refresh tokens se rompería.
func GenerateToken(userID uint, role, secret string, expiration time.Duration) (string, error) {
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrTokenInvalidClaims
}

// GeneratePurposeToken emite un token de verificación o de recuperación.
func GeneratePurposeToken(userID uint, tokenType, secret string, expiration time.Duration) (string, error) {
	claims := &PurposeClaims{
		UserID: userID,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParsePurposeToken valida firma, caducidad y que el tipo coincida.
func ParsePurposeToken(tokenString, expectedType, secret string) (*PurposeClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &PurposeClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*PurposeClaims)
	if !ok || !token.Valid || claims.Type != expectedType {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

func GetUserFromContext(c *gin.Context) *Claims {
	user, exists := c.Get("user")
	if !exists {
		return nil
	}
	claims, ok := user.(*Claims)
	if !ok {
		return nil
	}
	return claims
}
