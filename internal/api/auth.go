package api

import (
	"net/http"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/LeslieKogi/sunrise-backend/internal/service"
)

// adminContextKey is where RequireAdmin stores the verified *service.AdminClaims.
const adminContextKey = "admin"

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login --> POST /api/admin/login
func (h *AuthHandler) Login(c echo.Context) error {
	login := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{}
	if err := c.Bind(&login); err != nil {
		return invalidPayload(c)
	}

	token, err := h.authService.Login(c.Request().Context(), login.Username, login.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message":      "Login successful",
		"access_token": token.AccessToken,
		"token_type":   token.TokenType,
		"expires_at":   token.ExpiresAt,
	})
}

// RequireAdmin rejects requests that do not carry a valid admin bearer token.
func RequireAdmin(authService *service.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: adminContextKey,
		ParseTokenFunc: func(_ echo.Context, auth string) (interface{}, error) {
			return authService.ParseToken(auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ") {
				return errorJSON(c, http.StatusUnauthorized, "Authorization token required")
			}
			return errorJSON(c, http.StatusUnauthorized, "Invalid or expired token")
		},
	})
}

// AdminClaims returns the claims RequireAdmin stored on the request.
func AdminClaims(c echo.Context) (*service.AdminClaims, bool) {
	claims, ok := c.Get(adminContextKey).(*service.AdminClaims)
	return claims, ok
}
