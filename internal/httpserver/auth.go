package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/chezgustave/ordering/internal/hash"
	"github.com/chezgustave/ordering/internal/logging"
)

const accessTokenTTL = 12 * time.Hour

// AuthHandler signs in the restaurant operator. There is one credential,
// configured through the environment; customers never authenticate.
type AuthHandler struct {
	JWTSecret    []byte
	OperatorUser string
	OperatorHash string
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.Username != h.OperatorUser || !hash.CheckPassword(h.OperatorHash, req.Password) {
		l.Warn("login_error", "status", 401)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	claims := jwt.MapClaims{
		"sub":  req.Username,
		"role": "admin",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(accessTokenTTL).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.JWTSecret)
	if err != nil {
		l.Error("login_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	c.SetCookie(&http.Cookie{
		Name:     "accessToken",
		Value:    signed,
		Path:     "/",
		Expires:  time.Now().Add(accessTokenTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	l.Info("login_success", "user", req.Username)
	return c.JSON(http.StatusOK, map[string]string{"access_token": signed})
}

// RequireAdmin guards operator endpoints with the accessToken cookie.
func (h *AuthHandler) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie("accessToken")
		if err != nil || cookie.Value == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing auth cookie")
		}

		token, err := jwt.Parse(cookie.Value, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return h.JWTSecret, nil
		})
		if err != nil || !token.Valid {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
		}
		if role, _ := claims["role"].(string); role != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
		}

		c.Set("role", "admin")
		return next(c)
	}
}
