package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// The cart is scoped to an anonymous session carried in a signed cookie.
// No account is involved; the token only pins a stable session id.

const (
	CookieName = "cartSession"
	ttl        = 30 * 24 * time.Hour
)

// Ensure returns the caller's session id, minting and setting a fresh one
// when the cookie is missing or invalid.
func Ensure(c echo.Context, secret []byte) (string, error) {
	if cookie, err := c.Cookie(CookieName); err == nil && cookie.Value != "" {
		if sid, err := parse(cookie.Value, secret); err == nil {
			return sid, nil
		}
	}

	sid := uuid.NewString()
	claims := jwt.MapClaims{
		"sid": sid,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", err
	}

	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sid, nil
}

func parse(tokenString string, secret []byte) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid session token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid session claims")
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", fmt.Errorf("missing sid claim")
	}
	return sid, nil
}
