package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/yoockh/lexispeak/internal/utils"
)

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

type JWTConfig struct {
	Secret   string
	Issuer   string // optional
	Audience string // optional
}

type claims struct {
	jwt.RegisteredClaims
	Email       string         `json:"email"`
	AppMetadata map[string]any `json:"app_metadata"` // {"role":"admin"} marks admins
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{Code: utils.CodeUnauthorized, Message: msg})
}

// JWTAuth verifies an HS256 bearer token and puts user_id, email and role
// on the context. Browsers cannot set headers on a websocket handshake, so
// an access_token query parameter is accepted as well.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Secret == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, apiError{
				Code:    utils.CodeInternal,
				Message: "jwt secret is not set",
			})
			return
		}

		raw := ""
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			raw = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		} else if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			raw = c.Query("access_token")
		}
		if raw == "" {
			unauthorized(c, "missing bearer token")
			return
		}

		cl := &claims{}
		tok, err := jwt.ParseWithClaims(raw, cl, func(t *jwt.Token) (any, error) {
			return []byte(cfg.Secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || tok == nil || !tok.Valid {
			unauthorized(c, "invalid token")
			return
		}

		if cfg.Issuer != "" && cl.Issuer != cfg.Issuer {
			unauthorized(c, "invalid token issuer")
			return
		}
		if cfg.Audience != "" {
			valid := false
			for _, aud := range cl.Audience {
				if aud == cfg.Audience {
					valid = true
					break
				}
			}
			if !valid {
				unauthorized(c, "invalid token audience")
				return
			}
		}

		if cl.Subject == "" {
			unauthorized(c, "missing subject")
			return
		}

		role := "user"
		if v, ok := cl.AppMetadata["role"].(string); ok && v != "" {
			role = v
		}

		c.Set("user_id", cl.Subject)
		c.Set("email", cl.Email)
		c.Set("role", role)
		c.Next()
	}
}
