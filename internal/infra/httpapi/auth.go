package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"classroom_sync/internal/app"
	"classroom_sync/internal/domain/user"
)

const (
	tokenTTL  = 24 * time.Hour
	viewerKey = "viewer"
)

var errInvalidToken = errors.New("invalid token")

// tokenIssuer signs and verifies HS256 session tokens.
type tokenIssuer struct {
	secret []byte
	now    func() time.Time
}

func (t tokenIssuer) issue(u *user.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":  u.Email,
		"name": u.Name,
		"role": string(u.Role),
		"iat":  t.now().Unix(),
		"exp":  t.now().Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t tokenIssuer) parse(raw string) (app.Viewer, error) {
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	token, err := parser.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return app.Viewer{}, errInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return app.Viewer{}, errInvalidToken
	}
	email, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if email == "" || !user.Role(role).Valid() {
		return app.Viewer{}, errInvalidToken
	}
	return app.Viewer{Email: email, Role: user.Role(role)}, nil
}

// authMiddleware verifies the bearer token and stores the viewer in the context.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw := strings.TrimPrefix(header, "Bearer ")
		if header == "" || raw == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		viewer, err := s.tokens.parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		c.Set(viewerKey, viewer)
		c.Next()
	}
}

// requireRole rejects viewers whose role is not listed.
func requireRole(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer := currentViewer(c)
		for _, r := range roles {
			if viewer.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden: insufficient role"})
	}
}

func currentViewer(c *gin.Context) app.Viewer {
	v, _ := c.Get(viewerKey)
	viewer, _ := v.(app.Viewer)
	return viewer
}
