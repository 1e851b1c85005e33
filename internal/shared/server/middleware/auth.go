package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"medvault-backend/internal/shared/auth"
	"medvault-backend/internal/shared/server/respond"
)

const (
	identityKey = "identity"
	// userIDKey mirrors Identity.UserID for respond and logging, which cannot
	// import this package.
	userIDKey   = "userId"
	guestPrefix = "guest:"
	guestHeader = "X-Guest-Id"
)

var (
	errBadToken        = errors.New("missing or invalid token")
	errMissingIdentity = errors.New("missing identity")
)

// Identity is the caller resolved from a bearer token or the guest header.
// Guest user IDs are "guest:<header value>".
type Identity struct {
	UserID  string
	Email   string
	Name    string
	Picture string
	Guest   bool
}

// Auth resolves the caller's Identity and rejects anonymous requests with 401.
// Requests whose path starts with one of publicPrefixes skip identity checks.
func Auth(publicPrefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}
		if isPublic(c.Request.URL.Path, publicPrefixes) {
			c.Next()
			return
		}

		id, err := resolveIdentity(c.Request)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
			return
		}
		SetIdentity(c, id)
		c.Next()
	}
}

func isPublic(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// resolveIdentity prefers the Authorization header. A present but invalid
// bearer token is an error even when a guest header is also sent.
func resolveIdentity(r *http.Request) (Identity, error) {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			return Identity{}, errBadToken
		}
		claims, err := auth.VerifyJWT(token)
		if err != nil {
			return Identity{}, errBadToken
		}
		return Identity{
			UserID:  claims.Subject,
			Email:   claims.Email,
			Name:    claims.Name,
			Picture: claims.Picture,
		}, nil
	}

	if guestID := strings.TrimSpace(r.Header.Get(guestHeader)); guestID != "" {
		return Identity{UserID: guestPrefix + guestID, Guest: true}, nil
	}
	return Identity{}, errMissingIdentity
}

// SetIdentity stores id on the request context.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
	c.Set(userIDKey, id.UserID)
}

// IdentityFromContext returns the Identity stored by Auth, if any.
func IdentityFromContext(c *gin.Context) (Identity, bool) {
	if c == nil {
		return Identity{}, false
	}
	val, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := val.(Identity)
	return id, ok
}

// UserIDFromContext fetches the scoping key for the current caller.
func UserIDFromContext(c *gin.Context) string {
	id, _ := IdentityFromContext(c)
	return id.UserID
}

// IsGuest reports whether the caller authenticated with a guest header.
func IsGuest(c *gin.Context) bool {
	id, _ := IdentityFromContext(c)
	return id.Guest
}
