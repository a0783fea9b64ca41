package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/andeslabs/bancora/internal/auth"
	"github.com/andeslabs/bancora/internal/repository"
)

const subjectKey = "authSubject"

// Gate authenticates every request whose path is not in the public
// allow-list. The blacklist is consulted before signature verification; a
// revocation-store outage fails closed.
type Gate struct {
	codec  *auth.Codec
	store  repository.RevocationStore
	public map[string]struct{}
	logger *zap.Logger
}

// NewGate builds the gate. publicPaths are matched exactly.
func NewGate(codec *auth.Codec, store repository.RevocationStore, publicPaths []string, logger *zap.Logger) *Gate {
	public := make(map[string]struct{}, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = struct{}{}
	}
	return &Gate{codec: codec, store: store, public: public, logger: logger}
}

// Handler returns the gin middleware enforcing authentication.
func (g *Gate) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := g.public[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		raw, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "Invalid authentication credentials")
			return
		}

		blacklisted, err := g.store.IsBlacklisted(c.Request.Context(), raw)
		if err != nil {
			g.logger.Error("blacklist lookup failed, rejecting request", zap.Error(err))
			abortUnauthorized(c, "Invalid authentication credentials")
			return
		}
		if blacklisted {
			abortUnauthorized(c, "Token has been revoked")
			return
		}

		claims, err := g.codec.Verify(raw, auth.KindAccess)
		if err != nil {
			abortUnauthorized(c, "Invalid token or wrong token type")
			return
		}

		c.Set(subjectKey, claims.Subject)
		c.Next()
	}
}

// Subject returns the authenticated subject attached by the gate.
func Subject(c *gin.Context) (string, bool) {
	value, ok := c.Get(subjectKey)
	if !ok {
		return "", false
	}
	subject, ok := value.(string)
	return subject, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func abortUnauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}
