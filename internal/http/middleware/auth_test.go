package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andeslabs/bancora/internal/auth"
	"github.com/andeslabs/bancora/internal/http/middleware"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var publicPaths = []string{"/", "/api/v1/auth/login"}

func newGateRouter(codec *auth.Codec, store *fakeRevocationStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	gate := middleware.NewGate(codec, store, publicPaths, zap.NewNop())
	r := gin.New()
	r.Use(gate.Handler())
	r.POST("/api/v1/auth/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/api/v1/users/me", func(c *gin.Context) {
		subject, _ := middleware.Subject(c)
		c.JSON(http.StatusOK, gin.H{"subject": subject})
	})
	return r
}

func doRequest(r *gin.Engine, method, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGateAllowsPublicPathWithoutToken(t *testing.T) {
	codec := auth.NewCodec(testSecret, time.Hour, 7*24*time.Hour)
	r := newGateRouter(codec, newFakeRevocationStore())

	w := doRequest(r, http.MethodPost, "/api/v1/auth/login", "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestGateRejectsMissingBearer(t *testing.T) {
	codec := auth.NewCodec(testSecret, time.Hour, 7*24*time.Hour)
	r := newGateRouter(codec, newFakeRevocationStore())

	w := doRequest(r, http.MethodGet, "/api/v1/users/me", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Invalid authentication credentials")
	require.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
}

func TestGateAcceptsValidAccessToken(t *testing.T) {
	codec := auth.NewCodec(testSecret, time.Hour, 7*24*time.Hour)
	r := newGateRouter(codec, newFakeRevocationStore())

	pair, err := codec.IssuePair("42")
	require.NoError(t, err)

	w := doRequest(r, http.MethodGet, "/api/v1/users/me", pair.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"subject":"42"`)
}

func TestGateRejectsRevokedToken(t *testing.T) {
	codec := auth.NewCodec(testSecret, time.Hour, 7*24*time.Hour)
	store := newFakeRevocationStore()
	r := newGateRouter(codec, store)

	pair, err := codec.IssuePair("42")
	require.NoError(t, err)
	store.black[pair.AccessToken] = true

	w := doRequest(r, http.MethodGet, "/api/v1/users/me", pair.AccessToken)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Token has been revoked")
}

func TestGateRejectsCorruptToken(t *testing.T) {
	codec := auth.NewCodec(testSecret, time.Hour, 7*24*time.Hour)
	r := newGateRouter(codec, newFakeRevocationStore())

	w := doRequest(r, http.MethodGet, "/api/v1/users/me", "not.a.token")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Invalid token or wrong token type")
}

func TestGateRejectsRefreshTokenOnProtectedPath(t *testing.T) {
	codec := auth.NewCodec(testSecret, time.Hour, 7*24*time.Hour)
	r := newGateRouter(codec, newFakeRevocationStore())

	pair, err := codec.IssuePair("42")
	require.NoError(t, err)

	w := doRequest(r, http.MethodGet, "/api/v1/users/me", pair.RefreshToken)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Invalid token or wrong token type")
}

func TestGateRejectsExpiredToken(t *testing.T) {
	expired := auth.NewCodec(testSecret, -time.Minute, -time.Minute)
	live := auth.NewCodec(testSecret, time.Hour, 7*24*time.Hour)
	r := newGateRouter(live, newFakeRevocationStore())

	pair, err := expired.IssuePair("42")
	require.NoError(t, err)

	w := doRequest(r, http.MethodGet, "/api/v1/users/me", pair.AccessToken)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGateFailsClosedOnStoreOutage(t *testing.T) {
	codec := auth.NewCodec(testSecret, time.Hour, 7*24*time.Hour)
	store := newFakeRevocationStore()
	store.failReads = true
	r := newGateRouter(codec, store)

	pair, err := codec.IssuePair("42")
	require.NoError(t, err)

	w := doRequest(r, http.MethodGet, "/api/v1/users/me", pair.AccessToken)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Invalid authentication credentials")
}

type fakeRevocationStore struct {
	black     map[string]bool
	failReads bool
}

func newFakeRevocationStore() *fakeRevocationStore {
	return &fakeRevocationStore{black: make(map[string]bool)}
}

func (f *fakeRevocationStore) PutActiveRefresh(ctx context.Context, subject, token string, ttl time.Duration) error {
	return nil
}

func (f *fakeRevocationStore) GetActiveRefresh(ctx context.Context, subject string) (string, error) {
	return "", nil
}

func (f *fakeRevocationStore) ClearActiveRefresh(ctx context.Context, subject string) error {
	return nil
}

func (f *fakeRevocationStore) Blacklist(ctx context.Context, rawToken string, expiresAt time.Time) error {
	f.black[rawToken] = true
	return nil
}

func (f *fakeRevocationStore) IsBlacklisted(ctx context.Context, rawToken string) (bool, error) {
	if f.failReads {
		return false, errors.New("backend unreachable")
	}
	return f.black[rawToken], nil
}
