package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/pinboard/internal/pkg/errors"
	"github.com/xxxsen/pinboard/internal/pkg/jwt"
)

type verifierFunc func(ctx context.Context, userID int64) error

func (f verifierFunc) VerifyUser(ctx context.Context, userID int64) error { return f(ctx, userID) }

func authEngine(verifier UserVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID(), JWTAuth([]byte("secret"), verifier))
	engine.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt64(ContextUserIDKey)})
	})
	return engine
}

func doAuth(engine *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	return resp
}

func TestJWTAuthSchemes(t *testing.T) {
	token, err := jwt.GenerateToken(7, "a@b.c", []byte("secret"), time.Hour)
	require.NoError(t, err)
	engine := authEngine(nil)

	for _, scheme := range []string{"Bearer", "Token", "bearer"} {
		resp := doAuth(engine, scheme+" "+token)
		require.Equal(t, http.StatusOK, resp.Code, scheme)
		require.JSONEq(t, `{"user_id":7}`, resp.Body.String())
		require.NotEmpty(t, resp.Header().Get("X-Request-Id"))
	}
}

func TestJWTAuthRejects(t *testing.T) {
	other, err := jwt.GenerateToken(7, "", []byte("other"), time.Hour)
	require.NoError(t, err)
	engine := authEngine(nil)
	for name, header := range map[string]string{
		"missing":      "",
		"basic":        "Basic abc",
		"no token":     "Bearer",
		"wrong secret": "Bearer " + other,
		"garbage":      "Token not-a-jwt",
	} {
		resp := doAuth(engine, header)
		require.Equal(t, http.StatusUnauthorized, resp.Code, name)
	}
}

func TestJWTAuthVerifiesSubject(t *testing.T) {
	token, err := jwt.GenerateToken(9, "", []byte("secret"), time.Hour)
	require.NoError(t, err)
	engine := authEngine(verifierFunc(func(ctx context.Context, userID int64) error {
		require.Equal(t, int64(9), userID)
		return errors.ErrUnauthorized
	}))
	resp := doAuth(engine, "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRequestIDKeepsIncoming(t *testing.T) {
	engine := authEngine(nil)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-Request-Id", "abc123")
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	require.Equal(t, "abc123", resp.Header().Get("X-Request-Id"))
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(CORS([]string{"https://app.example.com/"}))
	engine.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	require.Equal(t, http.StatusNoContent, resp.Code)
	require.Equal(t, "https://app.example.com", resp.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
}
