package jwtgin

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwtdemo/jwtguard"
	"github.com/jwtdemo/jwtguard/internal/jwttest"
	"github.com/jwtdemo/jwtguard/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, mw gin.HandlerFunc) *gin.Engine {
	t.Helper()
	router := gin.New()
	router.Use(mw)
	router.GET("/protected", func(ctx *gin.Context) {
		claims, err := GetClaims[*validator.ValidatedClaims](ctx)
		if err != nil {
			ctx.String(http.StatusInternalServerError, err.Error())
			return
		}
		fromKey, _ := ctx.Get(DefaultClaimsKey)
		assert.Same(t, claims, fromKey)
		ctx.JSON(http.StatusOK, gin.H{"subject": claims.RegisteredClaims.Subject})
	})
	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "ok")
	})
	return router
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrCoreNil)

	signer := jwttest.NewSigner(t)
	_, err = New(signer.Core(t), WithContextKey(""))
	assert.EqualError(t, err, "invalid option: context key cannot be empty")

	_, err = New(signer.Core(t), WithErrorHandler(nil))
	assert.EqualError(t, err, "invalid option: error handler cannot be nil")
}

func TestMiddleware(t *testing.T) {
	signer := jwttest.NewSigner(t)
	valid := signer.Token(t, "user-1", time.Now().Add(time.Hour))
	expired := signer.Token(t, "user-1", time.Now().Add(-time.Hour))

	mw, err := New(signer.Core(t), WithMiddlewareOptions(jwtguard.WithExclusionUrls([]string{"/healthz"})))
	require.NoError(t, err)
	router := newRouter(t, mw)

	testCases := []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantBody   map[string]string
		wantAuth   string
	}{
		{
			name:       "valid token",
			path:       "/protected",
			header:     "Bearer " + valid,
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"subject": "user-1"},
		},
		{
			name:       "missing header",
			path:       "/protected",
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]string{"error": "missing_header", "message": "Authorization header is missing."},
		},
		{
			name:       "wrong scheme",
			path:       "/protected",
			header:     "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
			wantBody:   map[string]string{"error": "malformed_header", "message": "Authorization does not begin Bearer prefix."},
			wantAuth:   jwtguard.WWWAuthenticateInvalidToken,
		},
		{
			name:       "expired token",
			path:       "/protected",
			header:     "Bearer " + expired,
			wantStatus: http.StatusUnauthorized,
			wantBody:   map[string]string{"error": "token_expired", "message": "JWT token expired."},
			wantAuth:   jwtguard.WWWAuthenticateInvalidToken,
		},
		{
			name:       "excluded path",
			path:       "/healthz",
			wantStatus: http.StatusOK,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, testCase.path, nil)
			if testCase.header != "" {
				req.Header.Set("Authorization", testCase.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, testCase.wantStatus, rec.Code)
			assert.Equal(t, testCase.wantAuth, rec.Header().Get("WWW-Authenticate"))
			if testCase.wantBody != nil {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, testCase.wantBody, body)
			}
		})
	}
}

func TestMiddleware_CustomErrorHandler(t *testing.T) {
	signer := jwttest.NewSigner(t)

	var gotErr error
	mw, err := New(signer.Core(t), WithErrorHandler(func(ctx *gin.Context, err error) {
		gotErr = err
		ctx.String(http.StatusTeapot, "nope")
	}))
	require.NoError(t, err)

	handlerCalled := false
	router := gin.New()
	router.Use(mw)
	router.GET("/protected", func(ctx *gin.Context) { handlerCalled = true })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.True(t, errors.Is(gotErr, jwtguard.ErrJWTMissing))
	assert.False(t, handlerCalled)
}

func TestMiddleware_ContextKey(t *testing.T) {
	signer := jwttest.NewSigner(t)
	mw, err := New(signer.Core(t), WithContextKey("user"))
	require.NoError(t, err)

	router := gin.New()
	router.Use(mw)
	router.GET("/protected", func(ctx *gin.Context) {
		claims := ctx.MustGet("user").(*validator.ValidatedClaims)
		ctx.String(http.StatusOK, claims.RegisteredClaims.Subject)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signer.Token(t, "user-2", time.Now().Add(time.Minute)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-2", rec.Body.String())
}
