package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/room-booking-api/internal/models"
	appErrors "github.com/noah-isme/room-booking-api/pkg/errors"
)

type stubValidator map[string]*models.JWTClaims

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

type observation struct {
	method, path string
	status       int
}

type recordingObserver struct {
	seen []observation
}

func (r *recordingObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	r.seen = append(r.seen, observation{method: method, path: path, status: status})
}

func newProtectedRouter(observer requestObserver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	tokens := stubValidator{
		"lecturer-head": {UserID: "u-head", Roles: []models.UserRole{models.RoleLecturer, models.RoleDeptHead}},
		"student":       {UserID: "u-student", Roles: []models.UserRole{models.RoleStudent}},
	}
	r := gin.New()
	r.Use(Metrics(observer))
	secured := r.Group("/", JWT(tokens))
	secured.GET("/me", func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, claims.UserID)
	})
	secured.DELETE("/bookings/:id", RequireRoles(models.RoleDeptHead, models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func serve(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTRequiresBearerToken(t *testing.T) {
	r := newProtectedRouter(nil)

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "Bearer ").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "Bearer forged").Code)

	w := serve(r, http.MethodGet, "/me", "bearer student")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-student", w.Body.String())
}

func TestRequireRolesMatchesAnyHeldRole(t *testing.T) {
	r := newProtectedRouter(nil)

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodDelete, "/bookings/b-1", "Bearer lecturer-head").Code)
	w := serve(r, http.MethodDelete, "/bookings/b-1", "Bearer student")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), appErrors.ErrForbidden.Code)
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RequireRoles(models.RoleAdmin)(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	observer := &recordingObserver{}
	r := newProtectedRouter(observer)

	serve(r, http.MethodDelete, "/bookings/b-1", "Bearer lecturer-head")
	serve(r, http.MethodGet, "/nowhere", "")

	require.Len(t, observer.seen, 2)
	assert.Equal(t, observation{method: http.MethodDelete, path: "/bookings/:id", status: http.StatusNoContent}, observer.seen[0])
	assert.Equal(t, "unmatched", observer.seen[1].path)
	assert.Equal(t, http.StatusNotFound, observer.seen[1].status)
}
