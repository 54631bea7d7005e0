package middleware

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"asyncaccess/internal/models"
	"asyncaccess/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authRouter(t *testing.T) (*gin.Engine, *models.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	hash := sha256.Sum256([]byte("secret"))
	user := &models.User{
		Email:        "alice@example.com",
		PasswordHash: fmt.Sprintf("%x", hash),
		Role:         models.RoleOrganizer,
	}
	require.NoError(t, store.Users().Create(context.Background(), user))

	r := gin.New()
	r.GET("/whoami", BasicAuth(store.Users(), nil), func(c *gin.Context) {
		id, _ := UserIDFromContext(c.Request.Context())
		role, _ := UserRoleFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"id": id, "role": role})
	})
	r.GET("/admin", BasicAuth(store.Users(), nil), RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/organizer", BasicAuth(store.Users(), nil), RequireRole(models.RoleOrganizer, models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, user
}

func TestBasicAuth(t *testing.T) {
	r, user := authRouter(t)

	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.SetBasicAuth(user.Email, "secret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"organizer"`)
}

func TestBasicAuthRejects(t *testing.T) {
	r, user := authRouter(t)

	// No credentials
	req, _ := http.NewRequest("GET", "/whoami", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))

	// Wrong password
	req, _ = http.NewRequest("GET", "/whoami", nil)
	req.SetBasicAuth(user.Email, "wrong")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Unknown user
	req, _ = http.NewRequest("GET", "/whoami", nil)
	req.SetBasicAuth("nobody@example.com", "secret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	r, user := authRouter(t)

	req, _ := http.NewRequest("GET", "/admin", nil)
	req.SetBasicAuth(user.Email, "secret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req, _ = http.NewRequest("GET", "/organizer", nil)
	req.SetBasicAuth(user.Email, "secret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
