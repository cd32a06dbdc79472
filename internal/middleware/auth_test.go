// internal/middleware/auth_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestdirect/backend/internal/models"
	"github.com/harvestdirect/backend/internal/utils"
)

func setupAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test-secret")

	r := gin.New()
	r.GET("/me", AuthRequired(), func(c *gin.Context) {
		userID, _ := utils.GetUserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	r.GET("/sell", AuthRequired(), SellerRequired(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/admin", AuthRequired(), AdminRequired(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func tokenFor(t *testing.T, role models.UserRole) string {
	t.Helper()

	token, err := utils.GenerateJWT(uuid.New(), "tester", string(role), 1)
	require.NoError(t, err)
	return token
}

func doRequest(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	r := setupAuthRouter(t)

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/me", "not-a-token").Code)
	assert.Equal(t, http.StatusOK, doRequest(r, "/me", tokenFor(t, models.RoleWholesaler)).Code)
}

func TestSellerRequired(t *testing.T) {
	r := setupAuthRouter(t)

	assert.Equal(t, http.StatusOK, doRequest(r, "/sell", tokenFor(t, models.RoleFarmer)).Code)
	assert.Equal(t, http.StatusOK, doRequest(r, "/sell", tokenFor(t, models.RoleFisherman)).Code)
	assert.Equal(t, http.StatusForbidden, doRequest(r, "/sell", tokenFor(t, models.RoleWholesaler)).Code)
}

func TestAdminRequired(t *testing.T) {
	r := setupAuthRouter(t)

	assert.Equal(t, http.StatusOK, doRequest(r, "/admin", tokenFor(t, models.RoleAdmin)).Code)
	assert.Equal(t, http.StatusForbidden, doRequest(r, "/admin", tokenFor(t, models.RoleFarmer)).Code)
}
