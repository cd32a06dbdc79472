// internal/services/auth_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/harvestdirect/backend/internal/config"
	"github.com/harvestdirect/backend/internal/models"
	"github.com/harvestdirect/backend/internal/utils"
)

type AuthServiceTestSuite struct {
	suite.Suite
	db          *gorm.DB
	authService *AuthService
	userService *UserService
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())

	cfg := &config.Config{
		JWT: config.JWTConfig{
			SecretKey:      "test-secret",
			AccessTokenTTL: 1,
		},
	}
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	suite.authService = NewAuthService(suite.db, cfg)
	suite.userService = NewUserService(suite.db)
}

func (suite *AuthServiceTestSuite) registerRequest() *RegisterRequest {
	return &RegisterRequest{
		Username: "greenacres",
		Email:    "greenacres@example.com",
		Password: "TestPass123!",
		Name:     "Green Acres Farm",
		Role:     models.RoleFarmer,
	}
}

func (suite *AuthServiceTestSuite) TestRegister() {
	resp, err := suite.authService.Register(suite.registerRequest())
	suite.Require().NoError(err)
	suite.NotEmpty(resp.Token)
	suite.Equal("greenacres", resp.User.Username)
	suite.Equal(models.RoleFarmer, resp.User.Role)

	// Password is stored hashed, never verbatim
	suite.NotEqual("TestPass123!", resp.User.PasswordHash)
	suite.NoError(resp.User.CheckPassword("TestPass123!"))

	claims, err := utils.ValidateJWT(resp.Token)
	suite.Require().NoError(err)
	suite.Equal(resp.User.ID.String(), claims.UserID)
	suite.Equal("FARMER", claims.Role)
}

func (suite *AuthServiceTestSuite) TestRegisterDuplicateUsername() {
	_, err := suite.authService.Register(suite.registerRequest())
	suite.Require().NoError(err)

	dup := suite.registerRequest()
	dup.Email = "different@example.com"
	_, err = suite.authService.Register(dup)
	suite.ErrorIs(err, ErrUsernameTaken)
}

func (suite *AuthServiceTestSuite) TestRegisterDuplicateEmail() {
	_, err := suite.authService.Register(suite.registerRequest())
	suite.Require().NoError(err)

	dup := suite.registerRequest()
	dup.Username = "otherfarm"
	_, err = suite.authService.Register(dup)
	suite.ErrorIs(err, ErrEmailTaken)
}

func (suite *AuthServiceTestSuite) TestRegisterRejectsBadUsername() {
	req := suite.registerRequest()
	req.Username = "no spaces!"
	_, err := suite.authService.Register(req)
	suite.Error(err)
}

func (suite *AuthServiceTestSuite) TestLogin() {
	_, err := suite.authService.Register(suite.registerRequest())
	suite.Require().NoError(err)

	resp, err := suite.authService.Login(&LoginRequest{Username: "greenacres", Password: "TestPass123!"})
	suite.Require().NoError(err)
	suite.NotEmpty(resp.Token)
}

func (suite *AuthServiceTestSuite) TestLoginBadCredentials() {
	_, err := suite.authService.Register(suite.registerRequest())
	suite.Require().NoError(err)

	// Wrong password and unknown user report the same error
	_, err = suite.authService.Login(&LoginRequest{Username: "greenacres", Password: "wrong"})
	suite.EqualError(err, "invalid username or password")

	_, err = suite.authService.Login(&LoginRequest{Username: "nobody", Password: "TestPass123!"})
	suite.EqualError(err, "invalid username or password")
}

func (suite *AuthServiceTestSuite) TestUpdateProfile() {
	resp, err := suite.authService.Register(suite.registerRequest())
	suite.Require().NoError(err)

	updated, err := suite.userService.UpdateProfile(resp.User.ID, &UpdateProfileRequest{
		Name:    "Green Acres Organic Farm",
		Address: "44 Orchard Lane",
		Phone:   "555-0142",
	})
	suite.Require().NoError(err)
	suite.Equal("Green Acres Organic Farm", updated.Name)
	suite.Equal("44 Orchard Lane", updated.Address)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
