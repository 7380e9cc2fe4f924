package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/javajoker/fanstore-backend/internal/config"
	"github.com/javajoker/fanstore-backend/internal/models"
	"github.com/javajoker/fanstore-backend/internal/testutil"
	"github.com/javajoker/fanstore-backend/internal/utils"
)

type AuthServiceTestSuite struct {
	suite.Suite
	service *AuthService
	ctx     context.Context
}

func (s *AuthServiceTestSuite) SetupTest() {
	utils.SetJWTSecret("test-secret")
	cfg := &config.Config{JWT: config.JWTConfig{SecretKey: "test-secret", AccessTokenTTL: 2}}
	s.service = NewAuthService(testutil.NewDB(s.T()), cfg)
	s.ctx = context.Background()
}

func (s *AuthServiceTestSuite) TestRegisterIssuesCustomerToken() {
	res, err := s.service.Register(s.ctx, &RegisterRequest{Name: "Ana", Email: " Ana@Example.com ", Password: "Secret123!"})
	s.Require().NoError(err)

	s.Equal("ana@example.com", res.User.Email)
	s.Equal(models.UserRoleCustomer, res.User.Role)
	s.Equal("Bearer", res.TokenType)
	s.Equal(7200, res.ExpiresIn)

	claims, err := utils.ValidateJWT(res.AccessToken)
	s.Require().NoError(err)
	s.Equal(res.User.ID, claims.UserID)
	s.Equal(string(models.UserRoleCustomer), claims.Role)
}

func (s *AuthServiceTestSuite) TestRegisterRejectsDuplicateEmail() {
	_, err := s.service.Register(s.ctx, &RegisterRequest{Email: "ana@example.com", Password: "Secret123!"})
	s.Require().NoError(err)

	_, err = s.service.Register(s.ctx, &RegisterRequest{Email: "ANA@example.com", Password: "Secret123!"})
	s.ErrorIs(err, ErrConflict)
}

func (s *AuthServiceTestSuite) TestRegisterValidation() {
	_, err := s.service.Register(s.ctx, &RegisterRequest{Email: "ana@example.com", Password: "short"})
	s.ErrorIs(err, ErrValidation)

	_, err = s.service.Register(s.ctx, &RegisterRequest{Email: "nope", Password: "Secret123!"})
	s.ErrorIs(err, ErrValidation)
}

func (s *AuthServiceTestSuite) TestLogin() {
	registered, err := s.service.Register(s.ctx, &RegisterRequest{Email: "ana@example.com", Password: "Secret123!"})
	s.Require().NoError(err)

	res, err := s.service.Login(s.ctx, &LoginRequest{Email: "Ana@example.com", Password: "Secret123!"})
	s.Require().NoError(err)
	s.Equal(registered.User.ID, res.User.ID)

	res, err = s.service.Login(s.ctx, &LoginRequest{Email: "  ANA@example.com ", Password: "Secret123!"})
	s.Require().NoError(err)
	s.Equal(registered.User.ID, res.User.ID)

	_, err = s.service.Login(s.ctx, &LoginRequest{Email: "ana@example.com", Password: "wrong-password"})
	s.ErrorIs(err, ErrUnauthenticated)

	_, err = s.service.Login(s.ctx, &LoginRequest{Email: "nobody@example.com", Password: "Secret123!"})
	s.ErrorIs(err, ErrUnauthenticated)
}

func (s *AuthServiceTestSuite) TestGetUser() {
	registered, err := s.service.Register(s.ctx, &RegisterRequest{Email: "ana@example.com", Password: "Secret123!"})
	s.Require().NoError(err)

	user, err := s.service.GetUser(s.ctx, registered.User.ID)
	s.Require().NoError(err)
	s.Equal("ana@example.com", user.Email)

	_, err = s.service.GetUser(s.ctx, 999)
	s.ErrorIs(err, ErrNotFound)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
