package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
)

type IdentityTestSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	verifier *JWT
}

func (s *IdentityTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 4, 5, 10, 0, 0, 0, time.UTC)

	var err error
	s.verifier, err = New(&Config{
		Secret: []byte("test-secret"),
		TTL:    time.Hour,
		Now:    func() time.Time { return s.now },
	})
	s.Require().NoError(err)
}

func (s *IdentityTestSuite) TestNewValidation() {
	_, err := New(nil)
	s.ErrorIs(err, ErrNilConfig)

	_, err = New(&Config{})
	s.ErrorIs(err, ErrEmptySecret)
}

func (s *IdentityTestSuite) TestIssueThenVerify() {
	token, err := s.verifier.Issue("alice")
	s.Require().NoError(err)

	login, err := s.verifier.Verify(s.ctx, token)
	s.Require().NoError(err)
	s.Equal("alice", login)

	login, err = s.verifier.Verify(s.ctx, "Bearer "+token)
	s.Require().NoError(err)
	s.Equal("alice", login)
}

func (s *IdentityTestSuite) TestIssueRequiresLogin() {
	_, err := s.verifier.Issue("  ")
	s.ErrorIs(err, ErrEmptyLogin)
}

func (s *IdentityTestSuite) TestVerifyRejectsExpiredToken() {
	token, err := s.verifier.Issue("alice")
	s.Require().NoError(err)

	s.now = s.now.Add(2 * time.Hour)
	_, err = s.verifier.Verify(s.ctx, token)
	s.ErrorIs(err, ErrExpiredCredential)
}

func (s *IdentityTestSuite) TestVerifyRejectsForeignSecret() {
	other, err := New(&Config{Secret: []byte("other-secret"), Now: func() time.Time { return s.now }})
	s.Require().NoError(err)
	token, err := other.Issue("mallory")
	s.Require().NoError(err)

	_, err = s.verifier.Verify(s.ctx, token)
	s.ErrorIs(err, ErrInvalidCredential)
}

func (s *IdentityTestSuite) TestVerifyRejectsOtherAlgorithms() {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Issuer:    DefaultIssuer,
		Subject:   "mallory",
		ExpiresAt: jwt.NewNumericDate(s.now.Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	s.Require().NoError(err)

	_, err = s.verifier.Verify(s.ctx, token)
	s.ErrorIs(err, ErrInvalidCredential)
}

func (s *IdentityTestSuite) TestVerifyRequiresCredential() {
	_, err := s.verifier.Verify(s.ctx, "")
	s.ErrorIs(err, ErrMissingCredential)
}

func (s *IdentityTestSuite) TestTrusted() {
	login, err := Trusted{}.Verify(s.ctx, " bob ")
	s.Require().NoError(err)
	s.Equal("bob", login)

	_, err = Trusted{}.Verify(s.ctx, "")
	s.ErrorIs(err, ErrMissingCredential)
}

func TestIdentitySuite(t *testing.T) {
	suite.Run(t, new(IdentityTestSuite))
}
