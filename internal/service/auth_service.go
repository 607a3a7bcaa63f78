package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/LeslieKogi/sunrise-backend/internal/entity"
	"github.com/LeslieKogi/sunrise-backend/internal/repository"
)

type AdminStore interface {
	GetByUsername(ctx context.Context, username string) (*entity.Admin, error)
	Create(ctx context.Context, admin *entity.Admin) (*entity.Admin, error)
}

type AdminClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AdminID returns the admin id carried in the subject claim.
func (c *AdminClaims) AdminID() (int, error) {
	return strconv.Atoi(c.Subject)
}

type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type AuthService struct {
	adminRepo AdminStore
	secret    []byte
	tokenTTL  time.Duration
	hashCost  int
	now       func() time.Time
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(adminRepo AdminStore, secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		adminRepo: adminRepo,
		secret:    []byte(secret),
		tokenTTL:  tokenTTL,
		hashCost:  bcrypt.DefaultCost,
		now:       time.Now,
	}
}

// dummyHash is compared against when the username is unknown so both failure
// paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("sunrise-dummy-password"), bcrypt.DefaultCost)

// Verify checks a username/password pair. It never says which of the two was
// wrong.
func (s *AuthService) Verify(ctx context.Context, username, password string) (*entity.Admin, error) {
	admin, err := s.adminRepo.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		logger.Error().Err(err).Msg("Error looking up admin")
		return nil, err
	}

	if admin == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, newError(ErrUnauthorized, "Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, newError(ErrUnauthorized, "Invalid credentials")
	}
	return admin, nil
}

// Login verifies the credentials and issues a signed bearer token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Token, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, newError(ErrInvalidInput, "Username and password required")
	}

	admin, err := s.Verify(ctx, username, password)
	if err != nil {
		logger.Warn().Str("username", username).Msg("Failed admin login")
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	claims := &AdminClaims{
		Username: admin.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(admin.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tkn.SignedString(s.secret)
	if err != nil {
		logger.Error().Err(err).Msg("Error signing token")
		return nil, err
	}

	logger.Info().Int("admin_id", admin.ID).Msg("Admin logged in")
	return &Token{AccessToken: signed, TokenType: "Bearer", ExpiresAt: expiresAt.UTC().Truncate(time.Second)}, nil
}

// ParseToken validates a bearer token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, newError(ErrUnauthorized, "Invalid or expired token")
	}
	if _, err := claims.AdminID(); err != nil {
		return nil, newError(ErrUnauthorized, "Invalid or expired token")
	}
	return claims, nil
}

// CreateAdmin stores a new admin with a bcrypt hash of password.
func (s *AuthService) CreateAdmin(ctx context.Context, username, password string) (*entity.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, newError(ErrInvalidInput, "Username and password required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, newError(ErrInvalidInput, "Password is too long")
	}
	if err != nil {
		return nil, err
	}

	admin, err := s.adminRepo.Create(ctx, &entity.Admin{Username: username, PasswordHash: string(hash)})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, newError(ErrConflict, "Admin %q already exists", username)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Error creating admin")
		return nil, err
	}
	return admin, nil
}
