package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/pinboard/internal/model"
	appErr "github.com/xxxsen/pinboard/internal/pkg/errors"
	"github.com/xxxsen/pinboard/internal/pkg/jwt"
	"github.com/xxxsen/pinboard/internal/pkg/password"
	"github.com/xxxsen/pinboard/internal/pkg/timeutil"
)

const minPasswordLength = 5

type AuthService struct {
	users     UserRepository
	jwtSecret []byte
	jwtTTL    time.Duration
	known     *expirable.LRU[int64, struct{}]
}

func NewAuthService(users UserRepository, secret []byte, ttl time.Duration, cacheSize int, cacheTTL time.Duration) *AuthService {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	return &AuthService{
		users:     users,
		jwtSecret: secret,
		jwtTTL:    ttl,
		known:     expirable.NewLRU[int64, struct{}](cacheSize, nil, cacheTTL),
	}
}

func (s *AuthService) Register(ctx context.Context, email, plainPassword string) (*model.User, string, error) {
	email = NormalizeEmail(email)
	v := &appErr.ValidationError{}
	if email == "" {
		v.Add("email", msgRequired)
	}
	if utf8.RuneCountInString(plainPassword) < minPasswordLength {
		v.Add("password", msgMinLength(minPasswordLength))
	}
	if err := v.OrNil(); err != nil {
		return nil, "", err
	}
	hash, err := password.Hash(plainPassword)
	if errors.Is(err, password.ErrTooLong) {
		return nil, "", appErr.NewValidationError("password", "Ensure this field has no more than 72 bytes.")
	}
	if err != nil {
		return nil, "", err
	}
	now := timeutil.NowUnix()
	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}
	logutil.GetLogger(ctx).Info("user registered", zap.Int64("user_id", user.ID))
	token, err := jwt.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	s.known.Add(user.ID, struct{}{})
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (*model.User, string, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, appErr.ErrNotFound) {
			return nil, "", appErr.ErrUnauthorized
		}
		return nil, "", err
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	token, err := jwt.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	s.known.Add(user.ID, struct{}{})
	return user, token, nil
}

func (s *AuthService) Me(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, appErr.ErrNotFound) {
			return nil, appErr.ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

// VerifyUser confirms a token subject still exists. Positive lookups are
// cached for the configured TTL.
func (s *AuthService) VerifyUser(ctx context.Context, userID int64) error {
	if _, ok := s.known.Get(userID); ok {
		return nil
	}
	if _, err := s.Me(ctx, userID); err != nil {
		return err
	}
	s.known.Add(userID, struct{}{})
	return nil
}

// NormalizeEmail trims the address and lowercases its domain part.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
