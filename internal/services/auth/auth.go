package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"parish_portal/internal/lib/jwt"
	"parish_portal/internal/lib/logger/sl"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotConfigured      = errors.New("admin account is not configured")
)

type Config struct {
	Login        string
	PasswordHash string
	Secret       string
	TokenTTL     time.Duration
}

// Auth единственная учётная запись администратора из конфига.
type Auth struct {
	log          *slog.Logger
	login        string
	passwordHash []byte
	secret       []byte
	tokenTTL     time.Duration
	now          func() time.Time
}

func New(log *slog.Logger, cfg Config) (*Auth, error) {
	const op = "auth.New"

	if cfg.Secret == "" {
		return nil, fmt.Errorf("%s: jwt secret is empty", op)
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}

	a := &Auth{
		log:      log,
		login:    cfg.Login,
		secret:   []byte(cfg.Secret),
		tokenTTL: cfg.TokenTTL,
		now:      time.Now,
	}

	if cfg.Login != "" || cfg.PasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(cfg.PasswordHash)); err != nil {
			return nil, fmt.Errorf("%s: password hash: %w", op, err)
		}
		a.passwordHash = []byte(cfg.PasswordHash)
	}

	return a, nil
}

func (a *Auth) Secret() []byte {
	return a.secret
}

func (a *Auth) Login(_ context.Context, login, password string) (string, time.Time, error) {
	const op = "auth.Login"

	log := a.log.With(
		slog.String("op", op),
		slog.String("login", login),
	)

	log.Info("attempting to login admin")

	if a.login == "" || len(a.passwordHash) == 0 {
		log.Warn("admin account is not configured")
		return "", time.Time{}, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	loginOK := subtle.ConstantTimeCompare([]byte(login), []byte(a.login)) == 1
	// пароль проверяем всегда, чтобы время ответа не выдавало логин
	passErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password))

	if !loginOK || passErr != nil {
		log.Info("invalid credentials")
		return "", time.Time{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, expiresAt, err := jwt.NewToken(a.login, a.secret, a.tokenTTL, a.now())
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("admin logged in successfully")

	return token, expiresAt, nil
}

func (a *Auth) ParseToken(token string) (*jwt.Claims, error) {
	const op = "auth.ParseToken"

	claims, err := jwt.Parse(token, a.secret)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return claims, nil
}
