package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/theneural/backend/errs"
	"github.com/theneural/backend/models"
)

// SessionStore is the durable home of guest sessions; *database.SessionRepo
// satisfies it.
type SessionStore interface {
	Add(session *models.Session) error
	FindByID(id string) (*models.Session, error)
	Update(session *models.Session) error
	Delete(id string) (bool, error)
	DeleteExpired(now time.Time) (int64, error)
}

// SessionService manages guest sessions. The playground has no accounts;
// a session is a signed token scoping what a browser created.
type SessionService struct {
	store  SessionStore
	secret []byte
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time
}

func NewSessionService(store SessionStore, secret []byte, ttl time.Duration) *SessionService {
	return &SessionService{
		store:  store,
		secret: secret,
		ttl:    ttl,
		logger: log.With().Str("serviceName", "sessionService").Logger(),
		now:    time.Now,
	}
}

// Create opens a session and returns it with a signed bearer token.
func (s *SessionService) Create(ctx context.Context, ipAddress, userAgent string) (*models.Session, string, error) {
	now := s.now().UTC()
	session := &models.Session{
		ID:         fmt.Sprintf("session_%s", strings.ReplaceAll(uuid.NewString(), "-", "")[:16]),
		Active:     true,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		LastActive: now,
		ExpiresAt:  now.Add(s.ttl),
		CreatedAt:  now,
	}
	if err := s.store.Add(session); err != nil {
		return nil, "", errs.NewInternalError("failed to create session", err)
	}

	claims := jwt.RegisteredClaims{
		Subject:   session.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, "", errs.NewInternalError("failed to sign session token", err)
	}

	s.logger.Info().Str("sessionID", session.ID).Msg("guest session created")
	return session, token, nil
}

// Get returns the session and refreshes its activity timestamp.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.store.FindByID(id)
	if err != nil {
		return nil, errs.NewInternalError("failed to fetch session", err)
	}
	if session == nil {
		return nil, errs.NewNotFound("session")
	}
	now := s.now().UTC()
	if session.Expired(now) || !session.Active {
		return nil, errs.NewUnauthorizedError("session has expired")
	}
	session.LastActive = now
	if err := s.store.Update(session); err != nil {
		s.logger.Warn().Err(err).Str("sessionID", id).Msg("failed to refresh session activity")
	}
	return session, nil
}

func (s *SessionService) Delete(ctx context.Context, id string) error {
	existed, err := s.store.Delete(id)
	if err != nil {
		return errs.NewInternalError("failed to delete session", err)
	}
	if !existed {
		return errs.NewNotFound("session")
	}
	return nil
}

// ValidateToken checks the signature and expiry and returns the session id.
func (s *SessionService) ValidateToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", errs.NewUnauthorizedError("invalid session token")
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", errs.NewUnauthorizedError("invalid session token")
	}
	return claims.Subject, nil
}

// CleanupExpired sweeps sessions past their expiry; intended to run
// periodically from the process entry point.
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	swept, err := s.store.DeleteExpired(s.now().UTC())
	if err != nil {
		return 0, errs.NewInternalError("failed to sweep expired sessions", err)
	}
	if swept > 0 {
		s.logger.Info().Int64("swept", swept).Msg("expired sessions removed")
	}
	return swept, nil
}
