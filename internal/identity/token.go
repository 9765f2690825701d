// Package identity issues and validates the signed bearer tokens that carry a
// caller's department and department role.
package identity

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "trustrag/pkg/domain-errors"
	authmw "trustrag/pkg/platform/middleware/auth"
)

const (
	DefaultIssuer   = "trustrag"
	DefaultAudience = "trustrag-api"
	DefaultTTL      = time.Hour
)

// Claims are the JWT claims of an access token.
type Claims struct {
	UserID         string `json:"user_id"`
	SessionID      string `json:"session_id"`
	Department     string `json:"department"`
	DepartmentRole string `json:"department_role"`
	jwt.RegisteredClaims
}

// Subject identifies who a token is issued to.
type Subject struct {
	UserID         string
	SessionID      string
	Department     string
	DepartmentRole string
}

// TokenService signs and verifies HS256 access tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
	audience   string
	now        func() time.Time
}

type Option func(*TokenService)

func WithIssuer(issuer string) Option {
	return func(s *TokenService) { s.issuer = issuer }
}

func WithAudience(audience string) Option {
	return func(s *TokenService) { s.audience = audience }
}

func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

func NewTokenService(signingKey string, opts ...Option) (*TokenService, error) {
	if signingKey == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "signing key is required")
	}
	s := &TokenService{
		signingKey: []byte(signingKey),
		issuer:     DefaultIssuer,
		audience:   DefaultAudience,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for sub valid for ttl. An empty SessionID gets a fresh
// uuid.
func (s *TokenService) Issue(sub Subject, ttl time.Duration) (string, error) {
	if strings.TrimSpace(sub.UserID) == "" {
		return "", dErrors.New(dErrors.CodeValidation, "user is required")
	}
	if strings.TrimSpace(sub.Department) == "" || strings.TrimSpace(sub.DepartmentRole) == "" {
		return "", dErrors.New(dErrors.CodeValidation, "department and department role are required")
	}
	if ttl == 0 {
		ttl = DefaultTTL
	}
	if sub.SessionID == "" {
		sub.SessionID = uuid.NewString()
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:         sub.UserID,
		SessionID:      sub.SessionID,
		Department:     sub.Department,
		DepartmentRole: sub.DepartmentRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, nil
}

// Validate parses and verifies a token, including issuer and audience.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// MiddlewareAdapter exposes the service as an auth.TokenValidator.
type MiddlewareAdapter struct {
	service *TokenService
}

func NewMiddlewareAdapter(service *TokenService) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*authmw.Claims, error) {
	claims, err := a.service.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return &authmw.Claims{
		UserID:         claims.UserID,
		SessionID:      claims.SessionID,
		Department:     claims.Department,
		DepartmentRole: claims.DepartmentRole,
	}, nil
}
