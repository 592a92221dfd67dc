package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/conselho-tutelar/atendimento-service/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const minSecretLength = 32

// Claims represents session token claims. RegisteredClaims.ID holds the
// session id tracked in the session store.
type Claims struct {
	UserID int64       `json:"user_id"`
	Name   string      `json:"nome"`
	Role   models.Role `json:"perfil"`
	jwt.RegisteredClaims
}

// JWTService defines session token operations.
type JWTService interface {
	GenerateToken(user *models.User) (string, *Claims, error)
	ValidateToken(tokenString string) (*Claims, error)
	GetExpiry() time.Duration
}

type jwtService struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewJWTService creates a new JWTService instance. The secret must be at
// least 32 bytes.
func NewJWTService(secret string, expiry time.Duration) (JWTService, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", minSecretLength)
	}
	if expiry <= 0 {
		return nil, errors.New("jwt expiry must be positive")
	}
	return &jwtService{secret: []byte(secret), expiry: expiry, now: time.Now}, nil
}

func (s *jwtService) GenerateToken(user *models.User) (string, *Claims, error) {
	now := s.now()
	claims := &Claims{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", user.ID),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

func (s *jwtService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.ID != "" {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

func (s *jwtService) GetExpiry() time.Duration {
	return s.expiry
}
