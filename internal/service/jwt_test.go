package service

import (
	"strings"
	"testing"
	"time"

	"github.com/conselho-tutelar/atendimento-service/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

const (
	testSecret = "test-secret-key-at-least-32-chars-long"
	testExpiry = 8 * time.Hour
)

func newTestJWTService(t *testing.T) *jwtService {
	t.Helper()
	svc, err := NewJWTService(testSecret, testExpiry)
	if err != nil {
		t.Fatalf("NewJWTService() error = %v", err)
	}
	return svc.(*jwtService)
}

// =============================================================================
// Constructor Tests
// =============================================================================

func TestNewJWTService(t *testing.T) {
	svc := newTestJWTService(t)
	if got := svc.GetExpiry(); got != testExpiry {
		t.Errorf("GetExpiry() = %v, want %v", got, testExpiry)
	}
}

func TestNewJWTService_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		expiry time.Duration
	}{
		{"empty secret", "", testExpiry},
		{"short secret", "short", testExpiry},
		{"zero expiry", testSecret, 0},
		{"negative expiry", testSecret, -time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewJWTService(tt.secret, tt.expiry)
			if err == nil {
				t.Error("NewJWTService() expected error")
			}
			if svc != nil {
				t.Error("NewJWTService() should return nil service on error")
			}
		})
	}
}

// =============================================================================
// Token Round Trip
// =============================================================================

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWTService(t)
	user := &models.User{ID: 7, Name: "Maria", Login: "maria", Role: models.RoleCounselor}

	token, claims, err := svc.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("token = %q, want three JWT segments", token)
	}
	if claims.ID == "" {
		t.Error("claims.ID should hold a session id")
	}

	got, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if got.UserID != 7 || got.Name != "Maria" || got.Role != models.RoleCounselor {
		t.Errorf("claims = %+v, want user 7 Maria Conselheiro", got)
	}
	if got.ID != claims.ID {
		t.Errorf("session id = %q, want %q", got.ID, claims.ID)
	}
}

func TestGenerateToken_UniqueSessionIDs(t *testing.T) {
	svc := newTestJWTService(t)
	user := &models.User{ID: 1, Role: models.RoleAdministrator}

	_, first, err := svc.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	_, second, err := svc.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if first.ID == second.ID {
		t.Error("two logins should not share a session id")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestJWTService(t)
	issued := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	token, _, err := svc.GenerateToken(&models.User{ID: 1, Role: models.RoleAdministrator})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	svc.now = func() time.Time { return issued.Add(testExpiry + time.Second) }
	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("ValidateToken() should reject an expired token")
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc := newTestJWTService(t)
	token, _, err := svc.GenerateToken(&models.User{ID: 1, Role: models.RoleAdministrator})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	other, err := NewJWTService("another-secret-that-is-32-bytes-long!", testExpiry)
	if err != nil {
		t.Fatalf("NewJWTService() error = %v", err)
	}
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("ValidateToken() should reject a token signed with another secret")
	}
}

func TestValidateToken_Malformed(t *testing.T) {
	svc := newTestJWTService(t)
	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := svc.ValidateToken(token); err == nil {
			t.Errorf("ValidateToken(%q) expected error", token)
		}
	}
}

func TestValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	svc := newTestJWTService(t)
	claims := &Claims{
		UserID: 1,
		Role:   models.RoleAdministrator,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "sid",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("ValidateToken() should reject unsigned tokens")
	}
}

func TestValidateToken_RequiresSessionID(t *testing.T) {
	svc := newTestJWTService(t)
	claims := &Claims{
		UserID: 1,
		Role:   models.RoleAdministrator,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("ValidateToken() should reject tokens without a session id")
	}
}
