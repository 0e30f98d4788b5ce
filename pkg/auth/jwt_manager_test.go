package auth

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

func TestIssueParse(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	userID := uuid.New()

	token, expiresAt, err := m.Issue(userID)
	if err != nil {
		t.Fatal(err)
	}
	id, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if id.UserID != userID {
		t.Errorf("expected user %s, got %s", userID, id.UserID)
	}
	if id.TokenID == "" {
		t.Errorf("token must carry a jti")
	}
	if !id.ExpiresAt.Equal(expiresAt.Truncate(time.Second)) {
		t.Errorf("expiry mismatch: %v vs %v", id.ExpiresAt, expiresAt)
	}

	second, _, _ := m.Issue(userID)
	if other, _ := m.Parse(second); other.TokenID == id.TokenID {
		t.Errorf("each token needs its own jti")
	}
}

func TestParseRejects(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	good, _, _ := m.Issue(uuid.New())
	expired, _, _ := NewJWTManager("secret", -time.Minute).Issue(uuid.New())
	foreignKey, _, _ := NewJWTManager("other", time.Hour).Issue(uuid.New())

	foreignIssuer, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))

	badSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "abc"},
		{"expired", expired},
		{"foreign key", foreignKey},
		{"foreign issuer", foreignIssuer},
		{"bad subject", badSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Parse(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}

	if _, err := m.Parse(good); err != nil {
		t.Errorf("good token rejected: %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer ", "", false},
		{"Token abc", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		r, _ := http.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", tt.header)
		token, err := BearerToken(r)
		if (err == nil) != tt.ok || token != tt.token {
			t.Errorf("header %q: got %q, %v", tt.header, token, err)
		}
	}
}
