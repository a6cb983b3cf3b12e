package gateway

import (
	"bytes"
	"log/slog"
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tatami-backend/internal/domain/entity"
)

func signedToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": subject})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestAuthenticator_Permissive(t *testing.T) {
	auth := NewAuthenticator(false, nil)

	tests := []struct {
		name        string
		setup       func(http.Header)
		wantSubject string
	}{
		{
			name:        "no credentials admitted",
			setup:       func(h http.Header) {},
			wantSubject: "",
		},
		{
			name: "bearer token subject extracted",
			setup: func(h http.Header) {
				h.Set("Authorization", "Bearer "+signedToken(t, "ana@example.com"))
			},
			wantSubject: "ana@example.com",
		},
		{
			name: "garbage bearer token still admitted",
			setup: func(h http.Header) {
				h.Set("Authorization", "Bearer not-a-jwt")
			},
			wantSubject: "",
		},
		{
			name: "api key admitted",
			setup: func(h http.Header) {
				h.Set("X-API-Key", "some-key")
			},
			wantSubject: "api-key",
		},
		{
			name: "non-bearer authorization treated as absent",
			setup: func(h http.Header) {
				h.Set("Authorization", "Basic dXNlcjpwYXNz")
			},
			wantSubject: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			tt.setup(headers)

			subject, err := auth.Authenticate(headers)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSubject, subject)
		})
	}
}

func TestAuthenticator_Strict(t *testing.T) {
	auth := NewAuthenticator(true, nil)

	// 資格情報なしは拒否
	_, err := auth.Authenticate(http.Header{})
	assert.ErrorIs(t, err, entity.ErrAuthRejected)

	// 解析不能なトークンも拒否
	headers := http.Header{}
	headers.Set("Authorization", "Bearer not-a-jwt")
	_, err = auth.Authenticate(headers)
	assert.ErrorIs(t, err, entity.ErrAuthRejected)

	// 正しいトークンは通る
	headers = http.Header{}
	headers.Set("Authorization", "Bearer "+signedToken(t, "bruno@example.com"))
	subject, err := auth.Authenticate(headers)
	require.NoError(t, err)
	assert.Equal(t, "bruno@example.com", subject)
}

func TestAuthenticator_PermissiveLogsCredentialPresence(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	auth := NewAuthenticator(false, logger)

	// 資格情報ありとなしで別々の監査行が出る
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+signedToken(t, "ana@example.com"))
	_, err := auth.Authenticate(headers)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "credentials verified via bearer token")

	buf.Reset()
	_, err = auth.Authenticate(http.Header{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no credentials supplied, admitting under permissive policy")
}

func TestSubjectFromToken_NoSubjectClaim(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"aud": "tatami"})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	subject, err := subjectFromToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "unknown", subject)
}
