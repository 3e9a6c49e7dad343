package common

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	SetJWTSecretForTest([]byte("test-secret"))

	token, err := GenerateToken("alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserID)
	assert.Equal(t, "researchhub", claims.Issuer)
}

func TestValidToken_WrongSecret(t *testing.T) {
	SetJWTSecretForTest([]byte("secret-a"))
	token, err := GenerateToken("alice")
	require.NoError(t, err)

	SetJWTSecretForTest([]byte("secret-b"))
	_, err = ValidToken(token)
	assert.Error(t, err)
}

func TestValidToken_Garbage(t *testing.T) {
	SetJWTSecretForTest([]byte("test-secret"))

	_, err := ValidToken("not.a.token")
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	SetJWTSecretForTest([]byte("test-secret"))

	var gotUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := AuthMiddleware(next)

	token, err := GenerateToken("alice")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUserID string
	}{
		{"valid token", "Bearer " + token, http.StatusOK, "alice"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized, ""},
		{"no token", "Bearer", http.StatusUnauthorized, ""},
		{"invalid token", "Bearer junk", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUserID = ""
			req := httptest.NewRequest("GET", "/api/v1/notifications", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, tt.wantUserID, gotUserID)
		})
	}
}

func TestUserIDFromContext_Missing(t *testing.T) {
	assert.Empty(t, UserIDFromContext(context.Background()))
}

func TestContextWithUserID(t *testing.T) {
	ctx := ContextWithUserID(context.Background(), "alice")
	assert.Equal(t, "alice", UserIDFromContext(ctx))
}
