package middleware_test

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "securelife/internal/jwt_token"
	"securelife/internal/platform/middleware"
	"securelife/pkg/requestcontext"
	"securelife/pkg/testutil"
)

func authHandler(t *testing.T) (http.Handler, *jwttoken.JWTService, *uuid.UUID) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := jwttoken.NewJWTService("test-signing-key", "securelife", "securelife-api")

	var seenUser uuid.UUID
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser = uuid.UUID(requestcontext.UserID(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
	return middleware.RequireAuth(jwttoken.NewJWTServiceAdapter(svc), logger)(inner), svc, &seenUser
}

func TestRequireAuth_ValidToken(t *testing.T) {
	h, svc, seenUser := authHandler(t)

	userID := uuid.New()
	token, err := svc.GenerateAccessToken(userID, "customer", time.Hour)
	require.NoError(t, err)

	req := testutil.NewRequest(t, http.MethodGet, "/policy/123/schedule")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := testutil.DoRequest(h, req)

	testutil.AssertStatusOK(t, rr)
	assert.Equal(t, userID, *seenUser)
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	h, _, _ := authHandler(t)

	rr := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/policy/123/schedule"))

	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
}

func TestRequireAuth_MalformedToken(t *testing.T) {
	h, _, _ := authHandler(t)

	req := testutil.NewRequest(t, http.MethodGet, "/policy/123/schedule")
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rr := testutil.DoRequest(h, req)

	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	h, svc, _ := authHandler(t)

	token, err := svc.GenerateAccessToken(uuid.New(), "customer", -time.Minute)
	require.NoError(t, err)

	req := testutil.NewRequest(t, http.MethodGet, "/policy/123/schedule")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := testutil.DoRequest(h, req)

	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestRequireAuth_WrongSigningKey(t *testing.T) {
	h, _, _ := authHandler(t)

	other := jwttoken.NewJWTService("other-key", "securelife", "securelife-api")
	token, err := other.GenerateAccessToken(uuid.New(), "customer", time.Hour)
	require.NoError(t, err)

	req := testutil.NewRequest(t, http.MethodGet, "/policy/123/schedule")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := testutil.DoRequest(h, req)

	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}
