package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garnizeh/showcase/internal/auth"
	"github.com/garnizeh/showcase/pkg/models"
)

func TestIssuer_RoundTrip(t *testing.T) {
	now := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	clk := &clock{t: now}
	iss := auth.NewIssuer("secret", 0).WithClock(clk.Now)
	assert.Equal(t, 24*time.Hour, iss.TTL())

	u := &models.AdminUser{ID: 9, Email: "ed@example.com", Role: models.RoleEditor, Permissions: auth.For(models.RoleEditor)}
	tok, exp, err := iss.Issue(u)
	require.NoError(t, err)
	assert.Equal(t, now.Add(24*time.Hour), exp)

	claims, err := iss.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(9), claims.UserID)
	assert.Equal(t, "ed@example.com", claims.Email)
	assert.Equal(t, models.RoleEditor, claims.Role)
	assert.True(t, auth.Allowed(claims.Permissions, auth.ResourceBlog, auth.ActionWrite))

	clk.Advance(25 * time.Hour)
	_, err = iss.Parse(tok)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestIssuer_RejectsForeignTokens(t *testing.T) {
	iss := auth.NewIssuer("secret", time.Hour)
	other := auth.NewIssuer("other-secret", time.Hour)

	tok, _, err := other.Issue(&models.AdminUser{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)
	_, err = iss.Parse(tok)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = iss.Parse("not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// unsigned tokens are never accepted
	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"uid": 1, "iss": "showcase", "exp": time.Now().Add(time.Hour).Unix()})
	s, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = iss.Parse(s)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
