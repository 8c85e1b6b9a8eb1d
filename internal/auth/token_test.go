package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	token, expiresAt, err := tm.GenerateLinkToken("p1", "c1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := tm.ParseLinkToken(token)
	require.NoError(t, err)
	assert.Equal(t, "p1", claims.ParticipantID)
	assert.Equal(t, "c1", claims.CampaignID)
	assert.Equal(t, "p1", claims.Subject)
}

func TestLinkTokenRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	other := NewTokenManager("another-secret", time.Hour)

	token, _, err := tm.GenerateLinkToken("p1", "c1")
	require.NoError(t, err)

	_, err = other.ParseLinkToken(token)
	assert.Error(t, err)
}

func TestLinkTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	_, err := tm.ParseLinkToken("not.a.token")
	assert.Error(t, err)
}
