package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueParse_RoundTrip(t *testing.T) {
	token, err := Issue("EMP001", "employee", "pointage", "key", time.Hour)
	require.NoError(t, err)

	claims, err := Parse(token, "key", "pointage")
	require.NoError(t, err)
	assert.Equal(t, "EMP001", claims.Matricule)
	assert.Equal(t, "employee", claims.Role)
	assert.Equal(t, "EMP001", claims.Subject)
}

func TestParse_RejectsWrongKey(t *testing.T) {
	token, err := Issue("EMP001", "employee", "pointage", "key", time.Hour)
	require.NoError(t, err)
	_, err = Parse(token, "other-key", "pointage")
	assert.Error(t, err)
}

func TestParse_RejectsWrongIssuer(t *testing.T) {
	token, err := Issue("EMP001", "employee", "someone-else", "key", time.Hour)
	require.NoError(t, err)
	_, err = Parse(token, "key", "pointage")
	assert.Error(t, err)
}

func TestParse_RejectsExpired(t *testing.T) {
	token, err := Issue("EMP001", "employee", "pointage", "key", -time.Minute)
	require.NoError(t, err)
	_, err = Parse(token, "key", "pointage")
	assert.Error(t, err)
}

func TestParse_RejectsGarbage(t *testing.T) {
	_, err := Parse("not-a-token", "key", "pointage")
	assert.Error(t, err)
}
