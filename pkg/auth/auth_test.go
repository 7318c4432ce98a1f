package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hashed, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hashed)
	assert.True(t, VerifyPassword("correct horse battery staple", hashed))
	assert.False(t, VerifyPassword("wrong password", hashed))
}

func TestIssueAndVerifyToken(t *testing.T) {
	issuer := New(Config{SigningKey: "test-signing-key", TTL: time.Hour})

	token, err := issuer.IssueToken("alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	username, err := issuer.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestVerifyToken_RejectsExpired(t *testing.T) {
	issuer := New(Config{SigningKey: "test-signing-key", TTL: -time.Minute})

	token, err := issuer.IssueToken("alice")
	require.NoError(t, err)

	_, err = issuer.VerifyToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_RejectsWrongKey(t *testing.T) {
	issuer := New(Config{SigningKey: "key-one", TTL: time.Hour})
	other := New(Config{SigningKey: "key-two", TTL: time.Hour})

	token, err := issuer.IssueToken("alice")
	require.NoError(t, err)

	_, err = other.VerifyToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	_, err = BearerToken("Basic abc")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = BearerToken("Bearer ")
	require.ErrorIs(t, err, ErrInvalidToken)
}
