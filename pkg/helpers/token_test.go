package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenCodecRoundTrip(t *testing.T) {
	codec := NewTokenCodec("s3cret", time.Hour)
	tok, err := codec.Mint("p1", "Ada", "ada@example.com")
	require.NoError(t, err)

	claims, err := codec.Parse(tok)
	require.NoError(t, err)
	require.Equal(t, "p1", claims.Subject)
	require.Equal(t, "Ada", claims.Name)
	require.Equal(t, "ada@example.com", claims.Email)
}

func TestTokenCodecRejectsWrongSecret(t *testing.T) {
	tok, err := NewTokenCodec("one", time.Hour).Mint("p1", "", "")
	require.NoError(t, err)

	_, err = NewTokenCodec("two", time.Hour).Parse(tok)
	require.Error(t, err)
}

func TestTokenCodecRejectsExpired(t *testing.T) {
	codec := NewTokenCodec("s3cret", -time.Minute)
	tok, err := codec.Mint("p1", "", "")
	require.NoError(t, err)

	_, err = codec.Parse(tok)
	require.Error(t, err)
}
