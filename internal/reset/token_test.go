package reset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openkcm/storefront-client/internal/reset"
)

func TestTokenStore(t *testing.T) {
	var s reset.TokenStore

	_, ok := s.Current()
	assert.False(t, ok)

	s.Replace("T1")
	token, ok := s.Current()
	assert.True(t, ok)
	assert.Equal(t, "T1", token)

	s.Replace("T2")
	token, _ = s.Current()
	assert.Equal(t, "T2", token, "token must be replaced, not merged")

	s.Clear()
	_, ok = s.Current()
	assert.False(t, ok)
}
