package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	s := Session{ID: "s1", Email: "a@b.com", ExpiresAt: now.Add(time.Hour)}

	assert.False(t, s.Expired(now))
	assert.False(t, s.Expired(now.Add(time.Hour)))
	assert.True(t, s.Expired(now.Add(time.Hour+time.Second)))
}
