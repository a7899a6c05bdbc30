package authdomain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClaims_IsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"future", time.Now().Add(time.Hour), false},
		{"past", time.Now().Add(-time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Claims{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, c.IsExpired())
		})
	}
}

func TestClaimsContext(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)

	in := &Claims{Subject: "TEAM01", TeamCode: "TEAM01", Round: 2, Role: RoleTeam}
	out, ok := ClaimsFromContext(WithClaims(context.Background(), in))
	assert.True(t, ok)
	assert.Same(t, in, out)
	assert.False(t, out.IsAdmin())
}

func TestRole_IsValid(t *testing.T) {
	assert.True(t, RoleTeam.IsValid())
	assert.True(t, RoleAdmin.IsValid())
	assert.False(t, Role("viewer").IsValid())
}
