package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", "log"},
		{"log", "log"},
		{"clip", "clip"},
		{"halt", "halt"},
	}
	for _, tt := range tests {
		policy, err := FromName(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, policy.Name())
	}

	_, err := FromName("ignore")
	require.Error(t, err)
}

func TestLogPolicyPassesFillThrough(t *testing.T) {
	p := &LogPolicy{}
	allowed, err := p.Apply("PEARLS", 30, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(30), allowed)
}

func TestClipPolicy(t *testing.T) {
	p := &ClipPolicy{}

	tests := []struct {
		name     string
		fill     int64
		position int64
		want     int64
	}{
		{"buy clipped to limit", 30, 5, 15},
		{"buy with no room", 10, 20, 0},
		{"buy already past limit", 10, 25, 0},
		{"sell clipped to limit", -30, -5, -15},
		{"sell with no room", -10, -20, 0},
		{"sell already past limit", -10, -25, 0},
		{"fill within limit untouched", 8, 5, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, err := p.Apply("PEARLS", tt.fill, tt.position, 20)
			require.NoError(t, err)
			assert.Equal(t, tt.want, allowed)
		})
	}
}

func TestHaltPolicyErrors(t *testing.T) {
	p := &HaltPolicy{}
	_, err := p.Apply("PEARLS", 30, 0, 20)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPositionLimit)
}
