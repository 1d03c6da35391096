package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		v, err := New()
		require.NoError(t, err)
		assert.Empty(t, v.signatureAlgorithm)
		assert.Zero(t, v.allowedClockSkew)
		assert.NotNil(t, v.clock)
	})

	testCases := []struct {
		name    string
		opt     Option
		wantErr string
	}{
		{
			name:    "unsupported algorithm",
			opt:     WithAlgorithm("none"),
			wantErr: "invalid option: unsupported signature algorithm: none",
		},
		{
			name:    "negative clock skew",
			opt:     WithAllowedClockSkew(-time.Second),
			wantErr: "invalid option: clock skew cannot be negative",
		},
		{
			name:    "nil clock",
			opt:     WithClock(nil),
			wantErr: "invalid option: clock cannot be nil",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			v, err := New(testCase.opt)
			assert.Nil(t, v)
			assert.EqualError(t, err, testCase.wantErr)
		})
	}

	t.Run("options are applied", func(t *testing.T) {
		now := time.Unix(100, 0)
		v, err := New(
			WithAlgorithm(PS384),
			WithAllowedClockSkew(5*time.Second),
			WithClock(func() time.Time { return now }),
		)
		require.NoError(t, err)
		assert.Equal(t, PS384, v.signatureAlgorithm)
		assert.Equal(t, 5*time.Second, v.allowedClockSkew)
		assert.Equal(t, now, v.clock())
	})
}
