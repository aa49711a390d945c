package cache_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeverse/fileconn/cache"
)

func TestParseTTL(t *testing.T) {
	cases := []struct {
		name  string
		value interface{}
		want  time.Duration
	}{
		{name: "int seconds", value: 3600, want: time.Hour},
		{name: "int64 seconds", value: int64(90), want: 90 * time.Second},
		{name: "float seconds", value: 1.5, want: 1500 * time.Millisecond},
		{name: "duration", value: 2 * time.Minute, want: 2 * time.Minute},
		{name: "duration string", value: "1h30m", want: 90 * time.Minute},
		{name: "numeric string", value: "60", want: time.Minute},
		{name: "zero", value: 0, want: 0},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cache.ParseTTL(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTTLInvalid(t *testing.T) {
	for _, v := range []interface{}{-1, -0.5, "soon", math.NaN(), []int{1}, nil, -time.Second} {
		_, err := cache.ParseTTL(v)
		assert.True(t, errors.Is(err, cache.ErrInvalidTTL), "value %v: got %v", v, err)
	}
}
