package goroutineid

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		stack string
		want  int64
	}{
		{"goroutine 123 [running]:\n", 123},
		{"goroutine 7", 7},
		{"goroutine 18446744073709551616 [running]:", 0},
		{"goroutine [running]:", 0},
		{"something else\n", 0},
		{"", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parse([]byte(tc.stack)), "%q", tc.stack)
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	id := Get()
	require.Greater(t, id, int64(0))
	assert.Equal(t, id, Get(), "stable within one goroutine")

	var other int64
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		other = Get()
	}()
	wg.Wait()
	assert.NotEqual(t, id, other)
	assert.Greater(t, other, int64(0))
}
