package safeconv_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/icepack-dev/icepack/pkg/safeconv"
)

func TestMustUint64ToInt64(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(0), safeconv.MustUint64ToInt64(0))
	assert.Equal(t, int64(42), safeconv.MustUint64ToInt64(42))
	assert.Equal(t, int64(math.MaxInt64), safeconv.MustUint64ToInt64(uint64(math.MaxInt64)))

	assert.Panics(t, func() {
		safeconv.MustUint64ToInt64(uint64(math.MaxInt64) + 1)
	})
}

func TestMustInt64ToUint64(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(0), safeconv.MustInt64ToUint64(0))
	assert.Equal(t, uint64(42), safeconv.MustInt64ToUint64(42))
	assert.Equal(t, uint64(math.MaxInt64), safeconv.MustInt64ToUint64(math.MaxInt64))

	assert.Panics(t, func() {
		safeconv.MustInt64ToUint64(-1)
	})
}
