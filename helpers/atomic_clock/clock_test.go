package atomic_clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock(t *testing.T) {
	t.Parallel()

	c := &Clock{}
	assert.True(t, c.IsZero())

	c.SetNow()
	assert.False(t, c.IsZero())
	assert.True(t, Since(c) >= 0)

	begin := New(1)
	end := New(int64(time.Second) + 1)
	assert.Equal(t, time.Second, end.Sub(begin))
	assert.Equal(t, int64(1), end.Unix())

	c.Set(42)
	c.SetIfZero(100)
	assert.Equal(t, int64(42), c.UnixNano())
}
