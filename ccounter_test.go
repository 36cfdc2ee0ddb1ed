package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCCounterIncDec(t *testing.T) {
	c := NewCCounter("n1")
	_, err := c.Inc(5)
	assert.NoError(t, err)
	_, _ = c.Inc(3)
	_, _ = c.Dec(2)
	assert.Equal(t, int64(6), c.Read())

	// each update replaces this replica's dot rather than piling up
	assert.Equal(t, 1, c.Kernel().Len())
}

func TestCCounterConverges(t *testing.T) {
	c1 := NewCCounter("n1")
	c2 := NewCCounter("n2")

	d1, _ := c1.Inc(5)
	d2, _ := c2.Inc(10)

	assert.NoError(t, c1.Join(d2))
	assert.NoError(t, c2.Join(d1))
	assert.Equal(t, int64(15), c1.Read())
	assert.Equal(t, int64(15), c2.Read())

	// duplicates are harmless
	assert.NoError(t, c1.Join(d2))
	assert.Equal(t, int64(15), c1.Read())

	d3, _ := c1.Inc(1)
	assert.NoError(t, c2.Join(d3))
	assert.Equal(t, c1.Read(), c2.Read())
	assert.Equal(t, int64(16), c2.Read())
}

func TestCCounterReset(t *testing.T) {
	c1 := NewCCounter("n1")
	c2 := NewCCounter("n2")

	d1, _ := c1.Inc(5)
	assert.NoError(t, c2.Join(d1))

	rst := c1.Reset()
	assert.Zero(t, c1.Read())
	assert.NoError(t, c2.Join(rst))
	assert.Zero(t, c2.Read())

	// counting resumes after a reset
	d2, _ := c1.Inc(2)
	assert.NoError(t, c2.Join(d2))
	assert.Equal(t, int64(2), c2.Read())
}
