package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEWFlagEnableDisable(t *testing.T) {
	f := NewEWFlag("n1")
	assert.False(t, f.Read())

	_, err := f.Enable()
	assert.NoError(t, err)
	assert.True(t, f.Read())

	_ = f.Disable()
	assert.False(t, f.Read())
}

func TestEWFlagEnableWins(t *testing.T) {
	f1 := NewEWFlag("n1")
	f2 := NewEWFlag("n2")

	d, _ := f1.Enable()
	f2.Join(d)
	assert.True(t, f2.Read())

	// concurrent: f1 disables, f2 enables again
	off := f1.Disable()
	on, _ := f2.Enable()

	f1.Join(on)
	f2.Join(off)

	assert.True(t, f1.Read())
	assert.True(t, f2.Read())
	assert.Equal(t, f1.Kernel().String(), f2.Kernel().String())
}
