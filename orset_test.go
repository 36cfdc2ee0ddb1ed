package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAWORSetAddRemove(t *testing.T) {
	s := NewAWORSet[string]("n1")
	_, err := s.Add("x")
	assert.NoError(t, err)
	_, _ = s.Add("y")

	assert.ElementsMatch(t, []string{"x", "y"}, s.Elements())
	assert.True(t, s.Contains("x"))

	_ = s.Remove("x")
	assert.Equal(t, []string{"y"}, s.Elements())
	assert.False(t, s.Contains("x"))
}

func TestAWORSetAddWins(t *testing.T) {
	s1 := NewAWORSet[string]("n1")
	s2 := NewAWORSet[string]("n2")

	d, _ := s1.Add("x")
	s2.Join(d)
	assert.True(t, s2.Contains("x"))

	// concurrent: s1 removes x, s2 re-adds x
	rm := s1.Remove("x")
	re, _ := s2.Add("x")

	s1.Join(re)
	s2.Join(rm)

	// the re-add used a dot the remove never observed
	assert.True(t, s1.Contains("x"))
	assert.True(t, s2.Contains("x"))
	assert.Equal(t, s1.Kernel().String(), s2.Kernel().String())
}

func TestAWORSetDuplicateAdds(t *testing.T) {
	s := NewAWORSet[string]("n1")
	_, _ = s.Add("x")
	_, _ = s.Add("x")
	assert.Equal(t, []string{"x"}, s.Elements())
	assert.Equal(t, 1, s.Kernel().Len())
}

func TestAWORSetConverges(t *testing.T) {
	s1 := NewAWORSet[int]("n1")
	s2 := NewAWORSet[int]("n2")

	var deltas1, deltas2 []*DotKernel[int]
	for _, v := range []int{1, 2, 3} {
		d, _ := s1.Add(v)
		deltas1 = append(deltas1, d)
	}
	d, _ := s2.Add(7)
	deltas2 = append(deltas2, d)
	deltas2 = append(deltas2, s2.Remove(7))

	// deliver out of order, with duplicates
	for i := len(deltas1) - 1; i >= 0; i-- {
		s2.Join(deltas1[i])
		s2.Join(deltas1[i])
	}
	for _, d := range deltas2 {
		s1.Join(d)
	}
	assert.Equal(t, s1.Kernel().String(), s2.Kernel().String())
	assert.ElementsMatch(t, []int{1, 2, 3}, s1.Elements())
}
