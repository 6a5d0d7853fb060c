package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	a := New("1", 100, 200)
	b := New("1", 150, 250)
	c := New("1", 200, 300)
	d := New("2", 150, 250)
	assert.True(t, Overlaps(a, b))
	assert.True(t, Overlaps(b, a))
	assert.False(t, Overlaps(a, c), "half-open regions touching at a boundary do not overlap")
	assert.False(t, Overlaps(a, d), "different contigs never overlap")
}

func TestContains(t *testing.T) {
	outer := New("1", 100, 200)
	assert.True(t, Contains(outer, New("1", 100, 200)))
	assert.True(t, Contains(outer, New("1", 150, 160)))
	assert.False(t, Contains(outer, New("1", 99, 200)))
	assert.False(t, Contains(outer, New("1", 100, 201)))
}

func TestInnerDistance(t *testing.T) {
	a := New("1", 100, 200)
	b := New("1", 250, 300)
	assert.Equal(t, int64(50), InnerDistance(a, b))
	assert.Equal(t, int64(50), InnerDistance(b, a))

	c := New("1", 150, 300)
	assert.True(t, InnerDistance(a, c) < 0, "overlapping regions have negative inner distance")
}

func TestIntervening(t *testing.T) {
	a := New("1", 0, 50)
	b := New("1", 100, 150)
	got := Intervening(a, b)
	assert.Equal(t, New("1", 50, 100), got)
}

func TestEncompassing(t *testing.T) {
	a := New("1", 10, 20)
	b := New("1", 15, 40)
	assert.Equal(t, New("1", 10, 40), Encompassing(a, b))
}

func TestShiftAndTail(t *testing.T) {
	prev := New("1", 0, 0)
	sentinel := Shift(TailRegion(prev), 2)
	assert.Equal(t, New("1", 2, 2), sentinel)
}

func TestOrdering(t *testing.T) {
	a := New("1", 10, 20)
	b := New("1", 10, 30)
	c := New("2", 0, 1)
	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.False(t, a.Less(a))
}
