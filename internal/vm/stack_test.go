package vm

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/retroenv/retrogolib/assert"
)

func TestStackPushPop(t *testing.T) {
	s := NewStack(StackSize)

	assert.NoError(t, s.Push(5))
	assert.NoError(t, s.Push(7))
	assert.Equal(t, 2, s.Len())
	if diff := cmp.Diff([]uint16{5, 7}, s.Entries()); diff != "" {
		t.Errorf("(-want, +got)\n%s", diff)
	}

	top, err := s.Top()
	assert.NoError(t, err)
	assert.Equal(t, uint16(7), top)

	v, err := s.Pop()
	assert.NoError(t, err)
	assert.Equal(t, uint16(7), v)

	v, err = s.Pop()
	assert.NoError(t, err)
	assert.Equal(t, uint16(5), v)

	assert.True(t, s.IsEmpty())
	assert.False(t, s.IsFull())
}

func TestStackOverflow(t *testing.T) {
	s := NewStack(StackSize)
	for i := 0; i < StackSize; i++ {
		assert.NoError(t, s.Push(uint16(i)))
	}
	assert.True(t, s.IsFull())

	err := s.Push(0x300)
	assert.True(t, errors.Is(err, ErrStackOverflow))
	assert.Equal(t, StackSize, s.Len())

	_, err = s.Pop()
	assert.NoError(t, err)
	assert.False(t, s.IsFull())
}

func TestStackUnderflow(t *testing.T) {
	s := NewStack(4)

	_, err := s.Pop()
	assert.True(t, errors.Is(err, ErrStackUnderflow))

	_, err = s.Top()
	assert.True(t, errors.Is(err, ErrStackUnderflow))
	assert.Equal(t, 0, s.Len())
}
