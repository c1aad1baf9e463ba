package vm

import (
	"errors"
	"fmt"
)

var (
	ErrStackOverflow  = errors.New("stack overflow")
	ErrStackUnderflow = errors.New("stack underflow")
)

// Stack is a fixed-capacity LIFO of subroutine return addresses.
type Stack struct {
	entries []uint16
	sp      int
}

func NewStack(capacity int) *Stack {
	return &Stack{
		entries: make([]uint16, capacity),
	}
}

func (s *Stack) Push(addr uint16) error {
	if s.IsFull() {
		return fmt.Errorf("%w: depth %d", ErrStackOverflow, len(s.entries))
	}

	s.entries[s.sp] = addr
	s.sp++
	return nil
}

func (s *Stack) Pop() (uint16, error) {
	if s.IsEmpty() {
		return 0, ErrStackUnderflow
	}

	s.sp--
	return s.entries[s.sp], nil
}

// Top returns the most recently pushed address without removing it.
func (s *Stack) Top() (uint16, error) {
	if s.IsEmpty() {
		return 0, ErrStackUnderflow
	}

	return s.entries[s.sp-1], nil
}

func (s *Stack) Len() int { return s.sp }
func (s *Stack) Cap() int { return len(s.entries) }
func (s *Stack) IsEmpty() bool { return s.sp == 0 }
func (s *Stack) IsFull() bool { return s.sp == len(s.entries) }

// Entries returns a copy of the live part of the stack, bottom first.
func (s *Stack) Entries() []uint16 {
	out := make([]uint16, s.sp)
	copy(out, s.entries[:s.sp])
	return out
}

func (s *Stack) reset() {
	for i := range s.entries {
		s.entries[i] = 0
	}
	s.sp = 0
}
