package callctx

import (
	"testing"

	"github.com/scopevm/vm/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStack(t *testing.T) {
	s := New("stu", "indirect", "call_direct")

	assert.Equal(t, 1, s.Depth())
	assert.Equal(t, core.Identity("indirect"), s.This())
	// At depth one the caller is the signer
	assert.Equal(t, core.Identity("stu"), s.Caller())

	contract, function, err := s.Entry()
	require.NoError(t, err)
	assert.Equal(t, core.Identity("indirect"), contract)
	assert.Equal(t, core.FunctionName("call_direct"), function)
}

func TestPushPop(t *testing.T) {
	s := New("stu", "indirect", "call_direct")

	// indirect calls who_am_i on direct
	require.NoError(t, s.Push("indirect", "direct"))
	assert.Equal(t, 2, s.Depth())
	assert.Equal(t, core.Identity("direct"), s.This())
	assert.Equal(t, core.Identity("indirect"), s.Caller())

	// Entry point is unchanged by the nested call
	contract, function, err := s.Entry()
	require.NoError(t, err)
	assert.Equal(t, core.Identity("indirect"), contract)
	assert.Equal(t, core.FunctionName("call_direct"), function)

	// The matching pop restores the pre-push view exactly
	require.NoError(t, s.Pop())
	assert.Equal(t, 1, s.Depth())
	assert.Equal(t, core.Identity("indirect"), s.This())
	assert.Equal(t, core.Identity("stu"), s.Caller())
}

func TestCallerFollowsCallChain(t *testing.T) {
	s := New("alice", "a", "start")

	require.NoError(t, s.Push("a", "b"))
	require.NoError(t, s.Push("b", "c"))

	// Inside c the caller is b, not the signer
	assert.Equal(t, core.Identity("c"), s.This())
	assert.Equal(t, core.Identity("b"), s.Caller())

	require.NoError(t, s.Pop())
	assert.Equal(t, core.Identity("b"), s.This())
	assert.Equal(t, core.Identity("a"), s.Caller())
}

func TestBalancedPushPop(t *testing.T) {
	s := New("alice", "a", "start")
	start := s.Depth()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Push(s.This(), core.Identity("callee")))
	}
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Pop())
	}

	assert.Equal(t, start, s.Depth())
	assert.Equal(t, core.Identity("a"), s.This())
	assert.Equal(t, core.Identity("alice"), s.Caller())
}

func TestPushOverflow(t *testing.T) {
	s := NewWithDepth("alice", "a", "start", 3)

	require.NoError(t, s.Push("a", "b"))
	require.NoError(t, s.Push("b", "c"))

	// A push beyond the bound fails and leaves the stack unmodified
	err := s.Push("c", "d")
	assert.ErrorIs(t, err, ErrStackOverflow)
	assert.Equal(t, 3, s.Depth())
	assert.Equal(t, core.Identity("c"), s.This())
	assert.Equal(t, core.Identity("b"), s.Caller())
}

func TestPopUnderflow(t *testing.T) {
	s := New("alice", "a", "start")

	err := s.Pop()
	assert.ErrorIs(t, err, ErrStackUnderflow)
	assert.Equal(t, 1, s.Depth())
}

func TestInvalidMaxDepthFallsBack(t *testing.T) {
	s := NewWithDepth("alice", "a", "start", 0)

	for i := 0; i < DefaultMaxCallDepth-1; i++ {
		require.NoError(t, s.Push(s.This(), core.Identity("callee")))
	}
	assert.ErrorIs(t, s.Push(s.This(), "callee"), ErrStackOverflow)
}

func TestMissingEntry(t *testing.T) {
	// A zero-value frame carries no entry point; only stacks built through
	// New are guaranteed one
	s := &Stack{frames: []Frame{{executing: "a", invoker: "alice"}}, maxDepth: DefaultMaxCallDepth}

	_, _, err := s.Entry()
	assert.ErrorIs(t, err, ErrMissingEntry)
}

func TestReentrantCalls(t *testing.T) {
	s := New("alice", "a", "start")

	// a calls b, b calls back into a
	require.NoError(t, s.Push("a", "b"))
	require.NoError(t, s.Push("b", "a"))

	assert.Equal(t, core.Identity("a"), s.This())
	assert.Equal(t, core.Identity("b"), s.Caller())
	assert.Equal(t, 3, s.Depth())
}
