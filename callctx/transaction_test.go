package callctx

import (
	"testing"

	"github.com/scopevm/vm/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBegin(t *testing.T) {
	tx := Begin("stu", core.SubmissionName, "indirect", "call_direct")

	assert.Equal(t, core.Identity("stu"), tx.Signer())
	assert.Equal(t, core.SubmissionName, tx.SubmissionName())
	require.NotNil(t, tx.Stack())
	assert.Equal(t, 1, tx.Stack().Depth())
}

func TestSignerInvariantAcrossFrames(t *testing.T) {
	tx := Begin("stu", core.SubmissionName, "a", "start")

	require.NoError(t, tx.Stack().Push("a", "b"))
	require.NoError(t, tx.Stack().Push("b", "c"))
	assert.Equal(t, core.Identity("stu"), tx.Signer())

	require.NoError(t, tx.Stack().Pop())
	assert.Equal(t, core.Identity("stu"), tx.Signer())
}

func TestEnd(t *testing.T) {
	tx := Begin("stu", core.SubmissionName, "a", "start")

	tx.End()
	assert.Nil(t, tx.Stack())
}
