package repository

import (
	"testing"

	"github.com/scopevm/vm/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndGet(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	fns := []core.FunctionName{"mint", "send", "balance_of"}
	require.NoError(t, m.RegisterContract("token", fns))

	meta, err := m.GetMetadata("token")
	require.NoError(t, err)
	assert.Equal(t, "token", meta.Name)
	assert.Equal(t, []string{"mint", "send", "balance_of"}, meta.Functions)
	assert.NotEmpty(t, meta.Hash)
	assert.False(t, meta.DeployTime.IsZero())

	// Duplicate registration is rejected
	assert.Error(t, m.RegisterContract("token", fns))
}

func TestGetMissing(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	_, err = m.GetMetadata("missing")
	assert.Error(t, err)
}

func TestListContracts(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	names, err := m.ListContracts()
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, m.RegisterContract("token", []core.FunctionName{"send"}))
	require.NoError(t, m.RegisterContract("wallet", []core.FunctionName{"withdraw"}))

	names, err = m.ListContracts()
	require.NoError(t, err)
	assert.ElementsMatch(t, []core.Identity{"token", "wallet"}, names)
}

func TestHashChangesWithFunctions(t *testing.T) {
	a := metadataHash("token", []string{"send", "mint"})
	b := metadataHash("token", []string{"send"})
	c := metadataHash("other", []string{"send", "mint"})

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, metadataHash("token", []string{"send", "mint"}))
}
