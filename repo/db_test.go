package repo

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/mssentry/mssentry/memstore"
)

func Test_Schema(t *testing.T) {
	schema, err := GetSchema()
	require.NoError(t, err)
	require.NoError(t, schema.Validate())
}

func testStore(t *testing.T) *memstore.MemoryStore {
	t.Helper()
	schema, err := GetSchema()
	require.NoError(t, err)
	store, err := memstore.NewMemoryStore(schema, hclog.NewNullLogger())
	require.NoError(t, err)
	return store
}
