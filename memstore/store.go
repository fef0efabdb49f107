// Package memstore wraps hashicorp/go-memdb as the local tracking
// mirror of the target instance. It is rebuilt from the remote catalog
// at startup and refreshed on every orchestrated operation.
package memstore

import (
	log "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-memdb"
)

type MemoryStore struct {
	*memdb.MemDB

	logger log.Logger
}

type MemoryStoreTxn struct {
	*memdb.Txn

	store *MemoryStore // crosslink
}

func NewMemoryStore(schema *memdb.DBSchema, logger log.Logger) (*MemoryStore, error) {
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNullLogger()
	}
	return &MemoryStore{
		MemDB:  db,
		logger: logger.Named("memstore"),
	}, nil
}

func (ms *MemoryStore) Txn(write bool) *MemoryStoreTxn {
	return &MemoryStoreTxn{ms.MemDB.Txn(write), ms}
}

func (t *MemoryStoreTxn) Commit() error {
	t.Txn.Commit()
	return nil
}

func (t *MemoryStoreTxn) Abort() {
	t.Txn.Abort()
}
