package repo

import (
	"github.com/hashicorp/go-memdb"

	"github.com/mssentry/mssentry/memstore"
	"github.com/mssentry/mssentry/model"
)

const (
	GrantEdgeIndex    = "edge"
	GrantGranteeIndex = "grantee"
)

func GrantSchema() map[string]*memdb.TableSchema {
	return map[string]*memdb.TableSchema{
		model.GrantType: {
			Name: model.GrantType,
			Indexes: map[string]*memdb.IndexSchema{
				PK: {
					Name:   PK,
					Unique: true,
					Indexer: &memdb.UUIDFieldIndex{
						Field: "UUID",
					},
				},
				GrantEdgeIndex: {
					Name:   GrantEdgeIndex,
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "Grantee"},
							&memdb.StringFieldIndex{Field: "Permission"},
							&EmptiableStringFieldIndex{Field: "ObjectName"},
							&EmptiableStringFieldIndex{Field: "Database"},
						},
					},
				},
				GrantGranteeIndex: {
					Name: GrantGranteeIndex,
					Indexer: &memdb.StringFieldIndex{
						Field: "Grantee",
					},
				},
			},
		},
	}
}

type GrantRepository struct {
	db *memstore.MemoryStoreTxn
}

func NewGrantRepository(tx *memstore.MemoryStoreTxn) *GrantRepository {
	return &GrantRepository{db: tx}
}

func (r *GrantRepository) Put(g *model.PermissionGrant) error {
	return r.db.Insert(model.GrantType, g)
}

func (r *GrantRepository) GetByID(id model.GrantID) (*model.PermissionGrant, error) {
	raw, err := r.db.First(model.GrantType, PK, id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, model.ErrNotFound
	}
	return raw.(*model.PermissionGrant), nil
}

func (r *GrantRepository) GetEdge(grantee, permission, objectName, database string) (*model.PermissionGrant, error) {
	raw, err := r.db.First(model.GrantType, GrantEdgeIndex, grantee, permission, objectName, database)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, model.ErrNotFound
	}
	return raw.(*model.PermissionGrant), nil
}

func (r *GrantRepository) ListByGrantee(grantee string) ([]*model.PermissionGrant, error) {
	iter, err := r.db.Get(model.GrantType, GrantGranteeIndex, grantee)
	if err != nil {
		return nil, err
	}

	list := []*model.PermissionGrant{}
	for {
		raw := iter.Next()
		if raw == nil {
			break
		}
		list = append(list, raw.(*model.PermissionGrant))
	}
	return list, nil
}

func (r *GrantRepository) Delete(id model.GrantID) error {
	g, err := r.GetByID(id)
	if err != nil {
		return err
	}
	return r.db.Delete(model.GrantType, g)
}
