package repo

import (
	"github.com/hashicorp/go-memdb"

	"github.com/mssentry/mssentry/memstore"
	"github.com/mssentry/mssentry/model"
)

const RoleScopeIndex = "scope"

func RoleSchema() map[string]*memdb.TableSchema {
	return map[string]*memdb.TableSchema{
		model.RoleType: {
			Name: model.RoleType,
			Indexes: map[string]*memdb.IndexSchema{
				PK: {
					Name:   PK,
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&EmptiableStringFieldIndex{Field: "Database"},
							&memdb.StringFieldIndex{Field: "Name"},
						},
					},
				},
				RoleScopeIndex: {
					Name: RoleScopeIndex,
					Indexer: &memdb.StringFieldIndex{
						Field: "Scope",
					},
				},
			},
		},
	}
}

type RoleRepository struct {
	db *memstore.MemoryStoreTxn
}

func NewRoleRepository(tx *memstore.MemoryStoreTxn) *RoleRepository {
	return &RoleRepository{db: tx}
}

func (r *RoleRepository) Put(role *model.Role) error {
	return r.db.Insert(model.RoleType, role)
}

// GetByName resolves a role by its (database, name) pair; database is
// empty for server roles.
func (r *RoleRepository) GetByName(database string, name model.RoleName) (*model.Role, error) {
	raw, err := r.db.First(model.RoleType, PK, database, name)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, model.ErrNotFound
	}
	return raw.(*model.Role), nil
}

func (r *RoleRepository) Delete(database string, name model.RoleName) error {
	role, err := r.GetByName(database, name)
	if err != nil {
		return err
	}
	if role.IsBuiltIn {
		return model.ErrBuiltInRole
	}
	return r.db.Delete(model.RoleType, role)
}

// ListByScope lists the roles of one scope. For database scope a
// non-empty database narrows the result to that database.
func (r *RoleRepository) ListByScope(scope model.RoleScope, database string) ([]*model.Role, error) {
	iter, err := r.db.Get(model.RoleType, RoleScopeIndex, string(scope))
	if err != nil {
		return nil, err
	}

	list := []*model.Role{}
	for {
		raw := iter.Next()
		if raw == nil {
			break
		}
		role := raw.(*model.Role)
		if database != "" && role.Database != database {
			continue
		}
		list = append(list, role)
	}
	return list, nil
}
