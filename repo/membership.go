package repo

import (
	"github.com/hashicorp/go-memdb"

	"github.com/mssentry/mssentry/memstore"
	"github.com/mssentry/mssentry/model"
)

const (
	MembershipEdgeIndex      = "edge"
	MembershipRoleIndex      = "role"
	MembershipPrincipalIndex = "principal"
)

func MembershipSchema() map[string]*memdb.TableSchema {
	return map[string]*memdb.TableSchema{
		model.MembershipType: {
			Name: model.MembershipType,
			Indexes: map[string]*memdb.IndexSchema{
				PK: {
					Name:   PK,
					Unique: true,
					Indexer: &memdb.UUIDFieldIndex{
						Field: "UUID",
					},
				},
				// one row per (principal, role, database): revoked edges
				// are kept and reactivated, never duplicated
				MembershipEdgeIndex: {
					Name:   MembershipEdgeIndex,
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "Principal"},
							&memdb.StringFieldIndex{Field: "RoleName"},
							&EmptiableStringFieldIndex{Field: "Database"},
						},
					},
				},
				MembershipRoleIndex: {
					Name: MembershipRoleIndex,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "RoleName"},
							&EmptiableStringFieldIndex{Field: "Database"},
						},
					},
				},
				MembershipPrincipalIndex: {
					Name: MembershipPrincipalIndex,
					Indexer: &memdb.StringFieldIndex{
						Field: "Principal",
					},
				},
			},
		},
	}
}

type MembershipRepository struct {
	db *memstore.MemoryStoreTxn
}

func NewMembershipRepository(tx *memstore.MemoryStoreTxn) *MembershipRepository {
	return &MembershipRepository{db: tx}
}

func (r *MembershipRepository) Put(m *model.Membership) error {
	return r.db.Insert(model.MembershipType, m)
}

func (r *MembershipRepository) GetByID(id model.MembershipID) (*model.Membership, error) {
	raw, err := r.db.First(model.MembershipType, PK, id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, model.ErrNotFound
	}
	return raw.(*model.Membership), nil
}

// GetEdge returns the single membership row for the triple, whatever
// its state.
func (r *MembershipRepository) GetEdge(principal string, role model.RoleName, database string) (*model.Membership, error) {
	raw, err := r.db.First(model.MembershipType, MembershipEdgeIndex, principal, role, database)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, model.ErrNotFound
	}
	return raw.(*model.Membership), nil
}

func (r *MembershipRepository) ListByRole(role model.RoleName, database string) ([]*model.Membership, error) {
	return r.list(MembershipRoleIndex, role, database)
}

func (r *MembershipRepository) ListByPrincipal(principal string) ([]*model.Membership, error) {
	return r.list(MembershipPrincipalIndex, principal)
}

func (r *MembershipRepository) Delete(id model.MembershipID) error {
	m, err := r.GetByID(id)
	if err != nil {
		return err
	}
	return r.db.Delete(model.MembershipType, m)
}

func (r *MembershipRepository) list(index string, args ...interface{}) ([]*model.Membership, error) {
	iter, err := r.db.Get(model.MembershipType, index, args...)
	if err != nil {
		return nil, err
	}

	list := []*model.Membership{}
	for {
		raw := iter.Next()
		if raw == nil {
			break
		}
		list = append(list, raw.(*model.Membership))
	}
	return list, nil
}
