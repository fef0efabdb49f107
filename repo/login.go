package repo

import (
	"github.com/hashicorp/go-memdb"

	"github.com/mssentry/mssentry/memstore"
	"github.com/mssentry/mssentry/model"
)

const LoginKindIndex = "kind"

func LoginSchema() map[string]*memdb.TableSchema {
	return map[string]*memdb.TableSchema{
		model.LoginType: {
			Name: model.LoginType,
			Indexes: map[string]*memdb.IndexSchema{
				PK: {
					Name:   PK,
					Unique: true,
					Indexer: &memdb.StringFieldIndex{
						Field: "Name",
					},
				},
				LoginKindIndex: {
					Name: LoginKindIndex,
					Indexer: &memdb.StringFieldIndex{
						Field: "Kind",
					},
				},
			},
		},
	}
}

type LoginRepository struct {
	db *memstore.MemoryStoreTxn // called "db" not to provoke transaction semantics
}

func NewLoginRepository(tx *memstore.MemoryStoreTxn) *LoginRepository {
	return &LoginRepository{db: tx}
}

func (r *LoginRepository) save(login *model.Login) error {
	return r.db.Insert(model.LoginType, login)
}

// Put upserts the mirrored record; the remote catalog is the source of
// truth, so there is no version check.
func (r *LoginRepository) Put(login *model.Login) error {
	return r.save(login)
}

func (r *LoginRepository) GetByName(name model.LoginName) (*model.Login, error) {
	raw, err := r.db.First(model.LoginType, PK, name)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, model.ErrNotFound
	}
	return raw.(*model.Login), nil
}

func (r *LoginRepository) Delete(name model.LoginName) error {
	login, err := r.GetByName(name)
	if err != nil {
		return err
	}
	return r.db.Delete(model.LoginType, login)
}

func (r *LoginRepository) List() ([]*model.Login, error) {
	iter, err := r.db.Get(model.LoginType, PK)
	if err != nil {
		return nil, err
	}

	list := []*model.Login{}
	for {
		raw := iter.Next()
		if raw == nil {
			break
		}
		list = append(list, raw.(*model.Login))
	}
	return list, nil
}

func (r *LoginRepository) Iter(action func(*model.Login) (bool, error)) error {
	iter, err := r.db.Get(model.LoginType, PK)
	if err != nil {
		return err
	}

	for {
		raw := iter.Next()
		if raw == nil {
			break
		}
		next, err := action(raw.(*model.Login))
		if err != nil {
			return err
		}
		if !next {
			break
		}
	}
	return nil
}
