package repo

import (
	"github.com/hashicorp/go-memdb"

	"github.com/mssentry/mssentry/memstore"
	"github.com/mssentry/mssentry/model"
)

const (
	UserLoginIndex    = "login"
	UserDatabaseIndex = "database"
)

func UserSchema() map[string]*memdb.TableSchema {
	return map[string]*memdb.TableSchema{
		model.UserType: {
			Name: model.UserType,
			Indexes: map[string]*memdb.IndexSchema{
				PK: {
					Name:   PK,
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "Database"},
							&memdb.StringFieldIndex{Field: "Name"},
						},
					},
				},
				UserLoginIndex: {
					Name:         UserLoginIndex,
					AllowMissing: true, // contained users have no login
					Indexer: &memdb.StringFieldIndex{
						Field: "LoginName",
					},
				},
				UserDatabaseIndex: {
					Name: UserDatabaseIndex,
					Indexer: &memdb.StringFieldIndex{
						Field: "Database",
					},
				},
			},
		},
	}
}

type UserRepository struct {
	db *memstore.MemoryStoreTxn
}

func NewUserRepository(tx *memstore.MemoryStoreTxn) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) Put(user *model.DatabaseUser) error {
	return r.db.Insert(model.UserType, user)
}

func (r *UserRepository) GetByName(database, name model.UserName) (*model.DatabaseUser, error) {
	raw, err := r.db.First(model.UserType, PK, database, name)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, model.ErrNotFound
	}
	return raw.(*model.DatabaseUser), nil
}

func (r *UserRepository) Delete(database, name model.UserName) error {
	user, err := r.GetByName(database, name)
	if err != nil {
		return err
	}
	return r.db.Delete(model.UserType, user)
}

func (r *UserRepository) ListByDatabase(database string) ([]*model.DatabaseUser, error) {
	return r.list(UserDatabaseIndex, database)
}

// ListByLogin returns every database user mapped to the login across
// all tracked databases. Used by the cascade delete.
func (r *UserRepository) ListByLogin(login model.LoginName) ([]*model.DatabaseUser, error) {
	return r.list(UserLoginIndex, login)
}

func (r *UserRepository) list(index string, args ...interface{}) ([]*model.DatabaseUser, error) {
	iter, err := r.db.Get(model.UserType, index, args...)
	if err != nil {
		return nil, err
	}

	list := []*model.DatabaseUser{}
	for {
		raw := iter.Next()
		if raw == nil {
			break
		}
		list = append(list, raw.(*model.DatabaseUser))
	}
	return list, nil
}
