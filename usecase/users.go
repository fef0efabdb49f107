package usecase

import (
	"context"
	"fmt"

	"github.com/mssentry/mssentry/model"
	"github.com/mssentry/mssentry/repo"
	"github.com/mssentry/mssentry/validate"
)

type UserService struct {
	d *Deps
}

func Users(d *Deps) *UserService {
	return &UserService{d: d}
}

type CreateUserRequest struct {
	Name     string
	Database string
	// LoginName maps the user to a server login; empty creates a
	// contained user without login.
	LoginName string
}

func (s *UserService) Create(ctx context.Context, actor string, req CreateUserRequest) (*model.DatabaseUser, error) {
	rec := s.d.begin(ctx, model.OpCreate, model.ResourceUser, req.Name, req.Database, actor)

	if err := validate.Name(req.Name); err != nil {
		return nil, rec.fail(ctx, err)
	}
	if err := validate.Name(req.Database); err != nil {
		return nil, rec.fail(ctx, err)
	}

	if req.LoginName != "" {
		ok, err := s.d.Logins.LoginExists(ctx, req.LoginName)
		if err != nil {
			return nil, rec.fail(ctx, err)
		}
		if !ok {
			return nil, rec.fail(ctx, fmt.Errorf("login %q: %w", req.LoginName, model.ErrNotFound))
		}
	}

	exists, err := s.d.Users.UserExists(ctx, req.Database, req.Name)
	if err != nil {
		return nil, rec.fail(ctx, err)
	}
	if exists {
		return nil, rec.fail(ctx, fmt.Errorf("user %q in %q: %w", req.Name, req.Database, model.ErrAlreadyExists))
	}

	if err := s.d.Users.CreateUser(ctx, req.Database, req.Name, req.LoginName); err != nil {
		return nil, rec.fail(ctx, err)
	}

	user, err := s.d.Users.FetchUser(ctx, req.Database, req.Name)
	if err != nil {
		return nil, rec.fail(ctx, fmt.Errorf("user created but not observable: %w", err))
	}
	user.CreatedBy = actor
	user.ModifiedBy = actor

	if err := s.mirrorPut(user); err != nil {
		return nil, rec.fail(ctx, err)
	}

	rec.succeed(ctx, "")
	return user, nil
}

type UpdateUserRequest struct {
	DefaultSchema *string
}

func (s *UserService) Update(ctx context.Context, actor, database, name string, req UpdateUserRequest) (*model.DatabaseUser, error) {
	rec := s.d.begin(ctx, model.OpUpdate, model.ResourceUser, name, database, actor)

	if err := validate.Name(name); err != nil {
		return nil, rec.fail(ctx, err)
	}

	if _, err := s.d.Users.FetchUser(ctx, database, name); err != nil {
		return nil, rec.fail(ctx, err)
	}

	if req.DefaultSchema != nil {
		if err := validate.Name(*req.DefaultSchema); err != nil {
			return nil, rec.fail(ctx, err)
		}
		if err := s.d.Users.SetUserDefaultSchema(ctx, database, name, *req.DefaultSchema); err != nil {
			return nil, rec.fail(ctx, err)
		}
	}

	user, err := s.d.Users.FetchUser(ctx, database, name)
	if err != nil {
		return nil, rec.fail(ctx, err)
	}
	user.ModifiedAt = now()
	user.ModifiedBy = actor

	if err := s.mirrorPut(user); err != nil {
		return nil, rec.fail(ctx, err)
	}

	rec.succeed(ctx, "")
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, actor, database, name string) error {
	rec := s.d.begin(ctx, model.OpDelete, model.ResourceUser, name, database, actor)

	if err := validate.Name(name); err != nil {
		return rec.fail(ctx, err)
	}
	if _, err := s.d.Users.FetchUser(ctx, database, name); err != nil {
		return rec.fail(ctx, err)
	}

	if err := s.d.Users.DropUser(ctx, database, name); err != nil {
		return rec.fail(ctx, err)
	}

	if err := s.mirrorDelete(database, name); err != nil {
		return rec.fail(ctx, err)
	}

	rec.succeed(ctx, "")
	return nil
}

func (s *UserService) Get(ctx context.Context, database, name string) (*model.DatabaseUser, error) {
	user, err := s.d.Users.FetchUser(ctx, database, name)
	if err != nil {
		return nil, err
	}
	if err := s.mirrorPut(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, database string) ([]*model.DatabaseUser, error) {
	users, err := s.d.Users.ListUsers(ctx, database)
	if err != nil {
		return nil, err
	}

	tx := s.d.Store.Txn(true)
	defer tx.Abort()
	userRepo := repo.NewUserRepository(tx)
	for _, user := range users {
		if err := userRepo.Put(user); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *UserService) mirrorPut(user *model.DatabaseUser) error {
	tx := s.d.Store.Txn(true)
	defer tx.Abort()
	if err := repo.NewUserRepository(tx).Put(user); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *UserService) mirrorDelete(database, name string) error {
	tx := s.d.Store.Txn(true)
	defer tx.Abort()

	if err := repo.NewUserRepository(tx).Delete(database, name); err != nil && err != model.ErrNotFound {
		return err
	}
	if err := deleteMembershipsOf(repo.NewMembershipRepository(tx), name); err != nil {
		return err
	}
	return tx.Commit()
}
