package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/sethvargo/go-password/password"

	"github.com/mssentry/mssentry/model"
	"github.com/mssentry/mssentry/mssql"
	"github.com/mssentry/mssentry/repo"
	"github.com/mssentry/mssentry/validate"
)

type LoginService struct {
	d *Deps
}

func Logins(d *Deps) *LoginService {
	return &LoginService{d: d}
}

type CreateLoginRequest struct {
	Name            string
	Kind            model.PrincipalKind
	Password        string // empty for SQL logins means "generate one"
	DefaultDatabase string
}

type CreateLoginResult struct {
	Login *model.Login
	// GeneratedPassword is set only when the server generated the
	// password. It is returned once and never stored.
	GeneratedPassword string
}

func (s *LoginService) Create(ctx context.Context, actor string, req CreateLoginRequest) (*CreateLoginResult, error) {
	rec := s.d.begin(ctx, model.OpCreate, model.ResourceLogin, req.Name, "", actor)

	if err := validate.LoginName(req.Name); err != nil {
		return nil, rec.fail(ctx, err)
	}

	var generated string
	if req.Kind == model.KindSQL {
		if req.Password == "" {
			pw, err := password.Generate(24, 6, 4, false, false)
			if err != nil {
				return nil, rec.fail(ctx, fmt.Errorf("generate password: %w", err))
			}
			req.Password = pw
			generated = pw
		}
		if err := validate.Password(req.Password); err != nil {
			return nil, rec.fail(ctx, err)
		}
	}

	exists, err := s.d.Logins.LoginExists(ctx, req.Name)
	if err != nil {
		return nil, rec.fail(ctx, err)
	}
	if exists {
		return nil, rec.fail(ctx, fmt.Errorf("login %q: %w", req.Name, model.ErrAlreadyExists))
	}

	err = s.d.Logins.CreateLogin(ctx, mssql.LoginSpec{
		Name:            req.Name,
		Kind:            req.Kind,
		Password:        req.Password,
		DefaultDatabase: req.DefaultDatabase,
	})
	if err != nil {
		return nil, rec.fail(ctx, err)
	}

	// not trusted until independently re-read
	login, err := s.d.Logins.FetchLogin(ctx, req.Name)
	if err != nil {
		return nil, rec.fail(ctx, fmt.Errorf("login created but not observable: %w", err))
	}
	login.CreatedBy = actor
	login.ModifiedBy = actor

	if err := s.mirrorPut(login); err != nil {
		return nil, rec.fail(ctx, err)
	}

	rec.succeed(ctx, "")
	return &CreateLoginResult{Login: login, GeneratedPassword: generated}, nil
}

type UpdateLoginRequest struct {
	Password        *string
	Enabled         *bool
	DefaultDatabase *string
}

// Update applies the requested changes as individual remote commands.
// ALTER LOGIN is not reversible (the previous password is unknown), so
// a mid-update failure reports what was already applied instead of
// compensating.
func (s *LoginService) Update(ctx context.Context, actor, name string, req UpdateLoginRequest) (*model.Login, error) {
	rec := s.d.begin(ctx, model.OpUpdate, model.ResourceLogin, name, "", actor)

	if err := validate.LoginName(name); err != nil {
		return nil, rec.fail(ctx, err)
	}
	if req.Password != nil {
		if err := validate.Password(*req.Password); err != nil {
			return nil, rec.fail(ctx, err)
		}
	}

	if _, err := s.d.Logins.FetchLogin(ctx, name); err != nil {
		return nil, rec.fail(ctx, err)
	}

	var applied []string
	if req.Password != nil {
		if err := s.d.Logins.AlterLoginPassword(ctx, name, *req.Password); err != nil {
			return nil, rec.failWithDetails(ctx, err, appliedNote(applied))
		}
		applied = append(applied, "password")
	}
	if req.Enabled != nil {
		if err := s.d.Logins.SetLoginEnabled(ctx, name, *req.Enabled); err != nil {
			return nil, rec.failWithDetails(ctx, err, appliedNote(applied))
		}
		applied = append(applied, "enabled")
	}
	if req.DefaultDatabase != nil {
		if err := s.d.Logins.SetLoginDefaultDatabase(ctx, name, *req.DefaultDatabase); err != nil {
			return nil, rec.failWithDetails(ctx, err, appliedNote(applied))
		}
		applied = append(applied, "default database")
	}

	login, err := s.d.Logins.FetchLogin(ctx, name)
	if err != nil {
		return nil, rec.failWithDetails(ctx, err, appliedNote(applied))
	}
	login.ModifiedAt = now()
	login.ModifiedBy = actor

	if err := s.mirrorPut(login); err != nil {
		return nil, rec.fail(ctx, err)
	}

	rec.succeed(ctx, appliedNote(applied))
	return login, nil
}

func appliedNote(applied []string) string {
	if len(applied) == 0 {
		return "no changes applied"
	}
	return "applied: " + strings.Join(applied, ", ")
}

// Delete drops the login. With cascade=false, mapped database users
// make it fail before any remote mutation. With cascade=true the
// dependent users are dropped first; that path is intentionally
// destructive and performs no compensation — users already dropped
// stay dropped even when the final login drop fails.
func (s *LoginService) Delete(ctx context.Context, actor, name string, cascade bool) error {
	rec := s.d.begin(ctx, model.OpDelete, model.ResourceLogin, name, "", actor)

	if err := validate.LoginName(name); err != nil {
		return rec.fail(ctx, err)
	}
	if _, err := s.d.Logins.FetchLogin(ctx, name); err != nil {
		return rec.fail(ctx, err)
	}

	dependents, err := s.dependentUsers(ctx, name)
	if err != nil {
		return rec.fail(ctx, err)
	}

	if len(dependents) > 0 && !cascade {
		return rec.fail(ctx, fmt.Errorf("login %q has %d mapped database user(s): %w",
			name, len(dependents), model.ErrHasDependents))
	}

	var dropped []*model.DatabaseUser
	var dropErrs *multierror.Error
	for _, user := range dependents {
		if err := s.d.Users.DropUser(ctx, user.Database, user.Name); err != nil {
			s.d.Logger.Error("cascade user drop failed",
				"login", name, "database", user.Database, "user", user.Name, "err", err)
			dropErrs = multierror.Append(dropErrs,
				fmt.Errorf("drop user %s/%s: %w", user.Database, user.Name, err))
			continue
		}
		dropped = append(dropped, user)
	}

	details := fmt.Sprintf("cascade: dropped %d of %d dependent user(s)", len(dropped), len(dependents))

	if err := dropErrs.ErrorOrNil(); err != nil {
		return rec.failWithDetails(ctx, fmt.Errorf("cascade incomplete: %w", err), details)
	}

	if err := s.d.Logins.DropLogin(ctx, name); err != nil {
		return rec.failWithDetails(ctx, err, details)
	}

	if err := s.mirrorDelete(name, dropped); err != nil {
		return rec.fail(ctx, err)
	}

	rec.succeed(ctx, details)
	return nil
}

func (s *LoginService) Get(ctx context.Context, name string) (*model.Login, error) {
	login, err := s.d.Logins.FetchLogin(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.mirrorPut(login); err != nil {
		return nil, err
	}
	return login, nil
}

func (s *LoginService) List(ctx context.Context) ([]*model.Login, error) {
	logins, err := s.d.Logins.ListLogins(ctx)
	if err != nil {
		return nil, err
	}

	tx := s.d.Store.Txn(true)
	defer tx.Abort()
	loginRepo := repo.NewLoginRepository(tx)
	for _, login := range logins {
		if err := loginRepo.Put(login); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return logins, nil
}

// dependentUsers enumerates users mapped to the login across every
// tracked database, straight from the remote catalogs.
func (s *LoginService) dependentUsers(ctx context.Context, login string) ([]*model.DatabaseUser, error) {
	var dependents []*model.DatabaseUser
	for _, database := range s.d.Databases {
		users, err := s.d.Users.ListUsers(ctx, database)
		if err != nil {
			return nil, err
		}
		for _, user := range users {
			if user.LoginName == login {
				dependents = append(dependents, user)
			}
		}
	}
	return dependents, nil
}

func (s *LoginService) mirrorPut(login *model.Login) error {
	tx := s.d.Store.Txn(true)
	defer tx.Abort()
	if err := repo.NewLoginRepository(tx).Put(login); err != nil {
		return err
	}
	return tx.Commit()
}

// mirrorDelete removes the login row, the rows of cascade-dropped
// users, and every membership edge that referenced them.
func (s *LoginService) mirrorDelete(name string, droppedUsers []*model.DatabaseUser) error {
	tx := s.d.Store.Txn(true)
	defer tx.Abort()

	loginRepo := repo.NewLoginRepository(tx)
	userRepo := repo.NewUserRepository(tx)
	membershipRepo := repo.NewMembershipRepository(tx)

	if err := loginRepo.Delete(name); err != nil && err != model.ErrNotFound {
		return err
	}
	for _, user := range droppedUsers {
		if err := userRepo.Delete(user.Database, user.Name); err != nil && err != model.ErrNotFound {
			return err
		}
		if err := deleteMembershipsOf(membershipRepo, user.Name); err != nil {
			return err
		}
	}
	if err := deleteMembershipsOf(membershipRepo, name); err != nil {
		return err
	}

	return tx.Commit()
}

func deleteMembershipsOf(membershipRepo *repo.MembershipRepository, principal string) error {
	edges, err := membershipRepo.ListByPrincipal(principal)
	if err != nil {
		return err
	}
	for _, edge := range edges {
		if err := membershipRepo.Delete(edge.UUID); err != nil {
			return err
		}
	}
	return nil
}
