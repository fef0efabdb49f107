package usecase

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/mssentry/mssentry/audit"
	"github.com/mssentry/mssentry/fixtures"
	"github.com/mssentry/mssentry/memstore"
	"github.com/mssentry/mssentry/model"
	"github.com/mssentry/mssentry/mssql"
	"github.com/mssentry/mssentry/repo"
)

// fakeTarget is a stateful in-memory stand-in for the administered
// instance. Mutations are recorded in calls; failOn injects one error
// per "Method:arg" key.
type fakeTarget struct {
	logins  map[string]*model.Login
	users   map[string]*model.DatabaseUser // database/name
	roles   map[string]*model.Role         // scope/database/name
	members map[string]map[string]bool     // role key -> member set
	grants  map[string]bool                // grantee/permission/object/database

	calls  []string
	failOn map[string]error
}

func newFakeTarget() *fakeTarget {
	f := &fakeTarget{
		logins:  map[string]*model.Login{},
		users:   map[string]*model.DatabaseUser{},
		roles:   map[string]*model.Role{},
		members: map[string]map[string]bool{},
		grants:  map[string]bool{},
		failOn:  map[string]error{},
	}
	for _, l := range fixtures.Logins() {
		cp := l
		f.logins[l.Name] = &cp
	}
	for _, u := range fixtures.Users() {
		cp := u
		f.users[userKey(u.Database, u.Name)] = &cp
	}
	for _, r := range fixtures.Roles() {
		cp := r
		f.roles[roleKey(r.Scope, r.Database, r.Name)] = &cp
	}
	return f
}

func userKey(database, name string) string {
	return database + "/" + name
}

func roleKey(scope model.RoleScope, database, name string) string {
	return string(scope) + "/" + database + "/" + name
}

func grantKey(spec mssql.GrantSpec) string {
	return spec.Grantee + "/" + spec.Permission + "/" + spec.ObjectName + "/" + spec.Database
}

// step records a mutating call and returns the injected error, if any.
func (f *fakeTarget) step(method, arg string) error {
	key := method + ":" + arg
	f.calls = append(f.calls, key)
	if err, ok := f.failOn[key]; ok {
		return err
	}
	return nil
}

func (f *fakeTarget) mutations() []string {
	return append([]string(nil), f.calls...)
}

// LoginStore

func (f *fakeTarget) CreateLogin(_ context.Context, spec mssql.LoginSpec) error {
	if err := f.step("CreateLogin", spec.Name); err != nil {
		return err
	}
	f.logins[spec.Name] = &model.Login{
		Name:            spec.Name,
		Kind:            spec.Kind,
		Enabled:         true,
		DefaultDatabase: spec.DefaultDatabase,
	}
	return nil
}

func (f *fakeTarget) AlterLoginPassword(_ context.Context, name, _ string) error {
	if err := f.step("AlterLoginPassword", name); err != nil {
		return err
	}
	if _, ok := f.logins[name]; !ok {
		return model.Remote("alter login password", fmt.Errorf("no such login %q", name))
	}
	return nil
}

func (f *fakeTarget) SetLoginEnabled(_ context.Context, name string, enabled bool) error {
	if err := f.step("SetLoginEnabled", name); err != nil {
		return err
	}
	login, ok := f.logins[name]
	if !ok {
		return model.Remote("alter login enable", fmt.Errorf("no such login %q", name))
	}
	login.Enabled = enabled
	return nil
}

func (f *fakeTarget) SetLoginDefaultDatabase(_ context.Context, name, database string) error {
	if err := f.step("SetLoginDefaultDatabase", name); err != nil {
		return err
	}
	login, ok := f.logins[name]
	if !ok {
		return model.Remote("alter login default database", fmt.Errorf("no such login %q", name))
	}
	login.DefaultDatabase = database
	return nil
}

func (f *fakeTarget) DropLogin(_ context.Context, name string) error {
	if err := f.step("DropLogin", name); err != nil {
		return err
	}
	delete(f.logins, name)
	return nil
}

func (f *fakeTarget) LoginExists(_ context.Context, name string) (bool, error) {
	_, ok := f.logins[name]
	return ok, nil
}

func (f *fakeTarget) FetchLogin(_ context.Context, name string) (*model.Login, error) {
	login, ok := f.logins[name]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *login
	return &cp, nil
}

func (f *fakeTarget) ListLogins(_ context.Context) ([]*model.Login, error) {
	names := make([]string, 0, len(f.logins))
	for name := range f.logins {
		names = append(names, name)
	}
	sort.Strings(names)
	list := make([]*model.Login, 0, len(names))
	for _, name := range names {
		cp := *f.logins[name]
		list = append(list, &cp)
	}
	return list, nil
}

// UserStore

func (f *fakeTarget) CreateUser(_ context.Context, database, name, loginName string) error {
	if err := f.step("CreateUser", userKey(database, name)); err != nil {
		return err
	}
	f.users[userKey(database, name)] = &model.DatabaseUser{
		Name:          name,
		Database:      database,
		LoginName:     loginName,
		Kind:          model.KindSQL,
		DefaultSchema: "dbo",
	}
	return nil
}

func (f *fakeTarget) SetUserDefaultSchema(_ context.Context, database, name, schema string) error {
	if err := f.step("SetUserDefaultSchema", userKey(database, name)); err != nil {
		return err
	}
	user, ok := f.users[userKey(database, name)]
	if !ok {
		return model.Remote("alter user", fmt.Errorf("no such user %q", name))
	}
	user.DefaultSchema = schema
	return nil
}

func (f *fakeTarget) DropUser(_ context.Context, database, name string) error {
	if err := f.step("DropUser", userKey(database, name)); err != nil {
		return err
	}
	delete(f.users, userKey(database, name))
	return nil
}

func (f *fakeTarget) UserExists(_ context.Context, database, name string) (bool, error) {
	_, ok := f.users[userKey(database, name)]
	return ok, nil
}

func (f *fakeTarget) FetchUser(_ context.Context, database, name string) (*model.DatabaseUser, error) {
	user, ok := f.users[userKey(database, name)]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (f *fakeTarget) ListUsers(_ context.Context, database string) ([]*model.DatabaseUser, error) {
	keys := make([]string, 0, len(f.users))
	for key, u := range f.users {
		if u.Database == database {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	list := make([]*model.DatabaseUser, 0, len(keys))
	for _, key := range keys {
		cp := *f.users[key]
		list = append(list, &cp)
	}
	return list, nil
}

// RoleStore

func (f *fakeTarget) CreateRole(_ context.Context, scope model.RoleScope, database, name, owner string) error {
	if err := f.step("CreateRole", name); err != nil {
		return err
	}
	f.roles[roleKey(scope, database, name)] = &model.Role{
		Name:     name,
		Scope:    scope,
		Database: database,
		Owner:    owner,
	}
	return nil
}

func (f *fakeTarget) DropRole(_ context.Context, scope model.RoleScope, database, name string) error {
	if err := f.step("DropRole", name); err != nil {
		return err
	}
	delete(f.roles, roleKey(scope, database, name))
	delete(f.members, roleKey(scope, database, name))
	return nil
}

func (f *fakeTarget) AddMember(_ context.Context, scope model.RoleScope, database, role, member string) error {
	if err := f.step("AddMember", role+"/"+member); err != nil {
		return err
	}
	key := roleKey(scope, database, role)
	if _, ok := f.roles[key]; !ok {
		return model.Remote("add member", fmt.Errorf("no such role %q", role))
	}
	if f.members[key] == nil {
		f.members[key] = map[string]bool{}
	}
	f.members[key][member] = true
	return nil
}

func (f *fakeTarget) RemoveMember(_ context.Context, scope model.RoleScope, database, role, member string) error {
	if err := f.step("RemoveMember", role+"/"+member); err != nil {
		return err
	}
	delete(f.members[roleKey(scope, database, role)], member)
	return nil
}

func (f *fakeTarget) RoleExists(_ context.Context, scope model.RoleScope, database, name string) (bool, error) {
	_, ok := f.roles[roleKey(scope, database, name)]
	return ok, nil
}

func (f *fakeTarget) FetchRole(_ context.Context, scope model.RoleScope, database, name string) (*model.Role, error) {
	role, ok := f.roles[roleKey(scope, database, name)]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *role
	return &cp, nil
}

func (f *fakeTarget) ListRoles(_ context.Context, scope model.RoleScope, database string) ([]*model.Role, error) {
	list := []*model.Role{}
	for _, role := range f.roles {
		if role.Scope != scope {
			continue
		}
		if database != "" && role.Database != database {
			continue
		}
		cp := *role
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (f *fakeTarget) ListMembers(_ context.Context, scope model.RoleScope, database, role string) ([]string, error) {
	set := f.members[roleKey(scope, database, role)]
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	sort.Strings(members)
	return members, nil
}

// PermissionStore

func (f *fakeTarget) Grant(_ context.Context, spec mssql.GrantSpec) error {
	if err := f.step("Grant", grantKey(spec)); err != nil {
		return err
	}
	f.grants[grantKey(spec)] = true
	return nil
}

func (f *fakeTarget) Revoke(_ context.Context, spec mssql.GrantSpec) error {
	if err := f.step("Revoke", grantKey(spec)); err != nil {
		return err
	}
	delete(f.grants, grantKey(spec))
	return nil
}

func (f *fakeTarget) ListGrants(_ context.Context, database, grantee string) ([]mssql.GrantRow, error) {
	rows := []mssql.GrantRow{}
	for key, on := range f.grants {
		if !on {
			continue
		}
		var spec mssql.GrantSpec
		parts := splitGrantKey(key)
		spec.Grantee, spec.Permission, spec.ObjectName, spec.Database = parts[0], parts[1], parts[2], parts[3]
		if spec.Grantee == grantee && spec.Database == database {
			rows = append(rows, mssql.GrantRow{Permission: spec.Permission, ObjectName: spec.ObjectName})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Permission < rows[j].Permission })
	return rows, nil
}

func splitGrantKey(key string) [4]string {
	var parts [4]string
	idx := 0
	start := 0
	for i := 0; i < len(key) && idx < 3; i++ {
		if key[i] == '/' {
			parts[idx] = key[start:i]
			idx++
			start = i + 1
		}
	}
	parts[3] = key[start:]
	return parts
}

type testEnv struct {
	deps   *Deps
	target *fakeTarget
	audit  *audit.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	schema, err := repo.GetSchema()
	require.NoError(t, err)
	store, err := memstore.NewMemoryStore(schema, hclog.NewNullLogger())
	require.NoError(t, err)

	target := newFakeTarget()
	recorder := audit.NewRecorder()

	return &testEnv{
		deps: &Deps{
			Store:          store,
			Logins:         target,
			Users:          target,
			Roles:          target,
			Permissions:    target,
			Audit:          recorder,
			Logger:         hclog.NewNullLogger(),
			ServerInstance: fixtures.ServerInstance,
			Databases:      []string{fixtures.DatabaseSales, fixtures.DatabaseReports},
		},
		target: target,
		audit:  recorder,
	}
}

// requireAuditDiscipline asserts every recorded operation is terminal
// and was completed exactly once.
func requireAuditDiscipline(t *testing.T, recorder *audit.Recorder) {
	t.Helper()
	for _, op := range recorder.Operations() {
		require.True(t, op.Terminal(), "operation %s/%s left in %s", op.Resource, op.Target, op.Status)
		require.Equal(t, 1, recorder.CompleteCalls(op.UUID),
			"operation %s/%s completed %d times", op.Resource, op.Target, recorder.CompleteCalls(op.UUID))
	}
}

func lastAudit(t *testing.T, recorder *audit.Recorder, resource model.ResourceType) model.Operation {
	t.Helper()
	var found *model.Operation
	for _, op := range recorder.Operations() {
		if op.Resource == resource {
			cp := op
			if found == nil || op.StartedAt.After(found.StartedAt) {
				found = &cp
			}
		}
	}
	require.NotNil(t, found, "no audit record for %s", resource)
	return *found
}
