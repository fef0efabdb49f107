package model

const RoleType = "role" // also, memdb table name

type RoleName = string

type RoleScope string

const (
	RoleScopeServer   RoleScope = "server"
	RoleScopeDatabase RoleScope = "database"
)

// Role is a named grantable container, either server-wide or scoped to
// one database. Built-in roles are seeded from the target catalog and
// can never be dropped or renamed.
type Role struct {
	Name     RoleName  `json:"name"`
	Scope    RoleScope `json:"scope"`
	Database string    `json:"database"` // empty for server scope

	IsBuiltIn bool   `json:"is_built_in"`
	Owner     string `json:"owner"`

	CreatedAt  UnixTime `json:"created_at"`
	CreatedBy  string   `json:"created_by"`
	ModifiedAt UnixTime `json:"modified_at"`
	ModifiedBy string   `json:"modified_by"`
}

func (r *Role) ObjType() string {
	return RoleType
}

func (r *Role) ObjId() string {
	return r.Database + "/" + r.Name
}
