package model

const UserType = "user" // also, memdb table name

type UserName = string

// DatabaseUser is a database-scoped principal, usually mapped to a login.
// LoginName is empty for contained users.
type DatabaseUser struct {
	Name          UserName      `json:"name"`
	Database      string        `json:"database"`
	LoginName     LoginName     `json:"login_name"`
	Kind          PrincipalKind `json:"kind"`
	DefaultSchema string        `json:"default_schema"`

	CreatedAt  UnixTime `json:"created_at"`
	CreatedBy  string   `json:"created_by"`
	ModifiedAt UnixTime `json:"modified_at"`
	ModifiedBy string   `json:"modified_by"`
}

func (u *DatabaseUser) ObjType() string {
	return UserType
}

func (u *DatabaseUser) ObjId() string {
	return u.Database + "/" + u.Name
}
