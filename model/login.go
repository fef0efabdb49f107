package model

const LoginType = "login" // also, memdb table name

type LoginName = string

type PrincipalKind string

const (
	KindSQL      PrincipalKind = "sql"
	KindWindows  PrincipalKind = "windows"
	KindExternal PrincipalKind = "external"
)

// Login is a server-level principal mirrored from the target instance.
type Login struct {
	Name            LoginName     `json:"name"` // PK
	Kind            PrincipalKind `json:"kind"`
	Enabled         bool          `json:"enabled"`
	DefaultDatabase string        `json:"default_database"`

	CreatedAt  UnixTime `json:"created_at"`
	CreatedBy  string   `json:"created_by"`
	ModifiedAt UnixTime `json:"modified_at"`
	ModifiedBy string   `json:"modified_by"`
}

func (l *Login) ObjType() string {
	return LoginType
}

func (l *Login) ObjId() string {
	return l.Name
}
