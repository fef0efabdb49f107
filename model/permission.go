package model

const GrantType = "grant" // also, memdb table name

type GrantID = string

type GranteeType string

const (
	GranteeLogin GranteeType = "login"
	GranteeUser  GranteeType = "user"
	GranteeRole  GranteeType = "role"
)

type GrantState string

const (
	GrantStateGranted GrantState = "granted"
	GrantStateRevoked GrantState = "revoked"
)

// ServerPermission and DatabasePermission are closed sets. A permission
// string that is not in the set fails validation before any remote call.
type ServerPermission string

const (
	PermConnectSQL          ServerPermission = "CONNECT SQL"
	PermAlterAnyLogin       ServerPermission = "ALTER ANY LOGIN"
	PermAlterAnyServerRole  ServerPermission = "ALTER ANY SERVER ROLE"
	PermViewServerState     ServerPermission = "VIEW SERVER STATE"
	PermViewAnyDatabase     ServerPermission = "VIEW ANY DATABASE"
	PermAlterAnyDatabase    ServerPermission = "ALTER ANY DATABASE"
	PermCreateAnyDatabase   ServerPermission = "CREATE ANY DATABASE"
	PermShutdown            ServerPermission = "SHUTDOWN"
	PermAlterServerState    ServerPermission = "ALTER SERVER STATE"
	PermControlServer       ServerPermission = "CONTROL SERVER"
	PermAlterAnyCredential  ServerPermission = "ALTER ANY CREDENTIAL"
	PermAlterAnyConnection  ServerPermission = "ALTER ANY CONNECTION"
	PermViewAnyDefinition   ServerPermission = "VIEW ANY DEFINITION"
	PermAuthenticateServer  ServerPermission = "AUTHENTICATE SERVER"
	PermAlterAnyEndpoint    ServerPermission = "ALTER ANY ENDPOINT"
)

type DatabasePermission string

const (
	PermConnect         DatabasePermission = "CONNECT"
	PermSelect          DatabasePermission = "SELECT"
	PermInsert          DatabasePermission = "INSERT"
	PermUpdate          DatabasePermission = "UPDATE"
	PermDelete          DatabasePermission = "DELETE"
	PermExecute         DatabasePermission = "EXECUTE"
	PermAlter           DatabasePermission = "ALTER"
	PermControl         DatabasePermission = "CONTROL"
	PermReferences      DatabasePermission = "REFERENCES"
	PermViewDefinition  DatabasePermission = "VIEW DEFINITION"
	PermCreateTable     DatabasePermission = "CREATE TABLE"
	PermCreateView      DatabasePermission = "CREATE VIEW"
	PermCreateProcedure DatabasePermission = "CREATE PROCEDURE"
)

func ServerPermissions() map[ServerPermission]struct{} {
	return map[ServerPermission]struct{}{
		PermConnectSQL: {}, PermAlterAnyLogin: {}, PermAlterAnyServerRole: {},
		PermViewServerState: {}, PermViewAnyDatabase: {}, PermAlterAnyDatabase: {},
		PermCreateAnyDatabase: {}, PermShutdown: {}, PermAlterServerState: {},
		PermControlServer: {}, PermAlterAnyCredential: {}, PermAlterAnyConnection: {},
		PermViewAnyDefinition: {}, PermAuthenticateServer: {}, PermAlterAnyEndpoint: {},
	}
}

func DatabasePermissions() map[DatabasePermission]struct{} {
	return map[DatabasePermission]struct{}{
		PermConnect: {}, PermSelect: {}, PermInsert: {}, PermUpdate: {},
		PermDelete: {}, PermExecute: {}, PermAlter: {}, PermControl: {},
		PermReferences: {}, PermViewDefinition: {}, PermCreateTable: {},
		PermCreateView: {}, PermCreateProcedure: {},
	}
}

func (p ServerPermission) Valid() bool {
	_, ok := ServerPermissions()[p]
	return ok
}

func (p DatabasePermission) Valid() bool {
	_, ok := DatabasePermissions()[p]
	return ok
}

// PermissionGrant is one (grantee, permission, securable) triple.
// ObjectName is empty for server- or database-level grants.
type PermissionGrant struct {
	UUID GrantID `json:"uuid"` // PK

	Grantee     string      `json:"grantee"`
	GranteeType GranteeType `json:"grantee_type"`
	Permission  string      `json:"permission"`
	ObjectName  string      `json:"object_name"`
	Database    string      `json:"database"` // empty for server scope

	State GrantState `json:"state"`

	GrantedAt UnixTime `json:"granted_at"`
	GrantedBy string   `json:"granted_by"`
	RevokedAt UnixTime `json:"revoked_at"`
	RevokedBy string   `json:"revoked_by"`
}

func (g *PermissionGrant) ObjType() string {
	return GrantType
}

func (g *PermissionGrant) ObjId() string {
	return g.UUID
}
