package model

const MembershipType = "membership" // also, memdb table name

type MembershipID = string

type MembershipState string

const (
	MembershipActive  MembershipState = "active"
	MembershipRevoked MembershipState = "revoked"
)

// Membership is the edge between a principal and a role. At most one
// edge exists per (principal, role, database) triple; re-granting a
// revoked edge reactivates it instead of inserting a duplicate.
type Membership struct {
	UUID MembershipID `json:"uuid"` // PK

	RoleName  RoleName  `json:"role_name"`
	RoleScope RoleScope `json:"role_scope"`
	Database  string    `json:"database"` // empty for server roles
	Principal string    `json:"principal"`

	State MembershipState `json:"state"`

	GrantedAt UnixTime `json:"granted_at"`
	GrantedBy string   `json:"granted_by"`

	RevokedAt    UnixTime `json:"revoked_at"`
	RevokedBy    string   `json:"revoked_by"`
	RevokeReason string   `json:"revoke_reason"`
}

func (m *Membership) ObjType() string {
	return MembershipType
}

func (m *Membership) ObjId() string {
	return m.UUID
}

func (m *Membership) Active() bool {
	return m.State == MembershipActive
}
