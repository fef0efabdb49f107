// Package fixtures holds shared test data. Tests across packages use
// the same principals so scenarios compose.
package fixtures

import (
	"github.com/mssentry/mssentry/model"
)

const (
	ServerInstance = "db-prod-01"

	DatabaseSales   = "sales"
	DatabaseReports = "reports"

	LoginAlice   = "alice"
	LoginBob     = "bob"
	LoginSvcEtl  = "svc_etl"
	LoginMachine = `CORP\build01`

	UserAlice  = "alice"
	UserBob    = "bob"
	UserSvcEtl = "svc_etl"

	RoleAnalysts  = "analysts"
	RoleDeployers = "deployers"
	RoleReaders   = "readers"

	MembershipUUID1 = "00000000-0000-4000-a000-000000000001"
	MembershipUUID2 = "00000000-0000-4000-a000-000000000002"
	GrantUUID1      = "00000000-0000-4000-a000-000000000101"
)

func Logins() []model.Login {
	return []model.Login{
		{
			Name:            LoginAlice,
			Kind:            model.KindSQL,
			Enabled:         true,
			DefaultDatabase: DatabaseSales,
			CreatedBy:       "seed",
		},
		{
			Name:            LoginBob,
			Kind:            model.KindSQL,
			Enabled:         true,
			DefaultDatabase: "master",
			CreatedBy:       "seed",
		},
		{
			Name:      LoginSvcEtl,
			Kind:      model.KindSQL,
			Enabled:   false,
			CreatedBy: "seed",
		},
		{
			Name:      LoginMachine,
			Kind:      model.KindWindows,
			Enabled:   true,
			CreatedBy: "seed",
		},
	}
}

func Users() []model.DatabaseUser {
	return []model.DatabaseUser{
		{
			Name:          UserAlice,
			Database:      DatabaseSales,
			LoginName:     LoginAlice,
			Kind:          model.KindSQL,
			DefaultSchema: "dbo",
		},
		{
			Name:          UserBob,
			Database:      DatabaseSales,
			LoginName:     LoginBob,
			Kind:          model.KindSQL,
			DefaultSchema: "dbo",
		},
		{
			Name:          UserSvcEtl,
			Database:      DatabaseReports,
			LoginName:     LoginSvcEtl,
			Kind:          model.KindSQL,
			DefaultSchema: "etl",
		},
	}
}

func Roles() []model.Role {
	return []model.Role{
		{
			Name:  RoleDeployers,
			Scope: model.RoleScopeServer,
		},
		{
			Name:     RoleAnalysts,
			Scope:    model.RoleScopeDatabase,
			Database: DatabaseSales,
			Owner:    "dbo",
		},
		{
			Name:     RoleReaders,
			Scope:    model.RoleScopeDatabase,
			Database: DatabaseReports,
			Owner:    "dbo",
		},
		{
			Name:      "sysadmin",
			Scope:     model.RoleScopeServer,
			IsBuiltIn: true,
		},
		{
			Name:      "db_owner",
			Scope:     model.RoleScopeDatabase,
			Database:  DatabaseSales,
			IsBuiltIn: true,
		},
	}
}

func Memberships() []model.Membership {
	return []model.Membership{
		{
			UUID:      MembershipUUID1,
			RoleName:  RoleAnalysts,
			RoleScope: model.RoleScopeDatabase,
			Database:  DatabaseSales,
			Principal: UserAlice,
			State:     model.MembershipActive,
			GrantedBy: "seed",
		},
		{
			UUID:         MembershipUUID2,
			RoleName:     RoleDeployers,
			RoleScope:    model.RoleScopeServer,
			Principal:    LoginBob,
			State:        model.MembershipRevoked,
			GrantedBy:    "seed",
			RevokedBy:    "seed",
			RevokeReason: "rotation",
		},
	}
}
