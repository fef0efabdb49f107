// Package validate holds the pure checks the orchestrator runs before
// touching the remote instance. Nothing here does I/O.
package validate

import (
	"strings"
	"unicode"

	"github.com/mssentry/mssentry/model"
)

const maxNameLength = 128

// Reserved identifiers can never be created or dropped through this
// system, regardless of whether they exist on the target.
var reservedIdentifiers = map[string]struct{}{
	"public":             {},
	"guest":              {},
	"dbo":                {},
	"sys":                {},
	"information_schema": {},
}

var builtInServerRoles = map[string]struct{}{
	"sysadmin":      {},
	"serveradmin":   {},
	"securityadmin": {},
	"setupadmin":    {},
	"processadmin":  {},
	"diskadmin":     {},
	"dbcreator":     {},
	"bulkadmin":     {},
}

var builtInDatabaseRoles = map[string]struct{}{
	"db_owner":           {},
	"db_accessadmin":     {},
	"db_securityadmin":   {},
	"db_ddladmin":        {},
	"db_backupoperator":  {},
	"db_datareader":      {},
	"db_datawriter":      {},
	"db_denydatareader":  {},
	"db_denydatawriter":  {},
}

// Name checks the common identifier rules: non-empty, at most 128
// characters, no quote or semicolon characters (those would survive into
// generated DDL), not a reserved identifier.
func Name(name string) error {
	if name == "" {
		return model.Validationf("name must not be empty")
	}
	if len(name) > maxNameLength {
		return model.Validationf("name %q exceeds %d characters", name, maxNameLength)
	}
	if strings.ContainsAny(name, `'";`+"`") {
		return model.Validationf("name %q contains forbidden characters", name)
	}
	if _, ok := reservedIdentifiers[strings.ToLower(name)]; ok {
		return model.Validationf("name %q is reserved", name)
	}
	return nil
}

// LoginName additionally rejects "sa".
func LoginName(name string) error {
	if err := Name(name); err != nil {
		return err
	}
	if strings.EqualFold(name, "sa") {
		return model.Validationf("login name %q is reserved", name)
	}
	return nil
}

// RoleName rejects names colliding with the fixed built-in role sets,
// independent of whether the role exists on the target.
func RoleName(name string, scope model.RoleScope) error {
	if err := Name(name); err != nil {
		return err
	}
	lower := strings.ToLower(name)
	switch scope {
	case model.RoleScopeServer:
		if _, ok := builtInServerRoles[lower]; ok {
			return model.Validationf("role %q collides with a built-in server role", name)
		}
	case model.RoleScopeDatabase:
		if _, ok := builtInDatabaseRoles[lower]; ok {
			return model.Validationf("role %q collides with a built-in database role", name)
		}
	default:
		return model.Validationf("unknown role scope %q", scope)
	}
	return nil
}

// IsBuiltInRole reports whether the name matches a platform-provided
// role for the given scope. Used to seed the mirror and to guard
// deletes.
func IsBuiltInRole(name string, scope model.RoleScope) bool {
	lower := strings.ToLower(name)
	if scope == model.RoleScopeServer {
		_, ok := builtInServerRoles[lower]
		return ok
	}
	_, ok := builtInDatabaseRoles[lower]
	return ok
}

// BuiltInServerRoles returns the fixed server-role set.
func BuiltInServerRoles() []string {
	return sortedKeys(builtInServerRoles)
}

// BuiltInDatabaseRoles returns the fixed database-role set.
func BuiltInDatabaseRoles() []string {
	return sortedKeys(builtInDatabaseRoles)
}

// ServerPermission fails closed on unknown permission strings.
func ServerPermission(p string) error {
	if !model.ServerPermission(p).Valid() {
		return model.Validationf("unknown server permission %q", p)
	}
	return nil
}

// DatabasePermission fails closed on unknown permission strings.
func DatabasePermission(p string) error {
	if !model.DatabasePermission(p).Valid() {
		return model.Validationf("unknown database permission %q", p)
	}
	return nil
}

// Password enforces length 8..128 and at least three of the four
// character classes.
func Password(password string) error {
	if len(password) < 8 {
		return model.Validationf("password must be at least 8 characters")
	}
	if len(password) > maxNameLength {
		return model.Validationf("password exceeds %d characters", maxNameLength)
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	classes := 0
	for _, present := range []bool{upper, lower, digit, symbol} {
		if present {
			classes++
		}
	}
	if classes < 3 {
		return model.Validationf("password needs at least 3 of: uppercase, lowercase, digit, symbol")
	}
	return nil
}
