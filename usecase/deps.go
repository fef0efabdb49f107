// Package usecase is the principal/role lifecycle orchestrator. It
// composes the pure validators, the remote stores and the local mirror
// into orchestrated operations, applies compensation when a composite
// operation fails partway, and writes the audit trail.
package usecase

import (
	"time"

	log "github.com/hashicorp/go-hclog"

	"github.com/mssentry/mssentry/audit"
	"github.com/mssentry/mssentry/memstore"
	"github.com/mssentry/mssentry/observe"
)

// Deps carries everything the services share. No globals: the audit
// log, the logger and the metrics are injected at construction.
type Deps struct {
	Store *memstore.MemoryStore

	Logins      LoginStore
	Users       UserStore
	Roles       RoleStore
	Permissions PermissionStore

	Audit   audit.Log
	Metrics *observe.Metrics
	Logger  log.Logger

	ServerInstance string
	// Databases lists the databases this instance tracks; cascade
	// deletes enumerate dependent users across them.
	Databases []string
}

func now() int64 {
	return time.Now().Unix()
}
