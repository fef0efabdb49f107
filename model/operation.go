package model

import "time"

type OperationID = string

type OperationKind string

const (
	OpCreate OperationKind = "create"
	OpUpdate OperationKind = "update"
	OpDelete OperationKind = "delete"
	OpAssign OperationKind = "assign"
	OpRemove OperationKind = "remove"
	OpGrant  OperationKind = "grant"
	OpRevoke OperationKind = "revoke"
)

type ResourceType string

const (
	ResourceLogin        ResourceType = "login"
	ResourceUser         ResourceType = "user"
	ResourceServerRole   ResourceType = "server_role"
	ResourceDatabaseRole ResourceType = "database_role"
	ResourceMembership   ResourceType = "membership"
	ResourcePermission   ResourceType = "permission"
)

type OperationStatus string

const (
	OperationInProgress OperationStatus = "in_progress"
	OperationSuccess    OperationStatus = "success"
	OperationFailed     OperationStatus = "failed"
)

// Operation is the audit unit: one record per orchestrated call,
// created in_progress, completed exactly once, never mutated after.
// Only the orchestrator writes it.
type Operation struct {
	UUID OperationID `json:"uuid"` // PK

	Kind           OperationKind `json:"kind"`
	Resource       ResourceType  `json:"resource"`
	Target         string        `json:"target"`
	ServerInstance string        `json:"server_instance"`
	Database       string        `json:"database"`
	Actor          string        `json:"actor"`

	Status     OperationStatus `json:"status"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`

	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

func (o *Operation) Terminal() bool {
	return o.Status == OperationSuccess || o.Status == OperationFailed
}
