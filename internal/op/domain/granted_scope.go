package domain

import "time"

// GrantedScope records that a user approved a scope for a client.
// Rows are append-only; re-approving the same scope is a no-op.
type GrantedScope struct {
	ClientID  string
	Subject   string
	Scope     string
	CreatedAt time.Time
}
