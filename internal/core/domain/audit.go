package domain

import "time"

// AuthEventType classifies an authentication outcome recorded in the audit trail.
type AuthEventType string

const (
	EventLoginSucceeded  AuthEventType = "login_succeeded"
	EventLoginFailed     AuthEventType = "login_failed"
	EventLoginThrottled  AuthEventType = "login_throttled"
	EventAccessDenied    AuthEventType = "access_denied"
	EventPasswordChanged AuthEventType = "password_changed"
)

// AuthEvent is an append-only audit record. Reason carries the internal denial
// kind, which is never sent to clients.
type AuthEvent struct {
	ID         string        `bson:"_id"`
	Type       AuthEventType `bson:"type"`
	AccountID  string        `bson:"account_id,omitempty"`
	Identifier string        `bson:"identifier,omitempty"`
	Reason     string        `bson:"reason,omitempty"`
	Path       string        `bson:"path,omitempty"`
	RemoteIP   string        `bson:"remote_ip,omitempty"`
	OccurredAt time.Time     `bson:"occurred_at"`
}

// ShardKey picks the value events are partitioned on so one account's events
// stay ordered.
func (e AuthEvent) ShardKey() string {
	if e.AccountID != "" {
		return e.AccountID
	}
	return e.Identifier
}
