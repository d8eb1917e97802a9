// Package observability holds the audit trail, adapted from the teacher
// module's legacy/audit.go: a structured record of privileged mutations,
// mirrored to the structured logger, enriched with the caller's request
// ID. Unlike the teacher's global installable singleton (an explicit
// anti-pattern per spec.md §9, "Global state / singletons"), Auditor is an
// explicit dependency every service takes in its constructor.
package observability

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hangouts-inviter/eventgraph/internal/logx"
)

// Level mirrors the teacher's AuditLevel enum.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Entry is one audit record.
type Entry struct {
	Component  string
	Action     string
	Level      Level
	Message    string
	ActorID    string
	RequestID  string
	Fields     map[string]any
	OccurredAt time.Time
}

// Sink persists audit entries. Implementations may be a repository over
// the wide-key store, a log shipper, or (in tests) an in-memory recorder.
type Sink interface {
	AppendAudit(ctx context.Context, e Entry) error
}

// Auditor records structured audit entries for privileged mutations: group
// deletion, seat-capacity overrides, invite-code generation, and any other
// operation spec.md's services flag as audit-worthy.
type Auditor struct {
	sink Sink
	log  *slog.Logger
}

// NewAuditor builds an Auditor. sink may be nil, in which case entries are
// only mirrored to the structured logger (mirrors the teacher's
// "audit_disabled" fallback when no repository is installed).
func NewAuditor(sink Sink) *Auditor {
	return &Auditor{sink: sink, log: logx.Logger()}
}

// Record persists and logs an audit entry, tagging it with the request ID
// carried on ctx (creating one if absent) so cascades and retries stay
// traceable.
func (a *Auditor) Record(ctx context.Context, level Level, component, action, message, actorID string, fields map[string]any) {
	ctx, reqID := logx.WithRequestID(ctx)
	entry := Entry{
		Component:  component,
		Action:     action,
		Level:      level,
		Message:    message,
		ActorID:    actorID,
		RequestID:  reqID,
		Fields:     fields,
		OccurredAt: time.Now(),
	}
	if a.sink != nil {
		if err := a.sink.AppendAudit(ctx, entry); err != nil {
			a.log.Warn("audit_append_failed", "err", err, "component", component, "action", action)
		}
	} else {
		a.log.Debug("audit_disabled", "component", component, "action", action)
	}
	fieldsJSON, _ := json.Marshal(fields)
	a.log.Info("audit", "component", component, "action", action, "level", string(level),
		"message", message, "request_id", reqID, "actor_id", actorID, "fields", string(fieldsJSON))
}
