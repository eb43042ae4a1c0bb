package models

import (
	"encoding/json"
	"time"
)

// AuditAction names what an actor did.
type AuditAction string

const (
	AuditActionLogin          AuditAction = "LOGIN"
	AuditActionLogout         AuditAction = "LOGOUT"
	AuditActionRegister       AuditAction = "REGISTER"
	AuditActionPasswordChange AuditAction = "PASSWORD_CHANGE"
	AuditActionUserCreate     AuditAction = "USER_CREATE"
	AuditActionUserStatus     AuditAction = "USER_STATUS"
	AuditActionUserDelete     AuditAction = "USER_DELETE"
	AuditActionSupervisorLink AuditAction = "SUPERVISOR_ASSIGN"
	AuditActionJournalReview  AuditAction = "JOURNAL_REVIEW"
	AuditActionLeaveReview    AuditAction = "LEAVE_REVIEW"
	AuditActionReview         AuditAction = "REVIEW"
	AuditActionExport         AuditAction = "EXPORT"
	AuditActionDownload       AuditAction = "DOWNLOAD"
)

// AuditResource names the kind of record an action touched.
type AuditResource string

const (
	AuditResourceSession      AuditResource = "auth"
	AuditResourceUser         AuditResource = "user"
	AuditResourceLeave        AuditResource = "leave_request"
	AuditResourceJournal      AuditResource = "journal_entry"
	AuditResourceReport       AuditResource = "report"
	AuditResourceReportExport AuditResource = "report_export"
)

// AuditLog is one row of the audit trail. OldValues and NewValues hold JSON.
type AuditLog struct {
	ID         string        `db:"id" json:"id"`
	UserID     *string       `db:"user_id" json:"user_id,omitempty"`
	Action     AuditAction   `db:"action" json:"action"`
	Resource   AuditResource `db:"resource" json:"resource"`
	ResourceID *string       `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte        `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte        `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string        `db:"ip_address" json:"ip_address"`
	UserAgent  string        `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

// NewAuditLog starts an entry. Empty actor or resource ids are stored as NULL.
func NewAuditLog(actorID string, action AuditAction, resource AuditResource, resourceID string) *AuditLog {
	log := &AuditLog{Action: action, Resource: resource}
	if actorID != "" {
		log.UserID = &actorID
	}
	if resourceID != "" {
		log.ResourceID = &resourceID
	}
	return log
}

// Change attaches the before and after state. Nil values are skipped.
func (l *AuditLog) Change(before, after interface{}) *AuditLog {
	if before != nil {
		l.OldValues, _ = json.Marshal(before)
	}
	if after != nil {
		l.NewValues, _ = json.Marshal(after)
	}
	return l
}

// From records the client address and agent of the request.
func (l *AuditLog) From(ip, userAgent string) *AuditLog {
	l.IPAddress = ip
	l.UserAgent = userAgent
	return l
}
