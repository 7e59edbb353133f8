// Package notify is the out-of-band messaging side of the workflow: an outbox
// publisher used by the services, a dispatcher that drains it, and the sinks
// that actually deliver.
package notify

import "context"

// Channels
const (
	ChannelWhatsApp = "whatsapp"
	ChannelPush     = "push"
)

// Events
const (
	EventPostingPublished      = "posting_published"
	EventApplicationReceived   = "application_received"
	EventApplicationWithdrawn  = "application_withdrawn"
	EventApplicationRejected   = "application_rejected"
	EventConfirmationRequested = "confirmation_requested"
	EventConfirmationLocked    = "confirmation_locked"
	EventSubstitutionConfirmed = "substitution_confirmed"
	EventSubstitutionRejected  = "substitution_rejected"
	EventPostingCancelled      = "posting_cancelled"
	EventPostingExpired        = "posting_expired"
	EventNoShowWarning         = "no_show_warning"
	EventSuspensionApplied     = "suspension_applied"
	EventToggleLockout         = "toggle_lockout"
)

// Payload what a sink delivers
type Payload struct {
	Subject  string
	Body     string
	Metadata map[string]interface{}
}

// Sink delivers one message. Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, channel, recipient string, payload Payload) error
}

// Message a notification to enqueue
type Message struct {
	Channel   string
	Recipient string
	Event     string
	Subject   string
	Body      string
	RelatedID string
	Metadata  map[string]interface{}
	Sensitive bool // body is blanked once delivered or given up on
}
