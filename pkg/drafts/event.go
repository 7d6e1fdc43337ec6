package drafts

import "time"

type ChangeEventType string

const (
	ChangeEventTypeDraftCreated ChangeEventType = "DraftCreated"
	ChangeEventTypeDraftUpdated ChangeEventType = "DraftUpdated"
	ChangeEventTypeDraftDeleted ChangeEventType = "DraftDeleted"
)

// ChangeEvent is the message published on the schedule-events queue whenever
// the drafts collection changes. It carries a reference rather than the full
// document; consumers fetch current state themselves.
type ChangeEvent struct {
	Type      ChangeEventType
	Timestamp time.Time

	Identifier string
	FileName   string
}
