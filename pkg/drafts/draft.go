package drafts

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/extract"
)

const CollectionName = "schedule_drafts"

// ScheduleDraft is a persisted extraction result a scheduler can come back
// to. The parsed payload only travels on detail requests.
type ScheduleDraft struct {
	PrimaryIdentifier string `groups:"basic"`
	FileName          string `groups:"basic"`

	CreationDateTime     time.Time `groups:"basic"`
	ModificationDateTime time.Time `groups:"basic"`

	Data       *extract.ParsedSchedule   `groups:"detailed"`
	Validation *extract.ValidationResult `groups:"basic"`

	Report string `groups:"report"`
}

// NewScheduleDraft wraps a successful extraction in a draft document with a
// fresh identifier.
func NewScheduleDraft(result *extract.ExtractionResult) *ScheduleDraft {
	now := time.Now().UTC()

	return &ScheduleDraft{
		PrimaryIdentifier:    fmt.Sprintf("draft-%s", uuid.New().String()),
		FileName:             result.Metadata.FileName,
		CreationDateTime:     now,
		ModificationDateTime: now,
		Data:                 result.Data,
		Validation:           result.Validation,
	}
}

// TimePointCount and EdgeCount tolerate drafts saved without a payload.
func (d *ScheduleDraft) TimePointCount() int {
	if d.Data == nil {
		return 0
	}
	return len(d.Data.TimePoints)
}

func (d *ScheduleDraft) EdgeCount() int {
	if d.Data == nil {
		return 0
	}
	return len(d.Data.TravelTimes)
}
