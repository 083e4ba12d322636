package shared

import "time"

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// RecordKind tags a record inside a provider sync page
type RecordKind string

const (
	RecordKindSubscription RecordKind = "subscription"
	RecordKindDeal         RecordKind = "deal"
)

// DayKey truncates t to the calendar day it falls on in loc.
// The result is midnight UTC of that local date so it compares and stores as a plain date.
func DayKey(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateFormat is the wire and URL format of day keys
const DateFormat = "2006-01-02"
