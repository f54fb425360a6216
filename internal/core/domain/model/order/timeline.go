package order

import "time"

// TimelineEntry records one status change. Entries are only ever appended.
type TimelineEntry struct {
	status    Status
	timestamp time.Time
	note      string
}

func NewTimelineEntry(status Status, timestamp time.Time, note string) (TimelineEntry, error) {
	if err := status.Validate(); err != nil {
		return TimelineEntry{}, err
	}
	if note == "" {
		note = defaultNote(status)
	}
	return TimelineEntry{status: status, timestamp: timestamp, note: note}, nil
}

func (e TimelineEntry) Status() Status       { return e.status }
func (e TimelineEntry) Timestamp() time.Time { return e.timestamp }
func (e TimelineEntry) Note() string         { return e.note }

func defaultNote(status Status) string {
	return "Order " + status.String()
}
