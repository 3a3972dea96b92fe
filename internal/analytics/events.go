// Package analytics tracks term comparisons served by the API and ships
// them to Kafka as JSON events.
package analytics

import "time"

type EventType string

const (
	EventCompare EventType = "compare"
	EventPrefix  EventType = "prefix"
)

// CompareEvent records one evaluated ordering or prefix lookup. Queries are
// not recorded, only their rune lengths.
type CompareEvent struct {
	Type        EventType `json:"type"`
	Order       string    `json:"order,omitempty"`
	R           *int      `json:"r,omitempty"`
	Sign        int       `json:"sign"`
	LeftLength  int       `json:"left_length"`
	RightLength int       `json:"right_length,omitempty"`
	Error       string    `json:"error,omitempty"`
	LatencyUs   int64     `json:"latency_us"`
	RequestID   string    `json:"request_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Key partitions events by type and order.
func (e CompareEvent) Key() string {
	if e.Order == "" {
		return string(e.Type)
	}
	return string(e.Type) + ":" + e.Order
}
