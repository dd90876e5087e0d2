package infra

import "time"

// BotInfo is the upstream response to a bot request. The upstream assigns its
// own meeting identifier; everything else is passed through untyped.
type BotInfo struct {
	ID    string
	Extra map[string]any
}

// BotStatus is one entry of the upstream running-bots listing. The upstream
// shape is not contractual, so it is passed through as-is.
type BotStatus map[string]any

// Segment is a single transcript line as the upstream reports it
type Segment struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`
	Speaker   *string `json:"speaker"`
	Language  *string `json:"language"`
}

// Transcript is the upstream transcript payload for a meeting
type Transcript struct {
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Segments  []Segment  `json:"segments"`
}
