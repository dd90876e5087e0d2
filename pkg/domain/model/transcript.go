package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/types"
)

// TranscriptSegment is one ordered span of speech in a cached transcript.
// Segments are written in bulk when a meeting is archived and never updated.
type TranscriptSegment struct {
	ID        types.SegmentID
	MeetingID types.MeetingID
	StartTime float64
	EndTime   float64
	Text      string
	Speaker   *string
	Language  *string
}

// Validate checks if the TranscriptSegment is valid for persistence
func (s *TranscriptSegment) Validate() error {
	if s.StartTime < 0 {
		return goerr.New("segment start time cannot be negative", goerr.V("start_time", s.StartTime))
	}
	if s.EndTime < s.StartTime {
		return goerr.New("segment end time precedes start time",
			goerr.V("start_time", s.StartTime), goerr.V("end_time", s.EndTime))
	}
	return nil
}
