package memory

import (
	"sync"
	"time"

	"github.com/recapd/relay/pkg/domain/interfaces"
	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/domain/types"
)

// Memory is an in-memory repository used for development and tests. All
// entity maps hang off one store guarded by a single mutex, so cross-entity
// operations (Archive, EnsureLink) are atomic the same way a storage
// transaction would be.
type Memory struct {
	store      *store
	user       *userRepository
	token      *tokenRepository
	meeting    *meetingRepository
	transcript *transcriptRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	s := newStore()
	return &Memory{
		store:      s,
		user:       &userRepository{store: s},
		token:      &tokenRepository{store: s},
		meeting:    &meetingRepository{store: s},
		transcript: &transcriptRepository{store: s},
	}
}

func (m *Memory) User() interfaces.UserRepository {
	return m.user
}

func (m *Memory) Token() interfaces.TokenRepository {
	return m.token
}

func (m *Memory) Meeting() interfaces.MeetingRepository {
	return m.meeting
}

func (m *Memory) Transcript() interfaces.TranscriptRepository {
	return m.transcript
}

func (m *Memory) Close() error {
	return nil
}

type linkKey struct {
	user    types.UserID
	meeting types.MeetingID
}

type store struct {
	mu sync.RWMutex

	users  map[types.UserID]*model.User
	emails map[string]types.UserID

	tokens  map[types.TokenID]*model.APIToken
	secrets map[string]types.TokenID

	meetings    map[types.MeetingID]*model.Meeting
	naturalKeys map[string]types.MeetingID
	links       map[linkKey]time.Time

	segments map[types.MeetingID][]*model.TranscriptSegment

	nextUserID    int64
	nextTokenID   int64
	nextMeetingID int64
	nextSegmentID int64
}

func newStore() *store {
	return &store{
		users:       make(map[types.UserID]*model.User),
		emails:      make(map[string]types.UserID),
		tokens:      make(map[types.TokenID]*model.APIToken),
		secrets:     make(map[string]types.TokenID),
		meetings:    make(map[types.MeetingID]*model.Meeting),
		naturalKeys: make(map[string]types.MeetingID),
		links:       make(map[linkKey]time.Time),
		segments:    make(map[types.MeetingID][]*model.TranscriptSegment),
	}
}

func naturalKey(platform types.Platform, nativeID string) string {
	return platform.String() + ":" + nativeID
}

// copyUser creates a deep copy of a user
func copyUser(u *model.User) *model.User {
	copied := *u
	return &copied
}

// copyToken creates a deep copy of a token
func copyToken(t *model.APIToken) *model.APIToken {
	copied := *t
	return &copied
}

// copyMeeting creates a deep copy of a meeting
func copyMeeting(m *model.Meeting) *model.Meeting {
	copied := *m
	if m.StartTime != nil {
		t := *m.StartTime
		copied.StartTime = &t
	}
	if m.EndTime != nil {
		t := *m.EndTime
		copied.EndTime = &t
	}
	if m.Extra != nil {
		copied.Extra = make(map[string]any, len(m.Extra))
		for k, v := range m.Extra {
			copied.Extra[k] = v
		}
	}
	return &copied
}

// copySegment creates a deep copy of a transcript segment
func copySegment(s *model.TranscriptSegment) *model.TranscriptSegment {
	copied := *s
	if s.Speaker != nil {
		v := *s.Speaker
		copied.Speaker = &v
	}
	if s.Language != nil {
		v := *s.Language
		copied.Language = &v
	}
	return &copied
}
