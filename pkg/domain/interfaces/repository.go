package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	User() UserRepository
	Token() TokenRepository
	Meeting() MeetingRepository
	Transcript() TranscriptRepository

	Close() error
}
