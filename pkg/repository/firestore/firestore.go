package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/interfaces"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection       = "users"
	userEmailsCollection  = "user_emails"
	tokensCollection      = "api_tokens"
	meetingsCollection    = "meetings"
	meetingKeysCollection = "meeting_keys"
	linksCollection       = "user_meetings"
	segmentsCollection    = "transcript_segments"
	countersCollection    = "counters"
)

// Firestore implements interfaces.Repository on Cloud Firestore. Unique
// constraints are enforced with key-reservation documents created inside
// transactions, and numeric IDs come from counter documents.
type Firestore struct {
	client     *firestore.Client
	user       *userRepository
	token      *tokenRepository
	meeting    *meetingRepository
	transcript *transcriptRepository
}

var _ interfaces.Repository = &Firestore{}

func New(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	return &Firestore{
		client:     client,
		user:       &userRepository{client: client},
		token:      &tokenRepository{client: client},
		meeting:    &meetingRepository{client: client},
		transcript: &transcriptRepository{client: client},
	}, nil
}

func (f *Firestore) User() interfaces.UserRepository {
	return f.user
}

func (f *Firestore) Token() interfaces.TokenRepository {
	return f.token
}

func (f *Firestore) Meeting() interfaces.MeetingRepository {
	return f.meeting
}

func (f *Firestore) Transcript() interfaces.TranscriptRepository {
	return f.transcript
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// nextID increments the named counter document in its own transaction and
// returns the new value.
func nextID(ctx context.Context, client *firestore.Client, name string) (int64, error) {
	counterRef := client.Collection(countersCollection).Doc(name)

	var id int64
	err := client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(counterRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				id = 1
				return tx.Set(counterRef, map[string]interface{}{"value": id})
			}
			return goerr.Wrap(err, "failed to get counter", goerr.V("counter", name))
		}

		value, err := doc.DataAt("value")
		if err != nil {
			return goerr.Wrap(err, "failed to get counter value", goerr.V("counter", name))
		}
		current, ok := value.(int64)
		if !ok {
			return goerr.New("counter value is not int64", goerr.V("counter", name), goerr.V("value", value))
		}

		id = current + 1
		return tx.Update(counterRef, []firestore.Update{{Path: "value", Value: id}})
	})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to allocate next ID", goerr.V("counter", name))
	}

	return id, nil
}
