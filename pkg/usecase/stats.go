package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/interfaces"
	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/domain/types"
	"golang.org/x/sync/errgroup"
)

// StatsUseCase exposes usage statistics for the admin surface
type StatsUseCase struct {
	repo interfaces.Repository
}

func NewStatsUseCase(repo interfaces.Repository) *StatsUseCase {
	return &StatsUseCase{
		repo: repo,
	}
}

// MeetingUsers is one meeting with the users linked to it
type MeetingUsers struct {
	Meeting *model.Meeting
	UserIDs []types.UserID
}

// MeetingUsersPage is a paginated slice of meetings with their linked users
type MeetingUsersPage struct {
	Total  int64
	Offset int
	Limit  int
	Items  []MeetingUsers
}

// MeetingUsers returns a page of all meetings joined with their linked users.
// The total count and the page are fetched concurrently.
func (uc *StatsUseCase) MeetingUsers(ctx context.Context, offset, limit int) (*MeetingUsersPage, error) {
	if offset < 0 || limit < 0 {
		return nil, goerr.Wrap(ErrBadRequest, "offset and limit must be non-negative",
			goerr.V("offset", offset), goerr.V("limit", limit))
	}
	if limit == 0 {
		limit = 100
	}

	var total int64
	var meetings []*model.Meeting

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		n, err := uc.repo.Meeting().Count(egCtx)
		if err != nil {
			return goerr.Wrap(err, "failed to count meetings")
		}
		total = n
		return nil
	})
	eg.Go(func() error {
		page, err := uc.repo.Meeting().List(egCtx, offset, limit)
		if err != nil {
			return goerr.Wrap(err, "failed to list meetings")
		}
		meetings = page
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	items := make([]MeetingUsers, 0, len(meetings))
	for _, meeting := range meetings {
		users, err := uc.repo.Meeting().LinkedUsers(ctx, meeting.ID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list linked users", goerr.V("meeting_id", meeting.ID))
		}
		items = append(items, MeetingUsers{Meeting: meeting, UserIDs: users})
	}

	return &MeetingUsersPage{
		Total:  total,
		Offset: offset,
		Limit:  limit,
		Items:  items,
	}, nil
}
