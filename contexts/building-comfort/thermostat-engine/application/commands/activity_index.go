package commands

import (
	"context"
	"time"

	"thermasense/contexts/building-comfort/thermostat-engine/domain/services"
	"thermasense/contexts/building-comfort/thermostat-engine/ports"
)

// ActivityIndex answers "is this voter frequent" for a batch of users with one
// user lookup and one vote-count lookup, whatever the batch size.
type ActivityIndex struct {
	Users  ports.UserRepository
	Votes  ports.VoteRepository
	Policy services.Policy
}

func (a ActivityIndex) Load(ctx context.Context, userIDs []string, now time.Time) (map[string]bool, error) {
	if len(userIDs) == 0 {
		return map[string]bool{}, nil
	}
	users, err := a.Users.GetUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	counts, err := a.Votes.CountVotesPerUser(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	return services.ClassifyFrequentVoters(userIDs, users, counts, now, a.Policy), nil
}
