package services

import (
	"time"

	"thermasense/contexts/building-comfort/thermostat-engine/domain/entities"
)

// ClassifyFrequentVoters marks each user as frequent when their first vote is
// strictly older than the tenure threshold and their lifetime vote count meets
// the volume threshold. Users missing from users are never frequent.
func ClassifyFrequentVoters(
	userIDs []string,
	users map[string]entities.User,
	voteCounts map[string]int,
	now time.Time,
	policy Policy,
) map[string]bool {
	cutoff := now.Add(-policy.FrequentTenure)
	frequent := make(map[string]bool, len(userIDs))
	for _, userID := range userIDs {
		user, ok := users[userID]
		if !ok {
			frequent[userID] = false
			continue
		}
		frequent[userID] = user.FirstSeenAt.Before(cutoff) && voteCounts[userID] >= policy.FrequentMinVotes
	}
	return frequent
}

// DistinctVoters returns voter ids in first-seen order.
func DistinctVoters(votes []entities.Vote) []string {
	seen := make(map[string]struct{}, len(votes))
	ids := make([]string, 0, len(votes))
	for _, vote := range votes {
		if _, ok := seen[vote.UserID]; ok {
			continue
		}
		seen[vote.UserID] = struct{}{}
		ids = append(ids, vote.UserID)
	}
	return ids
}
