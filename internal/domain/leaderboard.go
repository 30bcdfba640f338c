package domain

import "sort"

// RankAttempts orders attempts by score descending, then time taken ascending,
// and assigns 1-based ranks by position. The sort is stable, so attempts with
// identical score and time keep their existing relative order; since new
// attempts are appended, the earlier submission ranks higher. Running it on an
// already ranked slice leaves it unchanged.
func RankAttempts(attempts []Attempt) {
	sort.SliceStable(attempts, func(i, j int) bool {
		if attempts[i].Score != attempts[j].Score {
			return attempts[i].Score > attempts[j].Score
		}
		return attempts[i].TimeTaken < attempts[j].TimeTaken
	})
	for i := range attempts {
		attempts[i].Rank = i + 1
	}
}
