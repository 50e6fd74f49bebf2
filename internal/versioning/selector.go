package versioning

import (
	"sort"
	"time"
)

// SortVersions returns a copy of the submissions ordered newest first: version
// descending, then submission time descending, then ID descending.
func SortVersions(submissions []Submission) []Submission {
	sorted := make([]Submission, len(submissions))
	copy(sorted, submissions)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Version != b.Version {
			return a.Version > b.Version
		}
		if ta, tb := epochMillis(a.SubmittedAt), epochMillis(b.SubmittedAt); ta != tb {
			return ta > tb
		}
		return a.ID > b.ID
	})
	return sorted
}

// LatestOf returns the newest submission, or nil when there is none.
func LatestOf(submissions []Submission) *Submission {
	if len(submissions) == 0 {
		return nil
	}
	latest := SortVersions(submissions)[0]
	return &latest
}

// AwaitingReview reports whether the group is waiting on a reviewer.
func AwaitingReview(latest *Submission) bool {
	return latest != nil && latest.Status == StatusSubmitted
}

// NextVersion returns the version number the next turn-in receives.
func NextVersion(submissions []Submission) int {
	next := 1
	for _, submission := range submissions {
		if submission.Version >= next {
			next = submission.Version + 1
		}
	}
	return next
}

// epochMillis treats missing timestamps as the Unix epoch.
func epochMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
