package versioning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func reviewed(comment string, status Status) []Feedback {
	return []Feedback{{Comment: comment, Status: status}}
}

func TestStudentViewEmpty(t *testing.T) {
	view := ResolveStudentView(nil, false)
	require.Empty(t, view.Visible)
	require.False(t, view.HasMore)
}

func TestStudentViewSingleUnreviewedSubmission(t *testing.T) {
	subs := []Submission{{ID: "1", Version: 1, Status: StatusSubmitted}}

	view := ResolveStudentView(subs, false)
	require.Empty(t, view.Visible)
	require.False(t, view.HasMore)
}

func TestStudentViewPendingVersionShowsHistory(t *testing.T) {
	v1 := Submission{ID: "1", Version: 1, Status: StatusApprovedWithFeedback, Feedbacks: reviewed("fix intro", StatusApprovedWithFeedback)}
	v2 := Submission{ID: "2", Version: 2, Status: StatusSubmitted}

	view := ResolveStudentView([]Submission{v2, v1}, false)
	require.Equal(t, []string{"1"}, ids(view.Visible))
	require.False(t, view.HasMore)
}

func TestStudentViewPendingVersionShowsFullHistoryWithoutMore(t *testing.T) {
	v1 := Submission{ID: "1", Version: 1, Status: StatusRejected, Feedbacks: reviewed("redo", StatusRejected)}
	v2 := Submission{ID: "2", Version: 2, Status: StatusApprovedWithFeedback, Feedbacks: reviewed("fix intro", StatusApprovedWithFeedback)}
	v3 := Submission{ID: "3", Version: 3, Status: StatusSubmitted}

	view := ResolveStudentView([]Submission{v1, v3, v2}, false)
	require.Equal(t, []string{"2", "1"}, ids(view.Visible))
	require.False(t, view.HasMore)
}

func TestStudentViewReviewedLatestOnly(t *testing.T) {
	v1 := Submission{ID: "1", Version: 1, Status: StatusRejected, Feedbacks: reviewed("no", StatusRejected)}
	v2 := Submission{ID: "2", Version: 2, Status: StatusApprovedWithFeedback, Feedbacks: reviewed("close", StatusApprovedWithFeedback)}

	view := ResolveStudentView([]Submission{v1, v2}, false)
	require.Equal(t, []string{"2"}, ids(view.Visible))
	require.True(t, view.HasMore)

	single := ResolveStudentView([]Submission{v1}, false)
	require.Equal(t, []string{"1"}, ids(single.Visible))
	require.False(t, single.HasMore)
}

func TestStudentViewFinalWithoutOwnFeedbackIsPrepended(t *testing.T) {
	prev := Submission{ID: "prev", Version: 1, Status: StatusApprovedWithFeedback, Feedbacks: reviewed("almost", StatusApprovedWithFeedback)}
	final := Submission{ID: "final", Version: 2, Status: StatusFinal}

	view := ResolveStudentView([]Submission{prev, final}, false)
	require.Equal(t, []string{"final"}, ids(view.Visible))
	require.True(t, view.HasMore)
}

func TestStudentViewFinalWithFeedbackIsNotDuplicated(t *testing.T) {
	final := Submission{ID: "final", Version: 1, Status: StatusFinal, Feedbacks: reviewed("approved", StatusFinal)}

	view := ResolveStudentView([]Submission{final}, false)
	require.Equal(t, []string{"final"}, ids(view.Visible))
	require.False(t, view.HasMore)
}

func TestStudentViewShowAll(t *testing.T) {
	now := time.Now()
	subs := []Submission{
		{ID: "1", Version: 1, SubmittedAt: now.Add(-time.Hour), Status: StatusRejected, Feedbacks: reviewed("redo", StatusRejected)},
		{ID: "3", Version: 3, SubmittedAt: now, Status: StatusSubmitted},
		{ID: "2", Version: 2, SubmittedAt: now.Add(-time.Minute), Status: StatusRejected, Feedbacks: reviewed("redo", StatusRejected)},
	}

	view := ResolveStudentView(subs, true)
	require.Equal(t, []string{"3", "2", "1"}, ids(view.Visible))
	require.False(t, view.HasMore)
}

func TestResolveStudentViewIsRepeatable(t *testing.T) {
	subs := []Submission{
		{ID: "a", Version: 2, Status: StatusSubmitted},
		{ID: "b", Version: 1, Status: StatusRejected, Feedbacks: reviewed("x", StatusRejected)},
	}
	first := ResolveStudentView(subs, false)
	second := ResolveStudentView(subs, false)
	require.Equal(t, first, second)
	require.Equal(t, "a", subs[0].ID)
}

func TestReviewerView(t *testing.T) {
	v1 := Submission{ID: "1", Version: 1, Status: StatusRejected, Feedbacks: reviewed("redo", StatusRejected)}
	v2 := Submission{ID: "2", Version: 2, Status: StatusApprovedWithFeedback, Feedbacks: reviewed("minor", StatusApprovedWithFeedback)}
	v3 := Submission{ID: "3", Version: 3, Status: StatusSubmitted}

	view := ResolveReviewerView([]Submission{v1, v2, v3}, false)
	require.Equal(t, []string{"2"}, ids(view.Visible))
	require.True(t, view.HasMore)
	require.Equal(t, GateOpen, view.Gate)
	require.True(t, view.Gate.CanGiveFeedback())

	all := ResolveReviewerView([]Submission{v1, v2, v3}, true)
	require.Equal(t, []string{"2", "1"}, ids(all.Visible))
	require.False(t, all.HasMore)
}

func TestReviewerGate(t *testing.T) {
	require.Equal(t, GateNoSubmission, ResolveReviewerView(nil, false).Gate)

	answered := Submission{ID: "1", Version: 1, Status: StatusRejected, Feedbacks: reviewed("redo", StatusRejected)}
	gate := ResolveReviewerView([]Submission{answered}, false).Gate
	require.Equal(t, GateAwaitingNewVersion, gate)
	require.False(t, gate.CanGiveFeedback())
	require.Equal(t, "feedback already given, awaiting new version", gate.Message())

	final := Submission{ID: "2", Version: 2, Status: StatusFinal}
	gate = ResolveReviewerView([]Submission{answered, final}, false).Gate
	require.Equal(t, GateFinalized, gate)
	require.Equal(t, "already approved", gate.Message())
}

func TestResolveVersionsDispatchesOnRole(t *testing.T) {
	subs := []Submission{{ID: "1", Version: 1, Status: StatusSubmitted}}

	student := ResolveVersions(ParseViewerRole("student"), subs, false)
	require.Empty(t, student.Visible)
	require.Equal(t, GateOpen, student.Gate)

	advisor := ResolveVersions(ParseViewerRole(" Advisor "), subs, false)
	require.Empty(t, advisor.Visible)
	require.Equal(t, GateOpen, advisor.Gate)

	require.Equal(t, RoleStudent, ParseViewerRole("guest"))
	require.True(t, RoleStaff.IsReviewer())
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("approved")
	require.NoError(t, err)
	require.Equal(t, StatusFinal, status)

	status, err = ParseStatus("APPROVED_WITH_FEEDBACK")
	require.NoError(t, err)
	require.True(t, status.IsFeedbackOutcome())

	status, err = ParseStatus("submitted")
	require.NoError(t, err)
	require.False(t, status.IsFeedbackOutcome())

	_, err = ParseStatus("pending")
	require.Error(t, err)
}

func TestFeedbackComment(t *testing.T) {
	sub := Submission{Feedbacks: []Feedback{{Comment: "first"}, {Comment: "  "}, {Comment: "second"}}}
	require.Equal(t, "first\nsecond", sub.FeedbackComment())
}
