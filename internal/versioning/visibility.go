package versioning

import "strings"

// ViewerRole selects which resolution rules apply.
type ViewerRole string

const (
	RoleStudent ViewerRole = "student"
	RoleAdvisor ViewerRole = "advisor"
	RoleStaff   ViewerRole = "staff"
	RoleAdmin   ViewerRole = "admin"
)

// ParseViewerRole maps a role claim onto a ViewerRole. Unknown roles see the student view.
func ParseViewerRole(role string) ViewerRole {
	switch ViewerRole(strings.ToLower(strings.TrimSpace(role))) {
	case RoleAdvisor:
		return RoleAdvisor
	case RoleStaff:
		return RoleStaff
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleStudent
	}
}

// IsReviewer reports whether the role reviews submissions rather than authoring them.
func (r ViewerRole) IsReviewer() bool {
	return r == RoleAdvisor || r == RoleStaff || r == RoleAdmin
}

// Visibility is the set of versions to render and whether older history is hidden.
type Visibility struct {
	Visible []Submission
	HasMore bool
}

// ReviewGate says whether a reviewer may respond to the latest version.
type ReviewGate string

const (
	GateOpen               ReviewGate = "open"
	GateNoSubmission       ReviewGate = "no_submission"
	GateFinalized          ReviewGate = "finalized"
	GateAwaitingNewVersion ReviewGate = "awaiting_new_version"
)

// CanGiveFeedback reports whether the feedback form may be offered.
func (g ReviewGate) CanGiveFeedback() bool {
	return g == GateOpen
}

// Message is the blocking text shown instead of the feedback form.
func (g ReviewGate) Message() string {
	switch g {
	case GateNoSubmission:
		return "no submission yet"
	case GateFinalized:
		return "already approved"
	case GateAwaitingNewVersion:
		return "feedback already given, awaiting new version"
	default:
		return ""
	}
}

// ReviewerView is the reviewer-facing resolution plus the feedback gate.
type ReviewerView struct {
	Visibility
	Gate ReviewGate
}

// GateFor decides whether feedback may be given on the latest submission.
func GateFor(latest *Submission) ReviewGate {
	switch {
	case latest == nil:
		return GateNoSubmission
	case latest.Status == StatusFinal:
		return GateFinalized
	case latest.HasFeedback():
		return GateAwaitingNewVersion
	default:
		return GateOpen
	}
}

// ResolveStudentView picks the versions a student sees. Exactly one actionable card
// is surfaced at a time; deeper history stays behind showAll.
func ResolveStudentView(submissions []Submission, showAll bool) Visibility {
	all := SortVersions(submissions)
	if len(all) == 0 {
		return Visibility{Visible: []Submission{}}
	}
	if showAll {
		return Visibility{Visible: all}
	}

	latest := all[0]
	if latest.Status == StatusFinal {
		final := withLatestFirst(latest, feedbackVersions(all))
		return Visibility{
			Visible: final[:1],
			HasMore: len(final) > 1,
		}
	}

	if latest.HasFeedback() {
		return Visibility{
			Visible: []Submission{latest},
			HasMore: len(all) > 1,
		}
	}

	// The newest version is still pending review, so only prior history is shown.
	history := all[1:]
	if len(history) == 0 {
		return Visibility{Visible: []Submission{}}
	}
	return Visibility{Visible: history}
}

// ResolveReviewerView picks the feedback-bearing versions a reviewer sees.
func ResolveReviewerView(submissions []Submission, showAll bool) ReviewerView {
	all := SortVersions(submissions)
	reviewed := feedbackVersions(all)

	var latest *Submission
	if len(all) > 0 {
		latest = &all[0]
	}

	view := ReviewerView{Gate: GateFor(latest)}
	switch {
	case showAll:
		view.Visible = reviewed
	case len(reviewed) > 0:
		view.Visible = reviewed[:1]
		view.HasMore = len(reviewed) > 1
	default:
		view.Visible = []Submission{}
	}
	return view
}

// ResolveVersions dispatches to the student or reviewer rules.
func ResolveVersions(role ViewerRole, submissions []Submission, showAll bool) ReviewerView {
	if role.IsReviewer() {
		return ResolveReviewerView(submissions, showAll)
	}
	all := SortVersions(submissions)
	var latest *Submission
	if len(all) > 0 {
		latest = &all[0]
	}
	return ReviewerView{
		Visibility: ResolveStudentView(all, showAll),
		Gate:       GateFor(latest),
	}
}

func feedbackVersions(sorted []Submission) []Submission {
	reviewed := make([]Submission, 0, len(sorted))
	for _, submission := range sorted {
		if submission.HasFeedback() {
			reviewed = append(reviewed, submission)
		}
	}
	return reviewed
}

// withLatestFirst includes latest exactly once, prepending it when no entry shares its ID.
func withLatestFirst(latest Submission, reviewed []Submission) []Submission {
	for _, submission := range reviewed {
		if submission.ID == latest.ID {
			return reviewed
		}
	}
	return append([]Submission{latest}, reviewed...)
}
