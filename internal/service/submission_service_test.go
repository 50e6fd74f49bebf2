package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/capstone-portal-api/internal/dto"
	"github.com/noah-isme/capstone-portal-api/internal/versioning"
)

func (f *portalFixture) turnIn(t *testing.T, files DeliverableUploads) dto.SubmissionVersionResponse {
	t.Helper()
	resp, err := f.submissions.TurnIn(context.Background(), dto.SubmissionTurnInRequest{
		AssignmentID: f.assignment.ID,
		GroupID:      f.group.ID,
		SubmittedBy:  11,
	}, files)
	require.NoError(t, err)
	return resp
}

func (f *portalFixture) query(role string) dto.SubmissionQuery {
	return dto.SubmissionQuery{AssignmentID: f.assignment.ID, GroupID: f.group.ID, Role: role}
}

func TestSubmissionServiceTurnInNamesFilesAndVersions(t *testing.T) {
	f := newPortalFixture(t)
	ctx := context.Background()

	first, err := f.submissions.TurnIn(ctx, dto.SubmissionTurnInRequest{
		AssignmentID: f.assignment.ID,
		GroupID:      f.group.ID,
		Comment:      "<b>First</b> draft",
		SubmittedBy:  11,
	}, DeliverableUploads{
		f.report.ID: {buildFileHeader(t, "report final FINAL.pdf", pdfBytes)},
		f.slides.ID: {buildFileHeader(t, "deck.png", pngBytes)},
	})
	require.NoError(t, err)
	require.Equal(t, 1, first.Version)
	require.Equal(t, string(versioning.StatusSubmitted), first.Status)
	require.Equal(t, "First draft", first.Comment)
	require.Len(t, first.Files, 2)
	require.Equal(t, []string{"G7_Report_V1.pdf", "G7_Final-Slides_V1.png"}, f.storage.names)
	require.Equal(t, []string{EventSubmissionTurnedIn}, f.publisher.events)
	require.Equal(t, []uint{f.group.ID}, f.invalidator.groups)

	second := f.turnIn(t, DeliverableUploads{f.report.ID: {buildFileHeader(t, "v2.pdf", pdfBytes)}})
	require.Equal(t, 2, second.Version)
	require.Equal(t, "G7_Report_V2.pdf", f.storage.names[len(f.storage.names)-1])
	require.Equal(t, 2, f.publisher.last.Version)

	latest, err := f.submissions.Latest(ctx, f.query("student"))
	require.NoError(t, err)
	require.Equal(t, second.ID, latest.ID)

	all, err := f.submissions.List(ctx, f.query("student"))
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, 2, all[0].Version)
}

func TestSubmissionServiceTurnInRejectsBadFiles(t *testing.T) {
	f := newPortalFixture(t)
	ctx := context.Background()
	payload := dto.SubmissionTurnInRequest{AssignmentID: f.assignment.ID, GroupID: f.group.ID, SubmittedBy: 11}

	_, err := f.submissions.TurnIn(ctx, payload, DeliverableUploads{f.report.ID: {buildFileHeader(t, "photo.png", pngBytes)}})
	require.ErrorIs(t, err, ErrFileTypeNotAccepted)
	require.Empty(t, f.storage.names)

	_, err = f.submissions.TurnIn(ctx, payload, DeliverableUploads{999: {buildFileHeader(t, "a.pdf", pdfBytes)}})
	require.ErrorIs(t, err, ErrUnknownDeliverable)

	_, err = f.submissions.TurnIn(ctx, payload, DeliverableUploads{f.report.ID: {
		buildFileHeader(t, "a.pdf", pdfBytes),
		buildFileHeader(t, "b.pdf", pdfBytes),
	}})
	require.ErrorIs(t, err, ErrDuplicateFileType)

	_, err = f.submissions.TurnIn(ctx, payload, DeliverableUploads{})
	require.ErrorIs(t, err, ErrNoFiles)

	_, err = f.submissions.TurnIn(ctx, dto.SubmissionTurnInRequest{GroupID: f.group.ID}, DeliverableUploads{f.report.ID: {buildFileHeader(t, "a.pdf", pdfBytes)}})
	var validationErrs validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrs))

	_, err = f.submissions.TurnIn(ctx, dto.SubmissionTurnInRequest{AssignmentID: f.assignment.ID, GroupID: 404}, DeliverableUploads{f.report.ID: {buildFileHeader(t, "a.pdf", pdfBytes)}})
	require.ErrorIs(t, err, ErrGroupNotFound)

	_, err = f.submissions.TurnIn(ctx, dto.SubmissionTurnInRequest{AssignmentID: 404, GroupID: f.group.ID}, DeliverableUploads{f.report.ID: {buildFileHeader(t, "a.pdf", pdfBytes)}})
	require.ErrorIs(t, err, ErrAssignmentNotFound)

	require.Empty(t, f.publisher.events)
}

func TestSubmissionServiceClosedAfterFinal(t *testing.T) {
	f := newPortalFixture(t)
	ctx := context.Background()

	first := f.turnIn(t, DeliverableUploads{f.report.ID: {buildFileHeader(t, "a.pdf", pdfBytes)}})
	id, err := strconv.ParseUint(first.ID, 10, 64)
	require.NoError(t, err)

	_, err = f.feedback.Give(ctx, uint(id), dto.FeedbackCreateRequest{Status: "APPROVED", Comment: "Approved", AuthorID: 2, AuthorName: "rivera"}, nil)
	require.NoError(t, err)

	_, err = f.submissions.TurnIn(ctx, dto.SubmissionTurnInRequest{AssignmentID: f.assignment.ID, GroupID: f.group.ID}, DeliverableUploads{f.report.ID: {buildFileHeader(t, "b.pdf", pdfBytes)}})
	require.ErrorIs(t, err, ErrSubmissionFinalized)
}

func TestSubmissionServicePastDueHonoursExtension(t *testing.T) {
	f := newPortalFixture(t)
	ctx := context.Background()
	svc := f.submissions.(*submissionService)
	late := f.assignment.DueDate.Add(time.Hour)

	svc.now = func() time.Time { return late }
	_, err := f.submissions.TurnIn(ctx, dto.SubmissionTurnInRequest{AssignmentID: f.assignment.ID, GroupID: f.group.ID}, DeliverableUploads{f.report.ID: {buildFileHeader(t, "a.pdf", pdfBytes)}})
	require.ErrorIs(t, err, ErrSubmissionPastDue)

	svc.now = time.Now
	first := f.turnIn(t, DeliverableUploads{f.report.ID: {buildFileHeader(t, "a.pdf", pdfBytes)}})
	id, err := strconv.ParseUint(first.ID, 10, 64)
	require.NoError(t, err)

	extension := f.assignment.DueDate.Add(48 * time.Hour).UTC().Format(time.RFC3339)
	_, err = f.feedback.Give(ctx, uint(id), dto.FeedbackCreateRequest{Status: "REJECTED", Comment: "Redo section 2", NewDueDate: extension, AuthorName: "rivera"}, nil)
	require.NoError(t, err)

	svc.now = func() time.Time { return late }
	second := f.turnIn(t, DeliverableUploads{f.report.ID: {buildFileHeader(t, "b.pdf", pdfBytes)}})
	require.Equal(t, 2, second.Version)
}

func TestSubmissionServiceTimelineByRole(t *testing.T) {
	f := newPortalFixture(t)
	ctx := context.Background()

	empty, err := f.submissions.Timeline(ctx, f.query("advisor"))
	require.NoError(t, err)
	require.Nil(t, empty.Latest)
	require.Equal(t, string(versioning.GateNoSubmission), empty.ReviewGate)
	require.Equal(t, 1, empty.NextVersion)

	first := f.turnIn(t, DeliverableUploads{f.report.ID: {buildFileHeader(t, "a.pdf", pdfBytes)}})

	student, err := f.submissions.Timeline(ctx, f.query("student"))
	require.NoError(t, err)
	require.Empty(t, student.Visible)
	require.True(t, student.AwaitingReview)
	require.Nil(t, student.CanGiveFeedback)
	require.Equal(t, 2, student.NextVersion)

	advisor, err := f.submissions.Timeline(ctx, f.query("advisor"))
	require.NoError(t, err)
	require.Empty(t, advisor.Visible)
	require.NotNil(t, advisor.CanGiveFeedback)
	require.True(t, *advisor.CanGiveFeedback)

	id, err := strconv.ParseUint(first.ID, 10, 64)
	require.NoError(t, err)
	_, err = f.feedback.Give(ctx, uint(id), dto.FeedbackCreateRequest{Status: "REJECTED", Comment: "Missing references", AuthorName: "rivera"}, nil)
	require.NoError(t, err)

	student, err = f.submissions.Timeline(ctx, f.query("student"))
	require.NoError(t, err)
	require.Len(t, student.Visible, 1)
	require.Equal(t, "Missing references", student.Visible[0].FeedbackComment)
	require.False(t, student.HasMore)

	advisor, err = f.submissions.Timeline(ctx, f.query("staff"))
	require.NoError(t, err)
	require.False(t, *advisor.CanGiveFeedback)
	require.Equal(t, "feedback already given, awaiting new version", advisor.ReviewMessage)

	second := f.turnIn(t, DeliverableUploads{f.report.ID: {buildFileHeader(t, "b.pdf", pdfBytes)}})

	student, err = f.submissions.Timeline(ctx, f.query("student"))
	require.NoError(t, err)
	require.Equal(t, second.ID, student.Latest.ID)
	require.Len(t, student.Visible, 1)
	require.Equal(t, first.ID, student.Visible[0].ID)

	advisor, err = f.submissions.Timeline(ctx, f.query("advisor"))
	require.NoError(t, err)
	require.True(t, *advisor.CanGiveFeedback)
	require.Len(t, advisor.Visible, 1)
	require.Equal(t, first.ID, advisor.Visible[0].ID)
}

func TestSubmissionServiceFilesGroupedByDeliverable(t *testing.T) {
	f := newPortalFixture(t)

	first := f.turnIn(t, DeliverableUploads{
		f.report.ID: {buildFileHeader(t, "a.pdf", pdfBytes)},
		f.slides.ID: {buildFileHeader(t, "deck.png", pngBytes)},
	})
	id, err := strconv.ParseUint(first.ID, 10, 64)
	require.NoError(t, err)

	files, err := f.submissions.Files(context.Background(), uint(id))
	require.NoError(t, err)
	require.Equal(t, 1, files.Version)
	require.Len(t, files.Deliverables, 2)

	report := files.Deliverables[0]
	require.Equal(t, strconv.FormatUint(uint64(f.report.ID), 10), report.DeliverableID)
	require.Equal(t, "Report", report.Name)
	require.Len(t, report.Files, 1)
	require.Equal(t, "pdf", report.Files[0].Extension)
	require.Equal(t, "G7_Report_V1.pdf", report.Files[0].Name)
	require.Len(t, report.Types, 1)
	require.Len(t, report.Types[0].Files, 1)

	slides := files.Deliverables[1]
	require.Equal(t, "Final Slides", slides.Name)
	require.Equal(t, "https://cdn.example.com/G7_Final-Slides_V1.png", slides.Files[0].URL)
	require.Empty(t, files.Feedbacks)

	_, err = f.submissions.Files(context.Background(), 9999)
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestSubmissionServicePreviewFileName(t *testing.T) {
	f := newPortalFixture(t)
	ctx := context.Background()

	resp, err := f.submissions.PreviewFileName(ctx, dto.FileNamePreviewRequest{Group: "7", Deliverable: "Chapter 4", Version: "2", MIME: "application/pdf"})
	require.NoError(t, err)
	require.Equal(t, "G7_Chapter-4_V2.pdf", resp.FileName)
	require.Equal(t, "pdf", resp.Extension)

	resp, err = f.submissions.PreviewFileName(ctx, dto.FileNamePreviewRequest{Group: "7", Deliverable: "Chapter 4", Version: "2", MIME: "application/x-unknown", Username: "rivera"})
	require.NoError(t, err)
	require.Equal(t, "rivera_G7_Chapter-4_V2.bin", resp.FileName)
	require.Equal(t, versioning.FallbackMIME, resp.MIME)

	_, err = f.submissions.PreviewFileName(ctx, dto.FileNamePreviewRequest{Group: "!!", Deliverable: "Chapter 4", Version: "2"})
	require.ErrorIs(t, err, versioning.ErrInvalidInput)
}

func TestSubmissionServiceResolveRawPayload(t *testing.T) {
	f := newPortalFixture(t)
	raw := []byte(`[
	  {"id": "2", "version": 2, "submittedAt": "2024-06-02T08:00:00Z", "status": "SUBMITTED"},
	  {"id": 1, "version": 1, "submittedAt": "2024-06-01T08:00:00Z", "status": "REJECTED",
	   "feedbacks": [{"comment": "Fix the abstract", "status": "REJECTED"}]}
	]`)

	advisor, err := f.submissions.Resolve(context.Background(), raw, dto.ResolveQuery{Role: "advisor"})
	require.NoError(t, err)
	require.Len(t, advisor.Visible, 1)
	require.Equal(t, "1", advisor.Visible[0].ID)
	require.Equal(t, string(versioning.GateOpen), advisor.ReviewGate)
	require.Equal(t, "2", advisor.Latest.ID)

	student, err := f.submissions.Resolve(context.Background(), raw, dto.ResolveQuery{ShowAll: true})
	require.NoError(t, err)
	require.Len(t, student.Visible, 2)
	require.Equal(t, "student", student.Role)

	_, err = f.submissions.Resolve(context.Background(), []byte(`{"id": 1}`), dto.ResolveQuery{})
	require.ErrorIs(t, err, versioning.ErrInvalidPayload)
}
