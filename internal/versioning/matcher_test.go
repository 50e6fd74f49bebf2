package versioning

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func links(names ...string) []FileLink {
	out := make([]FileLink, 0, len(names))
	for _, name := range names {
		out = append(out, FileLink{URL: "https://files.test/" + name, Name: name, Extension: ExtensionOf(name)})
	}
	return out
}

func linkNames(in []FileLink) []string {
	out := make([]string, 0, len(in))
	for _, l := range in {
		out = append(out, l.Name)
	}
	return out
}

func TestMatchFilesToAllowedTypePDF(t *testing.T) {
	candidates := links("report.pdf", "report.docx")
	matched := MatchFilesToAllowedType(AllowedFileType{Type: "PDF"}, candidates)
	require.Equal(t, []string{"report.pdf"}, linkNames(matched))
}

func TestMatchFilesToAllowedTypeWordFamily(t *testing.T) {
	candidates := links("a.doc", "b.docx", "c.pdf")
	matched := MatchFilesToAllowedType(AllowedFileType{Type: "Word", MIME: "application/msword"}, candidates)
	require.Equal(t, []string{"a.doc", "b.docx"}, linkNames(matched))

	byLabel := MatchFilesToAllowedType(AllowedFileType{Type: "Word document"}, candidates)
	require.Equal(t, []string{"a.doc", "b.docx"}, linkNames(byLabel))
}

func TestMatchFilesToAllowedTypeUnknownIsInclusive(t *testing.T) {
	candidates := links("a.pdf", "b.docx", "c.mov")
	matched := MatchFilesToAllowedType(AllowedFileType{Type: "Video walkthrough"}, candidates)
	require.Equal(t, []string{"a.pdf", "b.docx", "c.mov"}, linkNames(matched))
}

func TestAccepts(t *testing.T) {
	pdfOnly := []AllowedFileType{{Type: "PDF", MIME: "application/pdf"}}
	require.True(t, Accepts(pdfOnly, "pdf"))
	require.True(t, Accepts(pdfOnly, ".PDF"))
	require.False(t, Accepts(pdfOnly, "docx"))

	require.True(t, Accepts(nil, "exe"))
	require.True(t, Accepts([]AllowedFileType{{Type: "PDF"}, {Type: "Anything else"}}, "mov"))
}

func TestLinksOf(t *testing.T) {
	single := LinksOf(Attachment{Name: "G1_Report_V1.pdf", URLs: []string{"https://files.test/raw/abc"}})
	require.Len(t, single, 1)
	require.Equal(t, "G1_Report_V1.pdf", single[0].Name)
	require.Equal(t, "pdf", single[0].Extension)

	multi := LinksOf(Attachment{Name: "bundle", URLs: []string{"https://files.test/a.pdf", " ", "https://files.test/b.zip?x=1"}})
	require.Equal(t, []string{"a.pdf", "b.zip"}, linkNames(multi))
	require.Equal(t, "zip", multi[1].Extension)
}

func TestGroupByDeliverable(t *testing.T) {
	deliverables := []Deliverable{
		{ID: "10", Name: "Chapter 1", AllowedFileTypes: []AllowedFileType{{Type: "PDF"}, {Type: "Word"}}},
		{ID: "11", Name: "Slides"},
	}
	attachments := []Attachment{
		{DeliverableID: "10", URLs: []string{"https://files.test/G1_Chapter-1_V1.pdf", "https://files.test/G1_Chapter-1_V1.docx"}},
		{DeliverableID: "99", Name: "orphan.zip", URLs: []string{"https://files.test/orphan.zip"}},
		{DeliverableID: "", URLs: []string{"https://files.test/loose.txt"}},
	}

	groups := GroupByDeliverable(deliverables, attachments)
	require.Len(t, groups, 3)

	require.Equal(t, "10", groups[0].DeliverableID)
	require.Len(t, groups[0].Links, 2)
	require.Len(t, groups[0].Types, 2)
	require.Equal(t, []string{"G1_Chapter-1_V1.pdf"}, linkNames(groups[0].Types[0].Links))
	require.Equal(t, []string{"G1_Chapter-1_V1.docx"}, linkNames(groups[0].Types[1].Links))

	require.Equal(t, "11", groups[1].DeliverableID)
	require.Empty(t, groups[1].Links)
	require.Empty(t, groups[1].Types)

	require.Equal(t, UnknownDeliverable, groups[2].DeliverableID)
	require.Equal(t, []string{"orphan.zip", "loose.txt"}, linkNames(groups[2].Links))
}

func TestGroupByDeliverableOmitsEmptyUnknown(t *testing.T) {
	groups := GroupByDeliverable([]Deliverable{{ID: "1", Name: "Report"}}, nil)
	require.Len(t, groups, 1)
	require.Equal(t, "1", groups[0].DeliverableID)
}
