package versioning

import (
	"path"
	"strings"
)

// UnknownDeliverable buckets files whose deliverable cannot be found.
const UnknownDeliverable = "unknown"

// FileLink is one downloadable file with its inferred extension.
type FileLink struct {
	URL       string `json:"url"`
	Name      string `json:"name"`
	Extension string `json:"extension"`
}

// TypedFiles lists the links shown under one allowed file type.
type TypedFiles struct {
	Type  AllowedFileType
	Links []FileLink
}

// DeliverableFiles groups the links attached to one deliverable.
type DeliverableFiles struct {
	DeliverableID string
	Name          string
	Links         []FileLink
	Types         []TypedFiles
}

var (
	extPDF        = []string{"pdf"}
	extWord       = []string{"docx", "doc"}
	extPowerPoint = []string{"pptx", "ppt"}
	extExcel      = []string{"xlsx", "xls"}
	extImage      = []string{"png", "jpg", "jpeg", "webp"}
	extZip        = []string{"zip"}
	extText       = []string{"txt"}
)

var extensionFamilies = map[string][]string{
	"pdf":  extPDF,
	"doc":  extWord,
	"docx": extWord,
	"ppt":  extPowerPoint,
	"pptx": extPowerPoint,
	"xls":  extExcel,
	"xlsx": extExcel,
	"png":  extImage,
	"jpg":  extImage,
	"jpeg": extImage,
	"webp": extImage,
	"zip":  extZip,
	"txt":  extText,
}

// Label keywords are checked in order, first match wins.
var labelFamilies = []struct {
	keywords   []string
	extensions []string
}{
	{[]string{"pdf"}, extPDF},
	{[]string{"word", "docx", "doc"}, extWord},
	{[]string{"powerpoint", "pptx", "ppt", "slide", "presentation"}, extPowerPoint},
	{[]string{"excel", "xlsx", "xls", "sheet", "spreadsheet"}, extExcel},
	{[]string{"image", "png", "jpeg", "jpg", "webp", "photo"}, extImage},
	{[]string{"zip", "archive"}, extZip},
	{[]string{"text", "txt"}, extText},
}

// AcceptedExtensions maps an allowed type to the extensions it covers. ok is false
// when neither the mime nor the label is recognised.
func AcceptedExtensions(allowed AllowedFileType) (map[string]struct{}, bool) {
	if KnownMIME(allowed.MIME) {
		return toSet(extensionFamilies[ExtensionFor(allowed.MIME)]), true
	}

	label := strings.ToLower(strings.TrimSpace(allowed.Type))
	if label == "" {
		return nil, false
	}
	if family, ok := extensionFamilies[strings.TrimPrefix(label, ".")]; ok {
		return toSet(family), true
	}
	if KnownMIME(label) {
		return toSet(extensionFamilies[ExtensionFor(label)]), true
	}
	for _, candidate := range labelFamilies {
		for _, keyword := range candidate.keywords {
			if strings.Contains(label, keyword) {
				return toSet(candidate.extensions), true
			}
		}
	}
	return nil, false
}

// MatchFilesToAllowedType returns the links that belong under the allowed type.
// Unrecognised types keep every link so no file disappears from view.
func MatchFilesToAllowedType(allowed AllowedFileType, links []FileLink) []FileLink {
	accepted, ok := AcceptedExtensions(allowed)
	matched := make([]FileLink, 0, len(links))
	for _, link := range links {
		if !ok {
			matched = append(matched, link)
			continue
		}
		if _, hit := accepted[link.Extension]; hit {
			matched = append(matched, link)
		}
	}
	return matched
}

// Accepts reports whether a file with the given extension may be uploaded for a
// deliverable. An empty list, or any unrecognised type, accepts everything.
func Accepts(types []AllowedFileType, ext string) bool {
	if len(types) == 0 {
		return true
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, allowed := range types {
		accepted, ok := AcceptedExtensions(allowed)
		if !ok {
			return true
		}
		if _, hit := accepted[ext]; hit {
			return true
		}
	}
	return false
}

// LinksOf expands an attachment into one link per URL.
func LinksOf(attachment Attachment) []FileLink {
	links := make([]FileLink, 0, len(attachment.URLs))
	for _, raw := range attachment.URLs {
		url := strings.TrimSpace(raw)
		if url == "" {
			continue
		}
		name := strings.TrimSpace(attachment.Name)
		if len(attachment.URLs) > 1 || name == "" {
			name = baseName(url)
		}
		ext := ExtensionOf(url)
		if ext == "" {
			ext = ExtensionOf(attachment.Name)
		}
		links = append(links, FileLink{URL: url, Name: name, Extension: ext})
	}
	return links
}

// GroupByDeliverable groups attachments by deliverable ID, in deliverable order.
// Attachments pointing at no known deliverable end up in a trailing "unknown" group.
func GroupByDeliverable(deliverables []Deliverable, attachments []Attachment) []DeliverableFiles {
	index := make(map[string]int, len(deliverables))
	groups := make([]DeliverableFiles, 0, len(deliverables)+1)
	for _, deliverable := range deliverables {
		index[deliverable.ID] = len(groups)
		groups = append(groups, DeliverableFiles{
			DeliverableID: deliverable.ID,
			Name:          deliverable.Name,
			Links:         []FileLink{},
		})
	}

	unknown := DeliverableFiles{DeliverableID: UnknownDeliverable, Name: UnknownDeliverable, Links: []FileLink{}}
	for _, attachment := range attachments {
		links := LinksOf(attachment)
		if pos, ok := index[attachment.DeliverableID]; ok && attachment.DeliverableID != "" {
			groups[pos].Links = append(groups[pos].Links, links...)
			continue
		}
		unknown.Links = append(unknown.Links, links...)
	}

	for i, deliverable := range deliverables {
		types := make([]TypedFiles, 0, len(deliverable.AllowedFileTypes))
		for _, allowed := range deliverable.AllowedFileTypes {
			types = append(types, TypedFiles{
				Type:  allowed,
				Links: MatchFilesToAllowedType(allowed, groups[i].Links),
			})
		}
		groups[i].Types = types
	}

	if len(unknown.Links) > 0 {
		groups = append(groups, unknown)
	}
	return groups
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}

func baseName(url string) string {
	if idx := strings.IndexAny(url, "?#"); idx >= 0 {
		url = url[:idx]
	}
	return path.Base(url)
}
