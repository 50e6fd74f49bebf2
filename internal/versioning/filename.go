package versioning

import (
	"regexp"
	"strings"
)

var (
	reWhitespace    = regexp.MustCompile(`[\s\pZ]+`)
	reDisallowed    = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
	reSeparatorRuns = regexp.MustCompile(`[-_]{2,}`)
)

// FileNameSpec holds the identity components of a canonical deliverable file name.
type FileNameSpec struct {
	GroupNumber     string
	DeliverableName string
	Version         string
	MIME            string
	// Username is only used by feedback file names.
	Username string
}

// Sanitize reduces free text to a file name component made of [A-Za-z0-9-_].
func Sanitize(value string) string {
	value = strings.TrimSpace(value)
	value = reWhitespace.ReplaceAllString(value, "-")
	value = reDisallowed.ReplaceAllString(value, "")
	return reSeparatorRuns.ReplaceAllStringFunc(value, func(run string) string {
		return run[:1]
	})
}

// EncodeSubmissionFileName builds G<group>_<deliverable>_V<version>.<ext>.
func EncodeSubmissionFileName(spec FileNameSpec) (string, error) {
	parts, err := identityParts(spec)
	if err != nil {
		return "", err
	}
	return strings.Join(parts, "_") + "." + ExtensionFor(spec.MIME), nil
}

// EncodeFeedbackFileName builds <username>_G<group>_<deliverable>_V<version>.<ext>.
func EncodeFeedbackFileName(spec FileNameSpec) (string, error) {
	username := Sanitize(spec.Username)
	if username == "" {
		return "", &InvalidInputError{Field: "username"}
	}
	parts, err := identityParts(spec)
	if err != nil {
		return "", err
	}
	return username + "_" + strings.Join(parts, "_") + "." + ExtensionFor(spec.MIME), nil
}

func identityParts(spec FileNameSpec) ([]string, error) {
	group := Sanitize(spec.GroupNumber)
	if group == "" {
		return nil, &InvalidInputError{Field: "group number"}
	}
	deliverable := Sanitize(spec.DeliverableName)
	if deliverable == "" {
		return nil, &InvalidInputError{Field: "deliverable name"}
	}
	version := Sanitize(spec.Version)
	if version == "" {
		return nil, &InvalidInputError{Field: "version"}
	}
	return []string{"G" + group, deliverable, "V" + version}, nil
}
