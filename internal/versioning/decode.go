package versioning

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/*.schema.json
var schemaFS embed.FS

const schemaBaseURL = "https://capstone.local/schema/"

var (
	schemaOnce        sync.Once
	submissionsSchema *jsonschema.Schema
	deliverableSchema *jsonschema.Schema
	schemaErr         error
)

func loadSchemas() error {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		for _, name := range []string{"submissions", "deliverables"} {
			data, err := schemaFS.ReadFile("schema/" + name + ".schema.json")
			if err != nil {
				schemaErr = err
				return
			}
			if err := compiler.AddResource(schemaBaseURL+name+".json", bytes.NewReader(data)); err != nil {
				schemaErr = err
				return
			}
		}
		if submissionsSchema, schemaErr = compiler.Compile(schemaBaseURL + "submissions.json"); schemaErr != nil {
			return
		}
		deliverableSchema, schemaErr = compiler.Compile(schemaBaseURL + "deliverables.json")
	})
	return schemaErr
}

// DecodeSubmissions validates a backend submissions payload and maps it to typed entities.
func DecodeSubmissions(raw []byte) ([]Submission, error) {
	if err := validatePayload(raw, func() *jsonschema.Schema { return submissionsSchema }); err != nil {
		return nil, err
	}

	var wire []wireSubmission
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: decode submissions: %v", ErrInvalidPayload, err)
	}

	submissions := make([]Submission, 0, len(wire))
	for _, item := range wire {
		status := StatusSubmitted
		if item.Status != nil && strings.TrimSpace(*item.Status) != "" {
			parsed, err := ParseStatus(*item.Status)
			if err != nil {
				return nil, fmt.Errorf("%w: submission %s: %v", ErrInvalidPayload, item.ID, err)
			}
			status = parsed
		}

		feedbacks := make([]Feedback, 0, len(item.Feedbacks))
		for _, fb := range item.Feedbacks {
			feedback := Feedback{
				Comment: deref(fb.Comment),
				Files:   toAttachments(fb.FeedbackFiles),
			}
			if fb.Status != nil && strings.TrimSpace(*fb.Status) != "" {
				parsed, err := ParseStatus(*fb.Status)
				if err != nil {
					return nil, fmt.Errorf("%w: feedback on submission %s: %v", ErrInvalidPayload, item.ID, err)
				}
				feedback.Status = parsed
			}
			if fb.NewDueDate != nil {
				if due := parseTimestamp(*fb.NewDueDate); !due.IsZero() {
					feedback.NewDueDate = &due
				}
			}
			feedbacks = append(feedbacks, feedback)
		}

		submissions = append(submissions, Submission{
			ID:          string(item.ID),
			Version:     item.Version,
			SubmittedAt: time.Time(item.SubmittedAt),
			Status:      status,
			Comment:     deref(item.Comment),
			Files:       toAttachments(item.SubmissionFiles),
			Feedbacks:   feedbacks,
		})
	}

	return submissions, nil
}

// DecodeDeliverables validates a backend deliverables payload and maps it to typed entities.
func DecodeDeliverables(raw []byte) ([]Deliverable, error) {
	if err := validatePayload(raw, func() *jsonschema.Schema { return deliverableSchema }); err != nil {
		return nil, err
	}

	var wire []wireDeliverable
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: decode deliverables: %v", ErrInvalidPayload, err)
	}

	deliverables := make([]Deliverable, 0, len(wire))
	for _, item := range wire {
		types := make([]AllowedFileType, 0, len(item.AllowedFileTypes))
		for _, allowed := range item.AllowedFileTypes {
			types = append(types, AllowedFileType{Type: allowed.Type, MIME: deref(allowed.MIME)})
		}
		deliverables = append(deliverables, Deliverable{
			ID:               string(item.ID),
			Name:             item.Name,
			AllowedFileTypes: types,
		})
	}

	return deliverables, nil
}

func validatePayload(raw []byte, schema func() *jsonschema.Schema) error {
	if err := loadSchemas(); err != nil {
		return fmt.Errorf("load payload schema: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: malformed json: %v", ErrInvalidPayload, err)
	}
	if err := schema().Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

type wireFile struct {
	DeliverableID wireID   `json:"deliverableId"`
	FileURL       wireURLs `json:"fileUrl"`
	Name          *string  `json:"name"`
}

type wireFeedback struct {
	Comment       *string    `json:"comment"`
	Status        *string    `json:"status"`
	NewDueDate    *string    `json:"newDueDate"`
	FeedbackFiles []wireFile `json:"feedbackFiles"`
}

type wireSubmission struct {
	ID              wireID         `json:"id"`
	Version         int            `json:"version"`
	SubmittedAt     wireTime       `json:"submittedAt"`
	Status          *string        `json:"status"`
	Comment         *string        `json:"comment"`
	SubmissionFiles []wireFile     `json:"submissionFiles"`
	Feedbacks       []wireFeedback `json:"feedbacks"`
}

type wireDeliverable struct {
	ID               wireID `json:"id"`
	Name             string `json:"name"`
	AllowedFileTypes []struct {
		Type string  `json:"type"`
		MIME *string `json:"mime"`
	} `json:"allowedFileTypes"`
}

// wireID accepts string or numeric identifiers.
type wireID string

func (w *wireID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*w = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return err
		}
		*w = wireID(strings.TrimSpace(value))
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return err
	}
	*w = wireID(number.String())
	return nil
}

// wireURLs accepts a single URL or a list of URLs.
type wireURLs []string

func (w *wireURLs) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*w = nil
		return nil
	case len(trimmed) > 0 && trimmed[0] == '[':
		var urls []string
		if err := json.Unmarshal(trimmed, &urls); err != nil {
			return err
		}
		*w = urls
		return nil
	default:
		var url string
		if err := json.Unmarshal(trimmed, &url); err != nil {
			return err
		}
		*w = []string{url}
		return nil
	}
}

// wireTime never fails: anything unparsable becomes the zero time.
type wireTime time.Time

func (w *wireTime) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var value string
		if err := json.Unmarshal(trimmed, &value); err == nil {
			*w = wireTime(parseTimestamp(value))
		}
		return nil
	}
	if millis, err := strconv.ParseInt(string(trimmed), 10, 64); err == nil && millis > 0 {
		*w = wireTime(time.UnixMilli(millis).UTC())
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func toAttachments(files []wireFile) []Attachment {
	attachments := make([]Attachment, 0, len(files))
	for _, file := range files {
		attachments = append(attachments, Attachment{
			DeliverableID: string(file.DeliverableID),
			Name:          deref(file.Name),
			URLs:          []string(file.FileURL),
		})
	}
	return attachments
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
