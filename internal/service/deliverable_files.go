package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"sort"
	"time"

	"github.com/noah-isme/capstone-portal-api/internal/models"
	"github.com/noah-isme/capstone-portal-api/internal/versioning"
)

// DeliverableUploads maps a deliverable ID to the files sent for it.
type DeliverableUploads map[uint][]*multipart.FileHeader

type storedDeliverable struct {
	deliverable models.Deliverable
	urls        []string
	names       []string
}

// displayName is the stored file name for a single file, else the deliverable name.
func (s storedDeliverable) displayName() string {
	if len(s.names) == 1 {
		return s.names[0]
	}
	return s.deliverable.Name
}

type fileNamer func(deliverable models.Deliverable, mime string) (string, error)

// storeDeliverableFiles uploads every file under its generated name. All deliverable
// IDs are checked before the first upload. With enforceTypes set, each file must match
// the deliverable's allowed types. A deliverable holds at most one file per extension.
func storeDeliverableFiles(ctx context.Context, uploads UploadService, assignment models.Assignment, files DeliverableUploads, userID uint, enforceTypes bool, name fileNamer) ([]storedDeliverable, error) {
	ids := make([]uint, 0, len(files))
	for id, headers := range files {
		if len(headers) == 0 {
			continue
		}
		if _, ok := assignment.Deliverable(id); !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownDeliverable, id)
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	stored := make([]storedDeliverable, 0, len(ids))
	for _, id := range ids {
		deliverable, _ := assignment.Deliverable(id)
		allowed := deliverable.AllowedTypes()
		seen := map[string]struct{}{}

		entry := storedDeliverable{deliverable: deliverable}
		for _, header := range files[id] {
			owner := userID
			result, err := uploads.Upload(ctx, header, UploadOptions{
				UserID: &owner,
				Accept: func(mime string) error {
					ext := versioning.ExtensionFor(mime)
					if enforceTypes && !versioning.Accepts(allowed, ext) {
						return fmt.Errorf("%w: %s does not accept .%s", ErrFileTypeNotAccepted, deliverable.Name, ext)
					}
					if _, dup := seen[ext]; dup {
						return fmt.Errorf("%w: %s already has a .%s file", ErrDuplicateFileType, deliverable.Name, ext)
					}
					seen[ext] = struct{}{}
					return nil
				},
				Name: func(mime string) (string, error) {
					return name(deliverable, mime)
				},
			})
			if err != nil {
				uploads.Discard(ctx, append(storedURLs(stored), entry.urls...))
				return nil, err
			}
			entry.urls = append(entry.urls, result.URL)
			entry.names = append(entry.names, result.FileName)
		}
		stored = append(stored, entry)
	}

	return stored, nil
}

func storedURLs(stored []storedDeliverable) []string {
	var urls []string
	for _, entry := range stored {
		urls = append(urls, entry.urls...)
	}
	return urls
}

// effectiveDueDate is the most recent feedback extension, falling back to the
// assignment due date.
func effectiveDueDate(assignment models.Assignment, history []versioning.Submission) time.Time {
	for _, submission := range versioning.SortVersions(history) {
		for i := len(submission.Feedbacks) - 1; i >= 0; i-- {
			if due := submission.Feedbacks[i].NewDueDate; due != nil {
				return *due
			}
		}
	}
	return assignment.DueDate
}

func deliverableIDPtr(id uint) *uint {
	return &id
}
