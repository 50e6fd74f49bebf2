package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/capstone-portal-api/internal/models"
	"github.com/noah-isme/capstone-portal-api/internal/repository"
	"github.com/noah-isme/capstone-portal-api/internal/versioning"
)

var (
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")
	pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}
	gifBytes = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

type storageStub struct {
	mu       sync.Mutex
	names    []string
	uploaded bytes.Buffer
}

func (s *storageStub) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploaded.Reset()
	if _, err := s.uploaded.ReadFrom(reader); err != nil {
		return "", err
	}
	s.names = append(s.names, name)
	return "https://cdn.example.com/" + name, nil
}

type uploadRepoStub struct {
	record  models.UploadRecord
	deleted []string
}

func (u *uploadRepoStub) Create(ctx context.Context, record *models.UploadRecord) error {
	u.record = *record
	return nil
}

func (u *uploadRepoStub) DeleteByURLs(ctx context.Context, urls []string) (int64, error) {
	u.deleted = append(u.deleted, urls...)
	return int64(len(urls)), nil
}

type publisherStub struct {
	mu     sync.Mutex
	events []string
	last   SubmissionEvent
}

func (p *publisherStub) Publish(ctx context.Context, event string, payload SubmissionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	p.last = payload
	return nil
}

type invalidatorStub struct {
	groups []uint
}

func (i *invalidatorStub) Invalidate(ctx context.Context, groupID uint) {
	i.groups = append(i.groups, groupID)
}

func buildFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {"form-data; name=\"file\"; filename=\"" + filename + "\""},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	writer.Close()

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content) + 1024))
	require.NoError(t, err)
	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

type portalFixture struct {
	db          *gorm.DB
	assignment  models.Assignment
	group       models.Group
	report      models.Deliverable
	slides      models.Deliverable
	storage     *storageStub
	publisher   *publisherStub
	invalidator *invalidatorStub
	submissions SubmissionService
	feedback    FeedbackService
}

func newPortalFixture(t *testing.T) *portalFixture {
	t.Helper()
	db := setupServiceDB(t)

	course := models.Course{Code: "CAP-2026", Title: "Capstone"}
	require.NoError(t, db.Create(&course).Error)

	group := models.Group{CourseID: course.ID, Number: "7", Name: "Team Seven", Members: []models.GroupMember{{UserID: 11, Username: "maya"}}}
	require.NoError(t, db.Create(&group).Error)

	report := models.Deliverable{Name: "Report", Position: 1}
	report.SetAllowedTypes([]versioning.AllowedFileType{{Type: "PDF", MIME: "application/pdf"}})
	slides := models.Deliverable{Name: "Final Slides", Position: 2}
	slides.SetAllowedTypes([]versioning.AllowedFileType{{Type: "Image"}})

	assignment := models.Assignment{
		CourseID:     course.ID,
		Title:        "Chapter 4",
		DueDate:      time.Now().Add(72 * time.Hour),
		Deliverables: []models.Deliverable{report, slides},
	}
	require.NoError(t, db.Create(&assignment).Error)

	storage := &storageStub{}
	publisher := &publisherStub{}
	invalidator := &invalidatorStub{}
	uploads := NewUploadService(storage, repository.NewUploadRepository(db), 5, testLogger())
	subRepo := repository.NewSubmissionRepository(db)

	return &portalFixture{
		db:          db,
		assignment:  assignment,
		group:       group,
		report:      assignment.Deliverables[0],
		slides:      assignment.Deliverables[1],
		storage:     storage,
		publisher:   publisher,
		invalidator: invalidator,
		submissions: NewSubmissionService(subRepo, repository.NewAssignmentRepository(db), repository.NewGroupRepository(db), uploads, publisher, invalidator, testValidator(), testLogger()),
		feedback:    NewFeedbackService(subRepo, uploads, publisher, invalidator, testValidator(), testLogger()),
	}
}
