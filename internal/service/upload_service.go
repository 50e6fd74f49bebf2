package service

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/capstone-portal-api/internal/dto"
	"github.com/noah-isme/capstone-portal-api/internal/models"
	"github.com/noah-isme/capstone-portal-api/internal/observability"
	"github.com/noah-isme/capstone-portal-api/internal/repository"
	"github.com/noah-isme/capstone-portal-api/internal/versioning"
)

var (
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
	// ErrUploadScanFailed indicates validation of the file failed.
	ErrUploadScanFailed = errors.New("file scanning failed")
	// ErrUploadMissing indicates no file was attached.
	ErrUploadMissing = errors.New("file is required")
)

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// UploadOptions customises a single upload.
type UploadOptions struct {
	UserID *uint
	// Accept may veto the detected mime type before anything is stored.
	Accept func(mime string) error
	// Name returns the stored file name for the detected mime type. When nil the
	// sanitised client file name is used.
	Name func(mime string) (string, error)
}

// UploadService handles validation and persistence of uploads.
type UploadService interface {
	Upload(ctx context.Context, file *multipart.FileHeader, opts UploadOptions) (dto.UploadResponse, error)
	// Discard forgets uploads that were never attached to a version. Storage
	// objects are not removed; their URLs are logged for cleanup.
	Discard(ctx context.Context, urls []string)
}

type uploadService struct {
	storage FileStorage
	repo    repository.UploadRepository
	logger  zerolog.Logger
	maxSize int64
	tracer  trace.Tracer
}

// NewUploadService constructs an upload service.
func NewUploadService(storage FileStorage, repo repository.UploadRepository, maxSizeMB int, logger zerolog.Logger) UploadService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &uploadService{
		storage: storage,
		repo:    repo,
		logger:  logger.With().Str("component", "upload_service").Logger(),
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		tracer:  otel.Tracer("github.com/noah-isme/capstone-portal-api/internal/service/upload"),
	}
}

func (s *uploadService) Upload(ctx context.Context, file *multipart.FileHeader, opts UploadOptions) (dto.UploadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "upload.store")
	defer span.End()

	span.SetAttributes(attribute.Int64("upload.max_bytes", s.maxSize))
	if file != nil {
		span.SetAttributes(
			attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
			attribute.Int64("upload.request_size", file.Size),
		)
	} else {
		span.SetAttributes(attribute.Bool("upload.file_present", false))
	}

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	if file == nil {
		span.RecordError(ErrUploadMissing)
		span.SetStatus(codes.Error, "validation failed")
		return dto.UploadResponse{}, ErrUploadMissing
	}

	if file.Size > s.maxSize {
		return dto.UploadResponse{}, s.reject(span, "size", ErrUploadTooLarge)
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return dto.UploadResponse{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return dto.UploadResponse{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		return dto.UploadResponse{}, s.reject(span, "size", ErrUploadTooLarge)
	}

	fileType := versioning.NormalizeMIME(mimetype.Detect(buf.Bytes()).String())
	span.SetAttributes(attribute.String("upload.detected_mime", fileType))
	if !versioning.KnownMIME(fileType) {
		return dto.UploadResponse{}, s.reject(span, "type", ErrUploadTypeNotAllowed)
	}

	if opts.Accept != nil {
		if err := opts.Accept(fileType); err != nil {
			return dto.UploadResponse{}, s.reject(span, "deliverable", err)
		}
	}

	if err := s.scan(buf.Bytes(), fileType); err != nil {
		return dto.UploadResponse{}, s.reject(span, "scan", err)
	}

	storedName := sanitizeFileName(file.Filename, fileType)
	if opts.Name != nil {
		storedName, err = opts.Name(fileType)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "naming failed")
			return dto.UploadResponse{}, err
		}
	}

	checksum := sha256.Sum256(buf.Bytes())
	span.SetAttributes(
		attribute.String("upload.stored_name", storedName),
		attribute.Int64("upload.size_bytes", int64(buf.Len())),
	)

	url, err := s.storage.Upload(ctx, storedName, bytes.NewReader(buf.Bytes()))
	if err != nil {
		observability.UploadRejected().WithLabelValues("storage").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return dto.UploadResponse{}, err
	}

	record := models.UploadRecord{
		FileName:  storedName,
		URL:       url,
		MimeType:  fileType,
		SizeBytes: int64(buf.Len()),
		Checksum:  hex.EncodeToString(checksum[:]),
	}
	if opts.UserID != nil {
		record.UserID = opts.UserID
		span.SetAttributes(attribute.Int("upload.user_id", int(*opts.UserID)))
	}

	if err := s.repo.Create(ctx, &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.UploadResponse{}, err
	}

	observability.UploadRequests().WithLabelValues(fileType).Inc()
	span.SetStatus(codes.Ok, "stored")
	s.logger.Debug().Str("file_name", storedName).Str("mime", fileType).Msg("upload stored")

	return dto.UploadResponse{
		URL:       url,
		SizeBytes: record.SizeBytes,
		MimeType:  record.MimeType,
		Checksum:  record.Checksum,
		FileName:  record.FileName,
	}, nil
}

func (s *uploadService) Discard(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}
	removed, err := s.repo.DeleteByURLs(ctx, urls)
	if err != nil {
		s.logger.Error().Err(err).Strs("urls", urls).Msg("failed to drop orphaned upload records")
	}
	observability.UploadRejected().WithLabelValues("orphaned").Add(float64(len(urls)))
	s.logger.Warn().Strs("orphaned_urls", urls).Int64("records_removed", removed).Msg("uploads left without a version")
}

func (s *uploadService) reject(span trace.Span, reason string, err error) error {
	observability.UploadRejected().WithLabelValues(reason).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, reason+" rejected")
	return err
}

func (s *uploadService) scan(payload []byte, mime string) error {
	if strings.Contains(mime, "zip") {
		reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
		if err != nil {
			return ErrUploadScanFailed
		}
		var totalUncompressed uint64
		for _, f := range reader.File {
			totalUncompressed += f.UncompressedSize64
			if totalUncompressed > uint64(s.maxSize*20) {
				return fmt.Errorf("zip archive uncompressed size too large: %w", ErrUploadScanFailed)
			}
		}
	}
	return nil
}

// sanitizeFileName keeps the client base name and takes the extension from the
// detected mime type.
func sanitizeFileName(name, mime string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(versioning.Sanitize(base))
	base = strings.Trim(base, "-_")
	if base == "" {
		base = fmt.Sprintf("upload-%d", time.Now().Unix())
	}
	return base + "." + versioning.ExtensionFor(mime)
}
