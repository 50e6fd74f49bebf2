package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Service stores submission and feedback files on Cloudinary.
type Service struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
	now    func() time.Time
}

// New constructs a Cloudinary service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client: cld,
		folder: cfg.Folder,
		logger: logger.With().Str("component", "cloudinary").Logger(),
		now:    time.Now,
	}, nil
}

// Upload sends the file to Cloudinary and returns a secure URL. The returned URL always
// ends in the file's extension so downloads can be matched back to an allowed type.
func (s *Service) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	folder := strings.Trim(s.folder, "/")
	publicID := buildPublicID(name, s.now())

	unique := false
	params := uploader.UploadParams{
		Folder:         folder,
		PublicID:       publicID,
		ResourceType:   "auto",
		UniqueFilename: &unique,
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload asset: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("failed to upload asset: %s", result.Error.Message)
	}

	s.logger.Info().Str("public_id", result.PublicID).Str("file_name", name).Msg("file uploaded to cloudinary")

	return result.SecureURL, nil
}

// renderedFormats are delivered with their format appended to the public id; every other
// file is stored raw and keeps its extension inside the id.
var renderedFormats = map[string]struct{}{
	"png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "webp": {}, "svg": {}, "bmp": {}, "pdf": {},
	"mp4": {}, "webm": {}, "mov": {}, "mp3": {}, "wav": {},
}

func buildPublicID(name string, at time.Time) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	base := strings.TrimSuffix(name, path.Ext(name))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '-'
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		base = "upload"
	}

	// The timestamp keeps equal names from different assignments apart.
	id := fmt.Sprintf("%s-%d", base, at.Unix())
	if _, rendered := renderedFormats[ext]; !rendered && ext != "" {
		id += "." + ext
	}
	return id
}
