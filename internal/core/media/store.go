package media

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/sirupsen/logrus"

	"github.com/casacolor/casacolor-backend-go/internal/config"
)

const (
	// Maximum accepted upload size
	maxImageSize = 10 << 20 // 10 MiB

	// Longest edge of stored images; larger uploads are downscaled
	maxImageEdge = 1600

	thumbnailWidth = 320
)

// ImageStore persists resident-uploaded post images on the local filesystem.
// Uploads are content-sniffed, downscaled and stored alongside a thumbnail.
type ImageStore struct {
	uploadsPath string
	logger      *logrus.Logger
}

// StoredImage describes a persisted image
type StoredImage struct {
	ID            string `json:"id"`
	Path          string `json:"path"`
	ThumbnailPath string `json:"thumbnail_path"`
	MimeType      string `json:"mime_type"`
	Size          int64  `json:"size"`
}

// NewImageStore creates the store and its directory structure
func NewImageStore(cfg config.StorageConfig, logger *logrus.Logger) (*ImageStore, error) {
	uploadsPath := cfg.UploadsPath
	if uploadsPath == "" {
		uploadsPath = filepath.Join(cfg.BasePath, "uploads")
	}

	if err := os.MkdirAll(uploadsPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	return &ImageStore{
		uploadsPath: uploadsPath,
		logger:      logger,
	}, nil
}

// Save validates and persists an uploaded image, returning its stored paths.
// Only JPEG and PNG payloads are accepted; the declared filename and
// Content-Type are ignored in favor of content sniffing.
func (s *ImageStore) Save(content io.Reader) (*StoredImage, error) {
	data, err := io.ReadAll(io.LimitReader(content, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("image exceeds maximum size of %d bytes", maxImageSize)
	}

	kind, err := filetype.Match(data)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}

	var ext string
	switch kind.MIME.Value {
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	default:
		return nil, fmt.Errorf("unsupported image type %q, only JPEG and PNG are allowed", kind.MIME.Value)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	// Downscale oversized images, keeping aspect ratio
	bounds := img.Bounds()
	if bounds.Dx() > maxImageEdge || bounds.Dy() > maxImageEdge {
		img = imaging.Fit(img, maxImageEdge, maxImageEdge, imaging.Lanczos)
	}

	thumb := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)

	id := uuid.New().String()
	now := time.Now()
	relDir := filepath.Join(now.Format("2006"), now.Format("01"))
	if err := os.MkdirAll(filepath.Join(s.uploadsPath, relDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	relPath := filepath.Join(relDir, id+ext)
	relThumbPath := filepath.Join(relDir, id+"_thumb"+ext)

	if err := imaging.Save(img, filepath.Join(s.uploadsPath, relPath)); err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}
	if err := imaging.Save(thumb, filepath.Join(s.uploadsPath, relThumbPath)); err != nil {
		os.Remove(filepath.Join(s.uploadsPath, relPath))
		return nil, fmt.Errorf("failed to save thumbnail: %w", err)
	}

	info, err := os.Stat(filepath.Join(s.uploadsPath, relPath))
	if err != nil {
		return nil, fmt.Errorf("failed to stat saved image: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"image_id":  id,
		"mime_type": kind.MIME.Value,
		"size":      info.Size(),
	}).Info("Image stored")

	return &StoredImage{
		ID:            id,
		Path:          relPath,
		ThumbnailPath: relThumbPath,
		MimeType:      kind.MIME.Value,
		Size:          info.Size(),
	}, nil
}

// Remove deletes a stored image and its thumbnail
func (s *ImageStore) Remove(relPath string) {
	if relPath == "" {
		return
	}

	full := filepath.Join(s.uploadsPath, relPath)
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		s.logger.WithError(err).WithField("path", relPath).Warn("Failed to remove image")
	}

	ext := filepath.Ext(relPath)
	thumb := relPath[:len(relPath)-len(ext)] + "_thumb" + ext
	if err := os.Remove(filepath.Join(s.uploadsPath, thumb)); err != nil && !os.IsNotExist(err) {
		s.logger.WithError(err).WithField("path", thumb).Warn("Failed to remove thumbnail")
	}
}

// UploadsPath returns the root directory served for images
func (s *ImageStore) UploadsPath() string {
	return s.uploadsPath
}
