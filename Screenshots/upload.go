package Screenshots

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"Chronos/AppErrors"
	"Chronos/Models"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	ThumbnailWidth = 320
	MaxUploadBytes = 10 << 20
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// RecordUpload saves an uploaded image and a thumbnail under the upload
// directory and records it as a screenshot. Files are removed again if the
// record cannot be stored.
func (s *Store) RecordUpload(ctx context.Context, input RecordInput, filename string, r io.Reader) (*Models.Screenshot, error) {
	if err := requireOwnSession(s.DB.WithContext(ctx), input.SessionID, input.EmployeeID); err != nil {
		return nil, err
	}

	imagePath, thumbPath, err := s.saveImage(input.EmployeeID, filename, r)
	if err != nil {
		return nil, err
	}
	input.ImageURL = s.publicURL(imagePath)
	input.ThumbnailURL = s.publicURL(thumbPath)

	screenshot, err := s.Record(ctx, input)
	if err != nil {
		for _, p := range []string{imagePath, thumbPath} {
			if removeErr := os.Remove(p); removeErr != nil {
				log.Printf("Failed to remove orphaned upload %s: %v", p, removeErr)
			}
		}
		return nil, err
	}
	return screenshot, nil
}

func (s *Store) saveImage(employeeID, filename string, r io.Reader) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", "", AppErrors.Validation("Only png and jpeg screenshots are accepted")
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return "", "", AppErrors.Internal(err, "Failed to read upload")
	}
	if len(data) > MaxUploadBytes {
		return "", "", AppErrors.Validation("Screenshot exceeds %d MB", MaxUploadBytes>>20)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", "", AppErrors.Validation("Uploaded file is not a valid image")
	}

	dir := filepath.Join(s.UploadDir, employeeID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", AppErrors.Internal(err, "Failed to create upload directory")
	}
	name := uuid.NewString()
	imagePath := filepath.Join(dir, name+ext)
	thumbPath := filepath.Join(dir, name+"_thumb"+ext)

	if err := os.WriteFile(imagePath, data, 0644); err != nil {
		return "", "", AppErrors.Internal(err, "Failed to save screenshot")
	}
	thumb := imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)
	if err := imaging.Save(thumb, thumbPath); err != nil {
		os.Remove(imagePath)
		return "", "", AppErrors.Internal(err, "Failed to save thumbnail")
	}
	return imagePath, thumbPath, nil
}

func (s *Store) publicURL(filePath string) string {
	rel, err := filepath.Rel(s.UploadDir, filePath)
	if err != nil {
		rel = filepath.Base(filePath)
	}
	return path.Join(s.prefix(), filepath.ToSlash(rel))
}

func (s *Store) prefix() string {
	if s.PublicPrefix == "" {
		return "/uploads"
	}
	return "/" + strings.Trim(s.PublicPrefix, "/")
}
