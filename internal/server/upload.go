package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kfarm/internal/middleware"
	"kfarm/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxUploadSize = 10 * 1024 * 1024 // 10 MB

var allowedImageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// saveUpload stores the image from the named multipart field under a random
// filename and returns its web path ("uploads/<name>"). A missing field is
// not an error; the empty path signals "no file sent".
func (s *Server) saveUpload(c *fiber.Ctx, field string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", nil
	}

	if file.Size > maxUploadSize {
		return "", fmt.Errorf("file exceeds the 10 MB limit")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := allowedImageExts[ext]; !ok {
		return "", fmt.Errorf("unsupported file type %q: only images are accepted", ext)
	}

	if err := os.MkdirAll(s.config.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString() + ext
	if err := c.SaveFile(file, filepath.Join(s.config.UploadDir, name)); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}

	return "uploads/" + name, nil
}

// removeUploadFile deletes a stored upload by its web path. Deletion is
// best-effort: a failure is logged and counted but never fails the request
// that triggered it.
func (s *Server) removeUploadFile(webPath string) {
	if !strings.HasPrefix(webPath, "uploads/") {
		return
	}

	// The base name is all we trust from the stored path.
	name := filepath.Base(webPath)
	full := filepath.Join(s.config.UploadDir, name)

	if err := os.Remove(full); err != nil {
		if !os.IsNotExist(err) {
			middleware.Logger.Warn("failed to remove upload file",
				"path", full, "error", err.Error())
			observability.UploadFileRemovals.WithLabelValues("error").Inc()
		}
		return
	}
	observability.UploadFileRemovals.WithLabelValues("success").Inc()
}
