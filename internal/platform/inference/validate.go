package inference

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// Image acceptance constraints. Validation failure is terminal for the
// calling operation; it never falls back to placeholder behavior.
const (
	MinImageWidth  = 100
	MinImageHeight = 100
	MaxImageBytes  = 10 * 1024 * 1024
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrImageTooSmall     = errors.New("image dimensions below minimum")
	ErrImageTooLarge     = errors.New("image file exceeds maximum size")
)

// Validate rejects files that are not JPEG/PNG raster images, are smaller
// than 100x100 pixels, or exceed 10 MB on disk.
func (e *Engine) Validate(imagePath string) error {
	info, err := os.Stat(imagePath)
	if err != nil {
		return fmt.Errorf("stat image: %w", err)
	}
	if info.Size() > MaxImageBytes {
		return fmt.Errorf("%w: %d bytes", ErrImageTooLarge, info.Size())
	}

	f, err := os.Open(imagePath)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if format != "jpeg" && format != "png" {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if cfg.Width < MinImageWidth || cfg.Height < MinImageHeight {
		return fmt.Errorf("%w: %dx%d", ErrImageTooSmall, cfg.Width, cfg.Height)
	}
	return nil
}
