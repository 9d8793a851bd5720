// Package camera abstracts the microscope camera used for direct smear
// capture. The hardware module is an external collaborator; MockCamera
// stands in for it during development and on machines without the device.
package camera

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Camera captures one still image and returns the path of the transient
// file holding it. Callers own cleanup of the returned file.
type Camera interface {
	Capture(ctx context.Context) (string, error)
	Available() bool
}

// MockCamera synthesizes a plausible blood-smear frame as a JPEG in the
// system temp directory.
type MockCamera struct {
	logger zerolog.Logger
	rng    *rand.Rand
}

func NewMockCamera(logger zerolog.Logger) *MockCamera {
	logger.Warn().Msg("hardware camera not available, using mock capture")
	return &MockCamera{
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (m *MockCamera) Available() bool { return false }

// Capture writes a synthetic 640x480 smear-like frame and returns its path.
func (m *MockCamera) Capture(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	// Pale field with scattered darker cell-like blobs.
	bg := color.RGBA{R: 236, G: 224, B: 220, A: 255}
	for y := 0; y < 480; y++ {
		for x := 0; x < 640; x++ {
			img.Set(x, y, bg)
		}
	}
	for i := 0; i < 40; i++ {
		cx, cy := m.rng.Intn(640), m.rng.Intn(480)
		r := 6 + m.rng.Intn(10)
		cell := color.RGBA{R: 190, G: 120, B: 130, A: 255}
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if dx*dx+dy*dy <= r*r {
					img.Set(cx+dx, cy+dy, cell)
				}
			}
		}
	}

	path := filepath.Join(os.TempDir(),
		fmt.Sprintf("capture_%s.jpg", time.Now().Format("20060102_150405.000")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create capture file: %w", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("encode capture: %w", err)
	}

	m.logger.Info().Str("path", path).Msg("mock image captured")
	return path, nil
}
