// Package inference classifies blood-smear images for malaria parasites.
// It wraps an object-detection model when one is available and otherwise
// runs a statistically-shaped placeholder, chosen once at startup.
package inference

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Classification is the outcome of analyzing one image.
type Classification string

const (
	Positive     Classification = "positive"
	Negative     Classification = "negative"
	Inconclusive Classification = "inconclusive"
)

// Mode identifies how the engine produces classifications.
type Mode string

const (
	ModeModel       Mode = "model"
	ModePlaceholder Mode = "placeholder"
)

// Decision thresholds for model mode. Any detection above positiveThreshold
// makes the smear positive; the highest detection above reviewThreshold but
// below positiveThreshold is inconclusive; otherwise negative at a fixed
// high confidence.
const (
	positiveThreshold  = 0.7
	reviewThreshold    = 0.4
	negativeConfidence = 0.95
)

// Detection is one bounding box produced by the model.
type Detection struct {
	Class      string     `json:"class"`
	Confidence float64    `json:"confidence"`
	BBox       [4]float64 `json:"bbox"`
}

// Analysis is the result of one inference call.
type Analysis struct {
	Result           Classification
	Confidence       float64
	ProcessingTimeMs float64
	Detections       []Detection
}

// Detector runs the underlying object-detection model on an image file.
type Detector interface {
	Detect(ctx context.Context, imagePath string) ([]Detection, error)
}

// Options configure an Engine.
type Options struct {
	ModelPath    string
	ModelVersion string
	Detector     Detector
	Logger       zerolog.Logger
	// Seed makes placeholder output reproducible in tests. Zero seeds from
	// the clock.
	Seed int64
}

// Engine analyzes blood-smear images. The operating mode is probed once at
// construction and never changes afterwards.
type Engine struct {
	mode         Mode
	detector     Detector
	modelVersion string
	logger       zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine probes the model artifact and detector availability and selects
// the operating mode: model inference when both are present, placeholder
// otherwise. The choice is logged and immutable.
func NewEngine(opts Options) *Engine {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	e := &Engine{
		mode:         ModePlaceholder,
		detector:     opts.Detector,
		modelVersion: opts.ModelVersion,
		logger:       opts.Logger,
		rng:          rand.New(rand.NewSource(seed)),
	}
	if e.modelVersion == "" {
		e.modelVersion = "placeholder-v1"
	}

	if opts.Detector != nil {
		if _, err := os.Stat(opts.ModelPath); err == nil {
			e.mode = ModeModel
		} else {
			e.logger.Warn().Str("model_path", opts.ModelPath).
				Msg("model artifact not found, using placeholder inference")
		}
	} else if opts.ModelPath != "" {
		e.logger.Warn().Str("model_path", opts.ModelPath).
			Msg("no detector runtime available, using placeholder inference")
	}

	e.logger.Info().
		Str("mode", string(e.mode)).
		Str("model_version", e.modelVersion).
		Msg("inference engine initialized")

	return e
}

// Mode returns the engine's operating mode.
func (e *Engine) Mode() Mode { return e.mode }

// ModelVersion returns the version string recorded on test results.
func (e *Engine) ModelVersion() string { return e.modelVersion }

// Analyze classifies a blood-smear image. The image must already have passed
// Validate. Reads the input file and nothing else; any internal error is a
// hard failure with no partial result.
func (e *Engine) Analyze(ctx context.Context, imagePath string) (Analysis, error) {
	start := time.Now()

	var a Analysis
	var err error
	if e.mode == ModeModel {
		a, err = e.analyzeWithModel(ctx, imagePath)
	} else {
		a = e.analyzePlaceholder()
	}
	if err != nil {
		return Analysis{}, err
	}

	a.ProcessingTimeMs = float64(time.Since(start).Microseconds()) / 1000.0

	e.logger.Info().
		Str("mode", string(e.mode)).
		Str("result", string(a.Result)).
		Float64("confidence", a.Confidence).
		Int("detections", len(a.Detections)).
		Float64("processing_time_ms", a.ProcessingTimeMs).
		Msg("image analyzed")

	return a, nil
}

func (e *Engine) analyzeWithModel(ctx context.Context, imagePath string) (Analysis, error) {
	detections, err := e.detector.Detect(ctx, imagePath)
	if err != nil {
		return Analysis{}, fmt.Errorf("run detector: %w", err)
	}
	return Classify(detections), nil
}

// Classify maps a detection set to a classification using the decision
// thresholds.
func Classify(detections []Detection) Analysis {
	var max float64
	for _, d := range detections {
		if d.Confidence > max {
			max = d.Confidence
		}
	}

	a := Analysis{Detections: detections}
	switch {
	case max > positiveThreshold:
		a.Result = Positive
		a.Confidence = max
	case max > reviewThreshold:
		a.Result = Inconclusive
		a.Confidence = max
	default:
		a.Result = Negative
		a.Confidence = negativeConfidence
		a.Detections = nil
	}
	return a
}
