package inference

// Placeholder inference mirrors the statistical envelope of field data:
// roughly 30% positive, 55% negative, 15% inconclusive, with confidence
// drawn from a range appropriate to the class and synthetic detection boxes
// for non-negative results.
func (e *Engine) analyzePlaceholder() Analysis {
	e.mu.Lock()
	defer e.mu.Unlock()

	scenario := e.rng.Float64()

	switch {
	case scenario < 0.30:
		n := 1 + e.rng.Intn(5)
		detections := make([]Detection, n)
		var max float64
		for i := range detections {
			conf := e.uniform(0.75, 0.95)
			if conf > max {
				max = conf
			}
			detections[i] = Detection{
				Class:      "plasmodium",
				Confidence: conf,
				BBox:       e.randomBox(),
			}
		}
		return Analysis{Result: Positive, Confidence: max, Detections: detections}

	case scenario < 0.85:
		return Analysis{Result: Negative, Confidence: e.uniform(0.88, 0.98)}

	default:
		d := Detection{
			Class:      "plasmodium",
			Confidence: e.uniform(0.35, 0.55),
			BBox:       e.randomBox(),
		}
		return Analysis{Result: Inconclusive, Confidence: d.Confidence, Detections: []Detection{d}}
	}
}

func (e *Engine) uniform(lo, hi float64) float64 {
	return lo + e.rng.Float64()*(hi-lo)
}

func (e *Engine) randomBox() [4]float64 {
	return [4]float64{
		e.uniform(100, 500),
		e.uniform(100, 400),
		e.uniform(520, 600),
		e.uniform(420, 500),
	}
}
