package ml

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/healthrisk/risk-api/internal/core/domain"
	"github.com/healthrisk/risk-api/internal/core/ports"
)

// ModelInfo describes the currently loaded model.
type ModelInfo struct {
	Name     string
	Version  string
	Path     string
	LoadedAt time.Time
}

type loadedModel struct {
	pipeline *pipeline
	info     ModelInfo
}

// StrokePredictor scores domain.StrokeInput values. It starts unloaded;
// Predict fails with domain.ErrModelNotLoaded until Load succeeds. The loaded
// model is immutable and shared by concurrent Predict calls.
type StrokePredictor struct {
	source ports.ArtifactSource
	loadMu sync.Mutex
	model  atomic.Pointer[loadedModel]
	now    func() time.Time
}

func NewStrokePredictor(source ports.ArtifactSource) *StrokePredictor {
	return &StrokePredictor{source: source, now: time.Now}
}

// Load reads the artifact at path and makes it the active model. A missing
// artifact yields domain.ErrModelNotFound and leaves any previous model in
// place.
func (p *StrokePredictor) Load(ctx context.Context, path string) error {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()

	rc, err := p.source.Open(ctx, path)
	if err != nil {
		if errors.Is(err, domain.ErrModelNotFound) {
			return fmt.Errorf("load model %s: %w", path, err)
		}
		return fmt.Errorf("load model %s: open: %w", path, err)
	}
	defer rc.Close()

	a, err := DecodeArtifact(rc, domain.StrokeFeatures)
	if err != nil {
		return fmt.Errorf("load model %s: %w", path, err)
	}

	p.model.Store(&loadedModel{
		pipeline: newPipeline(a),
		info: ModelInfo{
			Name:     a.Name,
			Version:  a.Version,
			Path:     path,
			LoadedAt: p.now().UTC(),
		},
	})
	return nil
}

// Predict scores in with the loaded model.
func (p *StrokePredictor) Predict(in domain.StrokeInput) (*domain.Prediction, error) {
	m := p.model.Load()
	if m == nil {
		return nil, domain.ErrModelNotLoaded
	}

	vec, err := m.pipeline.encode(in.Numeric(), in.Categorical())
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	m.pipeline.normalize(vec)

	raw := m.pipeline.score(vec)
	prob := Sigmoid(raw)
	return &domain.Prediction{
		RawScore:       raw,
		IsAtRisk:       raw > m.pipeline.threshold,
		Probability:    prob,
		RiskPercentage: prob * 100,
	}, nil
}

// Loaded reports whether a model is active.
func (p *StrokePredictor) Loaded() bool {
	return p.model.Load() != nil
}

// Info returns metadata of the active model.
func (p *StrokePredictor) Info() (ModelInfo, bool) {
	m := p.model.Load()
	if m == nil {
		return ModelInfo{}, false
	}
	return m.info, true
}
