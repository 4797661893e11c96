// Package ml serves the pre-trained stroke risk classifier.
//
// A model artifact is a JSON document carrying the feature schema, the
// one-hot category lists, the min-max statistics captured at training time
// and the weights of a linear scorer:
//
//	{
//	  "name": "stroke_risk", "version": "2024-01",
//	  "features": ["age", "gender", ...],
//	  "categories": {"gender": ["Female", "Male"]},
//	  "normalization": {"min": [...], "max": [...]},
//	  "weights": [...], "bias": -0.3, "threshold": 0
//	}
//
// min, max and weights are indexed by the encoded vector, in which every
// categorical feature expands to one slot per category.
package ml

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/healthrisk/risk-api/internal/core/domain"
)

// Artifact is the serialized form of a trained model.
type Artifact struct {
	Name          string              `json:"name"`
	Version       string              `json:"version"`
	Features      []string            `json:"features"`
	Categories    map[string][]string `json:"categories"`
	Normalization Normalization       `json:"normalization"`
	Weights       []float64           `json:"weights"`
	Bias          float64             `json:"bias"`
	Threshold     float64             `json:"threshold"`
}

// Normalization holds per-slot min-max statistics.
type Normalization struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

// DecodeArtifact reads and validates an artifact against the expected
// feature set.
func DecodeArtifact(r io.Reader, expected []string) (*Artifact, error) {
	var a Artifact
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", domain.ErrInvalidModel, err)
	}
	if err := a.validate(expected); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidModel, err)
	}
	return &a, nil
}

// Width is the length of the encoded feature vector.
func (a *Artifact) Width() int {
	n := 0
	for _, f := range a.Features {
		if cats, ok := a.Categories[f]; ok {
			n += len(cats)
			continue
		}
		n++
	}
	return n
}

func (a *Artifact) validate(expected []string) error {
	if len(a.Features) == 0 {
		return fmt.Errorf("no features")
	}

	seen := make(map[string]bool, len(a.Features))
	for _, f := range a.Features {
		if seen[f] {
			return fmt.Errorf("duplicate feature %q", f)
		}
		seen[f] = true
	}
	for _, f := range expected {
		if !seen[f] {
			return fmt.Errorf("missing feature %q", f)
		}
	}
	if len(a.Features) != len(expected) {
		return fmt.Errorf("expected %d features, got %d", len(expected), len(a.Features))
	}
	for f, cats := range a.Categories {
		if !seen[f] {
			return fmt.Errorf("categories for unknown feature %q", f)
		}
		if len(cats) == 0 {
			return fmt.Errorf("feature %q has no categories", f)
		}
	}

	w := a.Width()
	switch {
	case len(a.Weights) != w:
		return fmt.Errorf("expected %d weights, got %d", w, len(a.Weights))
	case len(a.Normalization.Min) != w || len(a.Normalization.Max) != w:
		return fmt.Errorf("normalization must have %d entries", w)
	}
	for i := 0; i < w; i++ {
		if a.Normalization.Max[i] < a.Normalization.Min[i] {
			return fmt.Errorf("normalization slot %d has max below min", i)
		}
	}
	if !finite([]float64{a.Bias, a.Threshold}, a.Weights, a.Normalization.Min, a.Normalization.Max) {
		return fmt.Errorf("non-finite parameter")
	}
	return nil
}

func finite(groups ...[]float64) bool {
	for _, g := range groups {
		for _, v := range g {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
