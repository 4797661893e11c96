package ml

import (
	"fmt"
	"math"
)

// pipeline reproduces the training-time transform: one-hot encoding of
// categorical features, concatenation in schema order, min-max
// normalization, then a linear score.
type pipeline struct {
	features   []string
	categories map[string]map[string]int
	widths     map[string]int
	min        []float64
	span       []float64
	weights    []float64
	bias       float64
	threshold  float64
}

func newPipeline(a *Artifact) *pipeline {
	p := &pipeline{
		features:   append([]string(nil), a.Features...),
		categories: make(map[string]map[string]int, len(a.Categories)),
		widths:     make(map[string]int, len(a.Features)),
		min:        append([]float64(nil), a.Normalization.Min...),
		span:       make([]float64, len(a.Normalization.Min)),
		weights:    append([]float64(nil), a.Weights...),
		bias:       a.Bias,
		threshold:  a.Threshold,
	}
	for f, cats := range a.Categories {
		idx := make(map[string]int, len(cats))
		for i, c := range cats {
			idx[c] = i
		}
		p.categories[f] = idx
	}
	for _, f := range a.Features {
		if cats, ok := a.Categories[f]; ok {
			p.widths[f] = len(cats)
		} else {
			p.widths[f] = 1
		}
	}
	for i := range p.span {
		p.span[i] = a.Normalization.Max[i] - a.Normalization.Min[i]
	}
	return p
}

// encode builds the raw feature vector. Unknown categories encode to all
// zeros.
func (p *pipeline) encode(numeric map[string]float64, categorical map[string]string) ([]float64, error) {
	vec := make([]float64, 0, len(p.weights))
	for _, f := range p.features {
		if idx, ok := p.categories[f]; ok {
			v, present := categorical[f]
			if !present {
				return nil, fmt.Errorf("missing categorical feature %q", f)
			}
			slot := make([]float64, p.widths[f])
			if i, known := idx[v]; known {
				slot[i] = 1
			}
			vec = append(vec, slot...)
			continue
		}
		v, present := numeric[f]
		if !present {
			return nil, fmt.Errorf("missing numeric feature %q", f)
		}
		vec = append(vec, v)
	}
	return vec, nil
}

// normalize rescales vec in place. A slot with zero span normalizes to 0.
func (p *pipeline) normalize(vec []float64) {
	for i, v := range vec {
		if p.span[i] == 0 {
			vec[i] = 0
			continue
		}
		vec[i] = (v - p.min[i]) / p.span[i]
	}
}

func (p *pipeline) score(vec []float64) float64 {
	s := p.bias
	for i, v := range vec {
		s += p.weights[i] * v
	}
	return s
}

// Sigmoid maps a raw linear score to a probability in [0, 1].
func Sigmoid(raw float64) float64 {
	return 1 / (1 + math.Exp(-raw))
}
