package ports

import (
	"context"
	"io"
	"time"

	"github.com/healthrisk/risk-api/internal/core/domain"
)

// Predictor scores stroke inputs with a loaded model.
type Predictor interface {
	Predict(input domain.StrokeInput) (*domain.Prediction, error)
	Loaded() bool
}

// ArtifactInfo describes a stored model artifact.
type ArtifactInfo struct {
	Location     string
	Size         int64
	LastModified time.Time
}

// ArtifactSource opens model artifacts by path or key. Both methods return
// domain.ErrModelNotFound when the artifact does not exist.
type ArtifactSource interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Stat(ctx context.Context, path string) (*ArtifactInfo, error)
}
