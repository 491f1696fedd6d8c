package inference

import (
	"context"
	"errors"

	"github.com/bryanwahyu/skinlens/internal/domain/concerns"
)

var (
	// ErrUnavailable indicates no model server is configured or it could not be reached.
	ErrUnavailable = errors.New("inference unavailable")
	// ErrBadImage indicates the model server rejected the image.
	ErrBadImage = errors.New("image rejected by inference")
)

// Image is an undecoded upload forwarded to the model server as-is.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Predictions holds both classifiers' outputs for one image.
type Predictions struct {
	Conditions concerns.PredictionSet `json:"conditions"`
	Lesions    concerns.PredictionSet `json:"lesions"`
}

// Predictor runs the condition and lesion classifiers. Model weights and their lifecycle belong
// to the implementation.
type Predictor interface {
	Predict(ctx context.Context, img Image) (Predictions, error)
}
