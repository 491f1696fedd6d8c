package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bryanwahyu/skinlens/internal/domain/inference"
)

const predictPath = "/predict"

// Client posts images to a model server that runs both classifiers and answers
//
//	{"conditions":[{"label":"Acne","probability":0.4}], "lesions":[...]}
type Client struct {
	client *resty.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		// rewind the multipart reader before each retry
		SetRetryResetReaders(true).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	if apiKey != "" {
		c.SetAuthToken(apiKey)
	}
	return &Client{client: c}
}

// Predict implements inference.Predictor.
func (c *Client) Predict(ctx context.Context, img inference.Image) (inference.Predictions, error) {
	var out inference.Predictions
	if len(img.Data) == 0 {
		return out, fmt.Errorf("%w: empty image", inference.ErrBadImage)
	}
	name := img.Filename
	if name == "" {
		name = "image"
	}

	req := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetMultipartField("file", name, img.ContentType, bytes.NewReader(img.Data))

	res, err := req.Post(predictPath)
	if err != nil {
		slog.Error("unable to reach model server", "error", err)
		return out, fmt.Errorf("%w: %v", inference.ErrUnavailable, err)
	}

	switch {
	case res.IsSuccess():
	case res.StatusCode() == http.StatusBadRequest,
		res.StatusCode() == http.StatusUnsupportedMediaType,
		res.StatusCode() == http.StatusUnprocessableEntity:
		return out, fmt.Errorf("%w: %s", inference.ErrBadImage, res.String())
	default:
		slog.Error("model server returned error", "status_code", res.StatusCode(), "body", res.String())
		return out, fmt.Errorf("%w: status %d", inference.ErrUnavailable, res.StatusCode())
	}

	if err := json.Unmarshal(res.Body(), &out); err != nil {
		return out, fmt.Errorf("%w: decode predictions: %v", inference.ErrUnavailable, err)
	}
	return out, nil
}
