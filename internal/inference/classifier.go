package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Classifier is the opaque model collaborator: audio bytes in, a murmur label
// and the rendered spectrogram image out. Any failure aborts the upload that
// invoked it.
type Classifier interface {
	Classify(ctx context.Context, audio []byte) (label string, spectrogram []byte, err error)
}

// HTTPClassifier calls a model sidecar over HTTP. The sidecar receives the
// raw wav body and answers with the label and a base64-encoded png.
type HTTPClassifier struct {
	url    string
	client *http.Client
}

// NewHTTPClassifier creates a classifier for the given endpoint.
func NewHTTPClassifier(url string, timeout time.Duration) *HTTPClassifier {
	return &HTTPClassifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type classifyResponse struct {
	Label       string `json:"label"`
	Spectrogram string `json:"spectrogram"`
}

// Classify implements Classifier.
func (c *HTTPClassifier) Classify(ctx context.Context, audio []byte) (string, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(audio))
	if err != nil {
		return "", nil, fmt.Errorf("building classify request: %w", err)
	}
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("calling model endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("model endpoint returned status %d", resp.StatusCode)
	}

	var body classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", nil, fmt.Errorf("decoding model response: %w", err)
	}
	if body.Label == "" {
		return "", nil, fmt.Errorf("model response carried no label")
	}

	spectrogram, err := base64.StdEncoding.DecodeString(body.Spectrogram)
	if err != nil {
		return "", nil, fmt.Errorf("decoding spectrogram: %w", err)
	}
	return body.Label, spectrogram, nil
}
