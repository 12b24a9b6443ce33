package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"
)

// CancerOption is one entry of the cancer list. Slug is the primary key
// used in backend paths.
type CancerOption struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CancerDetail is the optional descriptive text for a cancer type
type CancerDetail struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// FeatureOption is a raw option row: one per supported (data type, dataset)
// pair for a cancer.
type FeatureOption struct {
	AIDataType string `json:"ai_data_type"`
	Key        string `json:"key"`
	Label      string `json:"label"`
}

// DatasetChoice is a dataset offered for the selected AI data type
type DatasetChoice struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// TopFeature is a single feature importance entry in a prediction
type TopFeature struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"`
}

// PredictionResult is the backend's prediction payload. Raw keeps the exact
// body so it can be handed to the result view unchanged.
type PredictionResult struct {
	Prediction  int             `json:"prediction"`
	Probability *float64        `json:"probability,omitempty"`
	TopFeatures []TopFeature    `json:"top_features,omitempty"`
	Raw         json.RawMessage `json:"-"`
}

// ParsePredictionResult decodes a backend body into a PredictionResult
func ParsePredictionResult(body []byte) (*PredictionResult, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("prediction payload is not a JSON object")
	}

	// numpy-backed services send the class as 1.0
	var wire struct {
		Prediction  float64      `json:"prediction"`
		Probability *float64     `json:"probability"`
		TopFeatures []TopFeature `json:"top_features"`
	}
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, fmt.Errorf("failed to parse prediction payload: %w", err)
	}

	return &PredictionResult{
		Prediction:  int(math.Round(wire.Prediction)),
		Probability: wire.Probability,
		TopFeatures: wire.TopFeatures,
		Raw:         append(json.RawMessage(nil), trimmed...),
	}, nil
}

// PredictRequest carries one multipart prediction upload
type PredictRequest struct {
	CancerSlug  string
	Feature     FeatureContext
	DatasetKey  string
	FileName    string
	ContentType string
	Content     io.Reader
}

// PredictResponse is the unclassified backend answer to a prediction upload
type PredictResponse struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status
func (r *PredictResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// NewsItem is an editorial article from the content backend
type NewsItem struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	ImageURL  string `json:"image_url,omitempty"`
	ImageData []byte `json:"image_data,omitempty"`
	Category  string `json:"category"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	CreatedBy string `json:"created_by"`
}

// bufferImage is the serialized Node.js Buffer some news rows carry
type bufferImage struct {
	Type string `json:"type"`
	Data []int  `json:"data"`
}

// UnmarshalJSON accepts image_url either as a path string or as a
// serialized byte buffer.
func (n *NewsItem) UnmarshalJSON(data []byte) error {
	type alias NewsItem
	aux := struct {
		*alias
		ImageURL json.RawMessage `json:"image_url"`
	}{alias: (*alias)(n)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	n.ImageURL = ""
	n.ImageData = nil
	raw := bytes.TrimSpace(aux.ImageURL)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	switch raw[0] {
	case '"':
		return json.Unmarshal(raw, &n.ImageURL)
	case '{':
		var buf bufferImage
		if err := json.Unmarshal(raw, &buf); err != nil {
			return nil
		}
		if buf.Type != "Buffer" {
			return nil
		}
		n.ImageData = make([]byte, 0, len(buf.Data))
		for _, b := range buf.Data {
			n.ImageData = append(n.ImageData, byte(b))
		}
	}
	return nil
}

// CreatedTime parses CreatedAt, returning the zero time when unparseable
func (n *NewsItem) CreatedTime() time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, n.CreatedAt); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ModelInfo describes one model loaded by the AI backend
type ModelInfo struct {
	ModelName   string `json:"model_name"`
	Loaded      bool   `json:"loaded"`
	ModelType   string `json:"model_type"`
	Scaler      string `json:"scaler"`
	NumFeatures int    `json:"num_features"`
	CancerType  string `json:"cancer_type"`
}

// ServiceStatus is the AI backend status report
type ServiceStatus struct {
	Status       string      `json:"status"`
	ModelsLoaded int         `json:"models_loaded"`
	ModelsTotal  int         `json:"models_total"`
	Models       []ModelInfo `json:"models"`
}
