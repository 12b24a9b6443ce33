// Package result turns a prediction payload into the report shown to users.
package result

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/cancer-ai-portal/internal/domain"
)

// Stage framings for the binary prediction
const (
	StageAdvanced = "Advanced stage"
	StageEarly    = "Early stage"
)

// NotAvailable is shown when the backend sent no probability
const NotAvailable = "N/A"

// State is what the upload page hands to the result page
type State struct {
	FeatureContext   domain.FeatureContext
	PredictionResult *domain.PredictionResult
	CancerName       string
	DatasetLabel     string
}

// Report is the rendered prediction
type Report struct {
	FeatureContext domain.FeatureContext `json:"feature_context"`
	CancerName     string                `json:"cancer_name"`
	DatasetLabel   string                `json:"dataset_label"`
	Prediction     int                   `json:"prediction"`
	Stage          string                `json:"stage"`
	Confidence     string                `json:"confidence"`
	TopFeatures    []domain.TopFeature   `json:"top_features"`
	Raw            json.RawMessage       `json:"raw,omitempty"`
}

// Build renders the report. A page opened without navigation state gets
// ErrMissingNavigationState instead of a report.
func Build(state *State) (*Report, error) {
	if state == nil || state.PredictionResult == nil {
		return nil, domain.ErrMissingNavigationState
	}
	res := state.PredictionResult

	features := make([]domain.TopFeature, len(res.TopFeatures))
	copy(features, res.TopFeatures)
	sort.SliceStable(features, func(i, j int) bool {
		return features[i].Importance > features[j].Importance
	})

	return &Report{
		FeatureContext: state.FeatureContext,
		CancerName:     state.CancerName,
		DatasetLabel:   state.DatasetLabel,
		Prediction:     res.Prediction,
		Stage:          StageFor(res.Prediction),
		Confidence:     Confidence(res.Probability),
		TopFeatures:    features,
		Raw:            res.Raw,
	}, nil
}

// StageFor frames prediction 1 as advanced and anything else as early
func StageFor(prediction int) string {
	if prediction == 1 {
		return StageAdvanced
	}
	return StageEarly
}

// Confidence formats a probability as a percentage with two decimals
func Confidence(probability *float64) string {
	if probability == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f%%", *probability*100)
}

// Text renders the report for terminals and tool output
func (r *Report) Text() string {
	var b strings.Builder

	title := "Prediction result"
	if r.FeatureContext != "" {
		title = r.FeatureContext.Title() + " result"
	}
	fmt.Fprintf(&b, "%s\n", title)
	fmt.Fprintf(&b, "Cancer type: %s\n", orUnknown(r.CancerName))
	fmt.Fprintf(&b, "Dataset:     %s\n", orUnknown(r.DatasetLabel))
	fmt.Fprintf(&b, "Prediction:  %s (%d)\n", r.Stage, r.Prediction)
	fmt.Fprintf(&b, "Confidence:  %s\n", r.Confidence)

	if len(r.TopFeatures) > 0 {
		b.WriteString("Top features:\n")
		for i, f := range r.TopFeatures {
			fmt.Fprintf(&b, "  %2d. %-24s %.4f\n", i+1, f.Name, f.Importance)
		}
	}
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
