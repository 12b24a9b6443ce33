package domain

import (
	"fmt"
	"strings"
)

// FeatureContext is the prediction capability that scopes which cancers and
// datasets the backend offers. It is sent as the ai_feature parameter.
type FeatureContext string

const (
	FeatureDiagnosis FeatureContext = "diagnosis"
	FeaturePrognosis FeatureContext = "prognosis"
	FeatureTreatment FeatureContext = "treatment"
)

// FeatureContexts lists every supported context in display order
var FeatureContexts = []FeatureContext{FeatureDiagnosis, FeaturePrognosis, FeatureTreatment}

// ParseFeatureContext normalizes and validates a context tag
func ParseFeatureContext(s string) (FeatureContext, error) {
	fc := FeatureContext(strings.ToLower(strings.TrimSpace(s)))
	if !fc.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFeatureContext, s)
	}
	return fc, nil
}

// IsValid reports whether the context is one of the supported tags
func (f FeatureContext) IsValid() bool {
	switch f {
	case FeatureDiagnosis, FeaturePrognosis, FeatureTreatment:
		return true
	}
	return false
}

// String returns the wire tag
func (f FeatureContext) String() string {
	return string(f)
}

// Title returns the display name, e.g. "Diagnosis"
func (f FeatureContext) Title() string {
	if f == "" {
		return ""
	}
	s := string(f)
	return strings.ToUpper(s[:1]) + s[1:]
}

// Field identifies one of the three selector controls
type Field string

const (
	FieldCancer  Field = "cancer"
	FieldFeature Field = "feature"
	FieldDataset Field = "dataset"
)

// Fields lists the selector controls in validation order
var Fields = []Field{FieldCancer, FieldFeature, FieldDataset}

// ParseField validates a field name
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FieldCancer, FieldFeature, FieldDataset:
		return f, nil
	}
	return "", NewValidationError("field", "unknown selector field", s)
}
