// Package selector implements the cascading cancer / AI feature / dataset
// selector shared by the diagnosis, prognosis and treatment flows.
package selector

import (
	"github.com/cancer-ai-portal/internal/domain"
)

// User-facing selection messages
const (
	MsgSelectCancerFirst  = "Select cancer type first."
	MsgSelectFeatureFirst = "Select AI feature first."
	MsgContinueCancer     = "Please select a cancer type before continuing."
	MsgContinueFeature    = "Please select an AI feature before continuing."
	MsgContinueDataset    = "Please select a dataset type before continuing."
)

// Stage is the position in the selection cascade
type Stage int

const (
	NoneSelected Stage = iota
	CancerChosen
	FeatureChosen
	DatasetChosen
)

// Ready is the stage in which Continue can succeed
const Ready = DatasetChosen

func (s Stage) String() string {
	switch s {
	case NoneSelected:
		return "none_selected"
	case CancerChosen:
		return "cancer_chosen"
	case FeatureChosen:
		return "feature_chosen"
	case DatasetChosen:
		return "ready"
	}
	return "unknown"
}

// FieldErrors holds inline messages keyed by field. At most one is set.
type FieldErrors map[domain.Field]string

// Popup is the transient message shown with a field error
type Popup struct {
	Message string `json:"message"`
	Visible bool   `json:"visible"`
}

// State is the selection state machine. It knows nothing about option
// lists; callers check membership before selecting.
type State struct {
	Cancer     string
	Feature    string
	DatasetKey string
	Errors     FieldErrors
	Popup      Popup
}

// NewState returns an empty state
func NewState() *State {
	return &State{Errors: FieldErrors{}}
}

// Stage derives the cascade stage from the selected keys
func (s *State) Stage() Stage {
	switch {
	case s.Cancer == "":
		return NoneSelected
	case s.Feature == "":
		return CancerChosen
	case s.DatasetKey == "":
		return FeatureChosen
	}
	return DatasetChosen
}

// SelectCancer sets the cancer and resets everything downstream. An empty
// slug returns the machine to NoneSelected.
func (s *State) SelectCancer(slug string) {
	s.Cancer = slug
	s.Feature = ""
	s.DatasetKey = ""
	s.clearFieldError(domain.FieldCancer)
}

// OpenFeature is the attempt to open the feature control
func (s *State) OpenFeature() error {
	if s.Cancer == "" {
		return s.reject(domain.FieldCancer, MsgSelectCancerFirst)
	}
	s.clearFieldError(domain.FieldFeature)
	return nil
}

// SelectFeature sets the AI feature and resets the dataset
func (s *State) SelectFeature(feature string) error {
	if s.Cancer == "" {
		return s.reject(domain.FieldCancer, MsgSelectCancerFirst)
	}
	s.Feature = feature
	s.DatasetKey = ""
	s.clearFieldError(domain.FieldFeature)
	return nil
}

// OpenDataset is the attempt to open the dataset control
func (s *State) OpenDataset() error {
	if s.Feature == "" {
		return s.reject(domain.FieldFeature, MsgSelectFeatureFirst)
	}
	s.clearFieldError(domain.FieldDataset)
	return nil
}

// SelectDataset sets the dataset key
func (s *State) SelectDataset(key string) error {
	if s.Feature == "" {
		return s.reject(domain.FieldFeature, MsgSelectFeatureFirst)
	}
	s.DatasetKey = key
	s.clearFieldError(domain.FieldDataset)
	return nil
}

// Open dispatches an open attempt by field. The cancer control is always open.
func (s *State) Open(field domain.Field) error {
	switch field {
	case domain.FieldFeature:
		return s.OpenFeature()
	case domain.FieldDataset:
		return s.OpenDataset()
	}
	return nil
}

// Validate checks cancer, feature and dataset in that order. The first
// missing field is the only one reported; success clears every error.
func (s *State) Validate() error {
	switch {
	case s.Cancer == "":
		return s.reject(domain.FieldCancer, MsgContinueCancer)
	case s.Feature == "":
		return s.reject(domain.FieldFeature, MsgContinueFeature)
	case s.DatasetKey == "":
		return s.reject(domain.FieldDataset, MsgContinueDataset)
	}
	s.Errors = FieldErrors{}
	s.Popup = Popup{}
	return nil
}

// DismissPopup hides the popup, leaving inline errors in place
func (s *State) DismissPopup() {
	s.Popup.Visible = false
}

// ErrorField returns the field currently marked, if any
func (s *State) ErrorField() (domain.Field, bool) {
	for _, f := range domain.Fields {
		if s.Errors[f] != "" {
			return f, true
		}
	}
	return "", false
}

func (s *State) reject(field domain.Field, msg string) error {
	s.Errors = FieldErrors{field: msg}
	s.Popup = Popup{Message: msg, Visible: true}
	return domain.NewFieldError(field, msg)
}

func (s *State) clearFieldError(field domain.Field) {
	s.Popup = Popup{}
	if s.Errors == nil {
		s.Errors = FieldErrors{}
		return
	}
	delete(s.Errors, field)
}
