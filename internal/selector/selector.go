package selector

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/cancer-ai-portal/internal/domain"
)

// Handoff is what a completed selection passes to the upload page
type Handoff struct {
	FeatureContext domain.FeatureContext `json:"feature_context"`
	CancerSlug     string                `json:"cancer_slug"`
	CancerName     string                `json:"cancer_name"`
	Feature        string                `json:"feature"`
	DatasetKey     string                `json:"dataset_key"`
	DatasetLabel   string                `json:"dataset_label"`
	Multi          bool                  `json:"multi"`
}

// Snapshot is a read-only view of a selector for rendering
type Snapshot struct {
	FeatureContext  domain.FeatureContext  `json:"feature_context"`
	Stage           string                 `json:"stage"`
	Cancers         []domain.CancerOption  `json:"cancers"`
	SelectedCancer  string                 `json:"selected_cancer"`
	CancerDetail    *domain.CancerDetail   `json:"cancer_detail,omitempty"`
	Features        []string               `json:"features"`
	SelectedFeature string                 `json:"selected_feature"`
	Datasets        []domain.DatasetChoice `json:"datasets"`
	SelectedDataset string                 `json:"selected_dataset"`
	FeatureEnabled  bool                   `json:"feature_enabled"`
	DatasetEnabled  bool                   `json:"dataset_enabled"`
	Loading         bool                   `json:"loading"`
	FieldErrors     FieldErrors            `json:"field_errors"`
	Popup           Popup                  `json:"popup"`
}

// Selector is one page instance of the cascading selector. It is safe for
// concurrent use; option loads run outside the lock and are applied only if
// no newer cancer selection has happened meanwhile.
type Selector struct {
	mu     sync.Mutex
	loader *Loader
	logger *logrus.Logger

	state   *State
	cancers []domain.CancerOption
	rows    []domain.FeatureOption
	detail  *domain.CancerDetail

	generation uint64
	cancelLoad context.CancelFunc
}

// New creates a selector for the loader's feature context
func New(loader *Loader, logger *logrus.Logger) *Selector {
	if logger == nil {
		logger = logrus.New()
	}
	return &Selector{
		loader:  loader,
		logger:  logger,
		state:   NewState(),
		cancers: []domain.CancerOption{},
		rows:    []domain.FeatureOption{},
	}
}

// FeatureContext returns the context the selector is bound to
func (s *Selector) FeatureContext() domain.FeatureContext {
	return s.loader.Feature()
}

// Init loads the cancer list. It is called once per page instance.
func (s *Selector) Init(ctx context.Context) {
	cancers := s.loader.LoadCancers(ctx)

	s.mu.Lock()
	s.cancers = cancers
	s.mu.Unlock()
}

// SelectCancer chooses a cancer and reloads its options. It returns false
// when the load was superseded by a newer selection or cancelled before it
// finished; a cancelled load leaves the selector reporting Loading.
func (s *Selector) SelectCancer(ctx context.Context, slug string) bool {
	s.mu.Lock()
	s.state.SelectCancer(slug)
	s.rows = []domain.FeatureOption{}
	s.detail = nil
	s.generation++
	gen := s.generation
	if s.cancelLoad != nil {
		s.cancelLoad()
		s.cancelLoad = nil
	}
	if slug == "" {
		s.mu.Unlock()
		return true
	}
	loadCtx, cancel := context.WithCancel(ctx)
	s.cancelLoad = cancel
	s.mu.Unlock()

	defer cancel()
	rows, detail := s.loader.LoadOptions(loadCtx, slug)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.logger.WithFields(logrus.Fields{
			"cancer":     slug,
			"generation": gen,
			"current":    s.generation,
		}).Debug("Discarding superseded option load")
		return false
	}
	if loadCtx.Err() != nil {
		// caller went away; partial rows would look like a cancer with no options
		s.logger.WithField("cancer", slug).Debug("Option load cancelled before completion")
		return false
	}
	s.rows = rows
	s.detail = detail
	s.cancelLoad = nil
	return true
}

// OpenField records an attempt to open a control
func (s *Selector) OpenField(field domain.Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Open(field)
}

// SelectFeature chooses an AI data type offered for the current cancer
func (s *Selector) SelectFeature(feature string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Cancer != "" && feature != "" && !HasFeature(s.rows, feature) {
		return domain.NewValidationError("feature", "AI feature is not offered for this cancer", feature)
	}
	return s.state.SelectFeature(feature)
}

// SelectDataset chooses a dataset offered for the current feature
func (s *Selector) SelectDataset(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Feature != "" && key != "" {
		if _, ok := FindDataset(s.rows, s.state.Feature, key); !ok {
			return domain.NewValidationError("dataset", "dataset is not offered for this AI feature", key)
		}
	}
	return s.state.SelectDataset(key)
}

// DismissPopup hides the popup
func (s *Selector) DismissPopup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.DismissPopup()
}

// Continue validates the selection and produces the upload handoff
func (s *Selector) Continue() (*Handoff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.state.Validate(); err != nil {
		return nil, err
	}

	label := s.state.DatasetKey
	if d, ok := FindDataset(s.rows, s.state.Feature, s.state.DatasetKey); ok && d.Label != "" {
		label = d.Label
	}

	return &Handoff{
		FeatureContext: s.loader.Feature(),
		CancerSlug:     s.state.Cancer,
		CancerName:     CancerName(s.cancers, s.state.Cancer),
		Feature:        s.state.Feature,
		DatasetKey:     s.state.DatasetKey,
		DatasetLabel:   label,
		Multi:          IsMultiDataset(s.state.Feature),
	}, nil
}

// Snapshot returns the current view
func (s *Selector) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	features := DistinctFeatures(s.rows)
	datasets := DatasetsFor(s.rows, s.state.Feature)

	errs := make(FieldErrors, len(s.state.Errors))
	for k, v := range s.state.Errors {
		errs[k] = v
	}
	cancers := make([]domain.CancerOption, len(s.cancers))
	copy(cancers, s.cancers)

	return Snapshot{
		FeatureContext:  s.loader.Feature(),
		Stage:           s.state.Stage().String(),
		Cancers:         cancers,
		SelectedCancer:  s.state.Cancer,
		CancerDetail:    s.detail,
		Features:        features,
		SelectedFeature: s.state.Feature,
		Datasets:        datasets,
		SelectedDataset: s.state.DatasetKey,
		FeatureEnabled:  s.state.Cancer != "" && len(features) > 0,
		DatasetEnabled:  s.state.Feature != "" && len(datasets) > 0,
		Loading:         s.cancelLoad != nil,
		FieldErrors:     errs,
		Popup:           s.state.Popup,
	}
}

// Stage returns the current cascade stage
func (s *Selector) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Stage()
}

// Close cancels any in-flight option load
func (s *Selector) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelLoad != nil {
		s.cancelLoad()
		s.cancelLoad = nil
	}
}
