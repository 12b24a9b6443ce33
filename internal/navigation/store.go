// Package navigation keeps page-scoped flow state between requests. Flows
// live in memory only and expire after a period of inactivity.
package navigation

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/cancer-ai-portal/internal/domain"
	"github.com/cancer-ai-portal/internal/result"
	"github.com/cancer-ai-portal/internal/selector"
	"github.com/cancer-ai-portal/internal/upload"
)

// Flow is one selector -> upload -> result journey
type Flow struct {
	ID        string                `json:"id"`
	Feature   domain.FeatureContext `json:"feature_context"`
	CreatedAt time.Time             `json:"created_at"`

	Selector *selector.Selector `json:"-"`
	Uploads  *upload.Controller `json:"-"`

	mu      sync.RWMutex
	handoff *selector.Handoff
	result  *result.State
}

// SetHandoff stores the state the upload page expects. A new handoff
// invalidates any earlier result.
func (f *Flow) SetHandoff(h *selector.Handoff) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handoff = h
	f.result = nil
}

// ClearHandoff drops the upload page state after the selection changed, so
// an upload cannot submit a selection the user has moved away from.
func (f *Flow) ClearHandoff() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handoff = nil
}

// Handoff returns the upload page state
func (f *Flow) Handoff() (*selector.Handoff, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.handoff == nil {
		return nil, domain.ErrMissingNavigationState
	}
	return f.handoff, nil
}

// SetResult stores the state the result page expects
func (f *Flow) SetResult(s *result.State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result = s
}

// Result returns the result page state
func (f *Flow) Result() (*result.State, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.result == nil {
		return nil, domain.ErrMissingNavigationState
	}
	return f.result, nil
}

// Store holds flows keyed by id
type Store struct {
	flows  *expirable.LRU[string, *Flow]
	logger *logrus.Logger
}

// NewStore creates a store bounded by count and idle time
func NewStore(config domain.NavigationConfig, logger *logrus.Logger) *Store {
	if config.MaxFlows <= 0 {
		config.MaxFlows = 10000
	}
	if config.FlowTTL <= 0 {
		config.FlowTTL = 30 * time.Minute
	}
	if logger == nil {
		logger = logrus.New()
	}

	s := &Store{logger: logger}
	s.flows = expirable.NewLRU[string, *Flow](config.MaxFlows, s.onEvict, config.FlowTTL)
	return s
}

func (s *Store) onEvict(id string, flow *Flow) {
	if flow.Selector != nil {
		flow.Selector.Close()
	}
	s.logger.WithFields(logrus.Fields{
		"flow_id":         id,
		"feature_context": flow.Feature,
	}).Debug("Flow evicted")
}

// Create registers a new flow
func (s *Store) Create(feature domain.FeatureContext, sel *selector.Selector, uploads *upload.Controller) *Flow {
	flow := &Flow{
		ID:        uuid.NewString(),
		Feature:   feature,
		CreatedAt: time.Now().UTC(),
		Selector:  sel,
		Uploads:   uploads,
	}
	s.flows.Add(flow.ID, flow)
	return flow
}

// Get returns a live flow. Access refreshes its expiry.
func (s *Store) Get(id string) (*Flow, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrFlowNotFound
	}
	flow, ok := s.flows.Get(id)
	if !ok {
		return nil, domain.ErrFlowNotFound
	}
	// Re-adding resets the TTL for an active flow
	s.flows.Add(id, flow)
	return flow, nil
}

// Delete finishes a flow
func (s *Store) Delete(id string) bool {
	return s.flows.Remove(id)
}

// Len returns the number of live flows
func (s *Store) Len() int {
	return s.flows.Len()
}
