package selector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cancer-ai-portal/internal/domain"
)

// MockCatalog is a mock implementation of domain.CancerCatalog
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) ListCancers(ctx context.Context, feature domain.FeatureContext) ([]domain.CancerOption, error) {
	args := m.Called(ctx, feature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CancerOption), args.Error(1)
}

func (m *MockCatalog) GetCancer(ctx context.Context, slug string, feature domain.FeatureContext) (*domain.CancerDetail, error) {
	args := m.Called(ctx, slug, feature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CancerDetail), args.Error(1)
}

func (m *MockCatalog) ListFeatureOptions(ctx context.Context, slug string, feature domain.FeatureContext) ([]domain.FeatureOption, error) {
	args := m.Called(ctx, slug, feature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FeatureOption), args.Error(1)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

var breastRows = []domain.FeatureOption{
	{AIDataType: "image", Key: "k1", Label: "L1"},
	{AIDataType: "gene", Key: "k2", Label: "L2"},
}

func newMockedSelector(t *testing.T) (*Selector, *MockCatalog) {
	t.Helper()
	catalog := new(MockCatalog)
	catalog.On("ListCancers", mock.Anything, domain.FeatureDiagnosis).
		Return([]domain.CancerOption{{Name: "Breast Cancer", Slug: "breast-cancer"}}, nil)
	catalog.On("ListFeatureOptions", mock.Anything, "breast-cancer", domain.FeatureDiagnosis).Return(breastRows, nil)
	catalog.On("GetCancer", mock.Anything, "breast-cancer", domain.FeatureDiagnosis).
		Return(&domain.CancerDetail{Name: "Breast Cancer", Description: "Most common cancer in women."}, nil)

	sel := New(NewLoader(catalog, domain.FeatureDiagnosis, quietLogger()), quietLogger())
	sel.Init(context.Background())
	return sel, catalog
}

func TestSelector_FullFlow(t *testing.T) {
	sel, catalog := newMockedSelector(t)

	snap := sel.Snapshot()
	assert.Equal(t, "none_selected", snap.Stage)
	assert.Len(t, snap.Cancers, 1)
	assert.False(t, snap.FeatureEnabled)
	assert.False(t, snap.DatasetEnabled)

	require.True(t, sel.SelectCancer(context.Background(), "breast-cancer"))
	snap = sel.Snapshot()
	assert.True(t, snap.FeatureEnabled)
	assert.False(t, snap.DatasetEnabled)
	assert.ElementsMatch(t, []string{"image", "gene"}, snap.Features)
	require.NotNil(t, snap.CancerDetail)
	assert.Equal(t, "Most common cancer in women.", snap.CancerDetail.Description)

	require.NoError(t, sel.SelectFeature("gene"))
	snap = sel.Snapshot()
	assert.True(t, snap.DatasetEnabled)
	assert.Equal(t, []domain.DatasetChoice{{Key: "k2", Label: "L2"}}, snap.Datasets)

	require.NoError(t, sel.SelectDataset("k2"))
	handoff, err := sel.Continue()
	require.NoError(t, err)
	assert.Equal(t, &Handoff{
		FeatureContext: domain.FeatureDiagnosis,
		CancerSlug:     "breast-cancer",
		CancerName:     "Breast Cancer",
		Feature:        "gene",
		DatasetKey:     "k2",
		DatasetLabel:   "L2",
	}, handoff)

	catalog.AssertExpectations(t)
}

func TestSelector_RejectsUnofferedChoices(t *testing.T) {
	sel, _ := newMockedSelector(t)
	sel.SelectCancer(context.Background(), "breast-cancer")

	var ve *domain.ValidationError
	require.True(t, errors.As(sel.SelectFeature("proteomics"), &ve))
	assert.Equal(t, "feature", ve.Field)

	require.NoError(t, sel.SelectFeature("image"))
	require.True(t, errors.As(sel.SelectDataset("k2"), &ve))
	assert.Equal(t, "dataset", ve.Field)
	assert.Equal(t, FeatureChosen, sel.Stage())
}

func TestSelector_OpenFieldBlocked(t *testing.T) {
	sel, _ := newMockedSelector(t)

	var fe *domain.FieldError
	require.True(t, errors.As(sel.OpenField(domain.FieldFeature), &fe))
	assert.Equal(t, domain.FieldCancer, fe.Field)

	snap := sel.Snapshot()
	assert.True(t, snap.Popup.Visible)
	assert.Equal(t, MsgSelectCancerFirst, snap.FieldErrors[domain.FieldCancer])

	sel.DismissPopup()
	assert.False(t, sel.Snapshot().Popup.Visible)
	assert.NoError(t, sel.OpenField(domain.FieldCancer))
}

func TestSelector_ContinueFallsBackToTitleCase(t *testing.T) {
	catalog := new(MockCatalog)
	catalog.On("ListCancers", mock.Anything, domain.FeatureTreatment).Return(nil, errors.New("connection refused"))
	catalog.On("ListFeatureOptions", mock.Anything, "colon-cancer", domain.FeatureTreatment).
		Return([]domain.FeatureOption{{AIDataType: "gene", Key: "g", Label: ""}}, nil)
	catalog.On("GetCancer", mock.Anything, "colon-cancer", domain.FeatureTreatment).Return(nil, errors.New("not found"))

	sel := New(NewLoader(catalog, domain.FeatureTreatment, quietLogger()), quietLogger())
	sel.Init(context.Background())
	assert.Empty(t, sel.Snapshot().Cancers)

	sel.SelectCancer(context.Background(), "colon-cancer")
	assert.Nil(t, sel.Snapshot().CancerDetail, "detail failure is not an error")
	require.NoError(t, sel.SelectFeature("gene"))
	require.NoError(t, sel.SelectDataset("g"))

	handoff, err := sel.Continue()
	require.NoError(t, err)
	assert.Equal(t, "Colon Cancer", handoff.CancerName)
	assert.Equal(t, "g", handoff.DatasetLabel)
}

func TestSelector_OptionFailureEmptiesList(t *testing.T) {
	catalog := new(MockCatalog)
	catalog.On("ListCancers", mock.Anything, domain.FeaturePrognosis).Return([]domain.CancerOption{}, nil)
	catalog.On("ListFeatureOptions", mock.Anything, "lung-cancer", domain.FeaturePrognosis).Return(nil, errors.New("status 500"))
	catalog.On("GetCancer", mock.Anything, "lung-cancer", domain.FeaturePrognosis).
		Return(&domain.CancerDetail{Name: "Lung Cancer"}, nil)

	sel := New(NewLoader(catalog, domain.FeaturePrognosis, quietLogger()), quietLogger())
	sel.SelectCancer(context.Background(), "lung-cancer")

	snap := sel.Snapshot()
	assert.Empty(t, snap.Features)
	assert.False(t, snap.FeatureEnabled)
	assert.NotNil(t, snap.CancerDetail)
}

func TestSelector_ClearingCancerClearsOptions(t *testing.T) {
	sel, _ := newMockedSelector(t)
	sel.SelectCancer(context.Background(), "breast-cancer")
	require.NotEmpty(t, sel.Snapshot().Features)

	sel.SelectCancer(context.Background(), "")
	snap := sel.Snapshot()
	assert.Empty(t, snap.Features)
	assert.Nil(t, snap.CancerDetail)
	assert.Equal(t, "none_selected", snap.Stage)
}

// gatedCatalog blocks each feature-options call until released, ignoring
// cancellation so that stale answers really do arrive late.
type gatedCatalog struct {
	mu    sync.Mutex
	gates []chan []domain.FeatureOption
	calls chan string
}

func newGatedCatalog() *gatedCatalog {
	return &gatedCatalog{calls: make(chan string, 16)}
}

func (g *gatedCatalog) ListCancers(ctx context.Context, feature domain.FeatureContext) ([]domain.CancerOption, error) {
	return []domain.CancerOption{}, nil
}

func (g *gatedCatalog) GetCancer(ctx context.Context, slug string, feature domain.FeatureContext) (*domain.CancerDetail, error) {
	return nil, errors.New("no detail")
}

func (g *gatedCatalog) ListFeatureOptions(ctx context.Context, slug string, feature domain.FeatureContext) ([]domain.FeatureOption, error) {
	gate := make(chan []domain.FeatureOption, 1)
	g.mu.Lock()
	g.gates = append(g.gates, gate)
	g.mu.Unlock()
	g.calls <- slug
	return <-gate, nil
}

func (g *gatedCatalog) release(i int, rows []domain.FeatureOption) {
	g.mu.Lock()
	gate := g.gates[i]
	g.mu.Unlock()
	gate <- rows
}

func TestSelector_StaleLoadIsDiscarded(t *testing.T) {
	catalog := newGatedCatalog()
	sel := New(NewLoader(catalog, domain.FeatureDiagnosis, quietLogger()), quietLogger())

	staleRows := []domain.FeatureOption{{AIDataType: "stale", Key: "old", Label: "Old"}}
	freshRows := []domain.FeatureOption{{AIDataType: "gene", Key: "k2", Label: "L2"}}
	otherRows := []domain.FeatureOption{{AIDataType: "image", Key: "k9", Label: "L9"}}

	results := make(chan bool, 3)
	run := func(slug string) {
		go func() { results <- sel.SelectCancer(context.Background(), slug) }()
		select {
		case <-catalog.calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("load for %s never started", slug)
		}
	}

	// A, then B, then A again while the first A load is still outstanding
	run("breast-cancer")
	run("lung-cancer")
	run("breast-cancer")

	catalog.release(2, freshRows)
	assert.True(t, <-results)
	assert.Equal(t, []string{"gene"}, sel.Snapshot().Features)

	catalog.release(0, staleRows)
	catalog.release(1, otherRows)
	assert.False(t, <-results)
	assert.False(t, <-results)

	snap := sel.Snapshot()
	assert.Equal(t, "breast-cancer", snap.SelectedCancer)
	assert.Equal(t, []string{"gene"}, snap.Features, "stale rows must not replace the current list")
	assert.False(t, snap.Loading)
}

func TestSelector_CancelledLoadIsNotApplied(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalog := new(MockCatalog)
	catalog.On("ListCancers", mock.Anything, domain.FeatureDiagnosis).
		Return([]domain.CancerOption{{Name: "Breast Cancer", Slug: "breast-cancer"}}, nil)
	// the caller disconnects while the option rows are in flight
	catalog.On("ListFeatureOptions", mock.Anything, "breast-cancer", domain.FeatureDiagnosis).
		Run(func(mock.Arguments) { cancel() }).
		Return(breastRows, nil)
	catalog.On("GetCancer", mock.Anything, "breast-cancer", domain.FeatureDiagnosis).
		Return(&domain.CancerDetail{Name: "Breast Cancer"}, nil)

	sel := New(NewLoader(catalog, domain.FeatureDiagnosis, quietLogger()), quietLogger())
	sel.Init(context.Background())

	assert.False(t, sel.SelectCancer(ctx, "breast-cancer"))

	snap := sel.Snapshot()
	assert.Equal(t, "breast-cancer", snap.SelectedCancer)
	assert.Empty(t, snap.Features)
	assert.True(t, snap.Loading)

	// choosing the cancer again on a live request loads its options
	assert.True(t, sel.SelectCancer(context.Background(), "breast-cancer"))
	snap = sel.Snapshot()
	assert.Equal(t, []string{"image", "gene"}, snap.Features)
	assert.False(t, snap.Loading)
}
