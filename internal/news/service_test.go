package news

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cancer-ai-portal/internal/domain"
)

// MockNewsSource is a mock implementation of domain.NewsSource
type MockNewsSource struct {
	mock.Mock
}

func (m *MockNewsSource) ListNews(ctx context.Context) ([]domain.NewsItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.NewsItem), args.Error(1)
}

func (m *MockNewsSource) GetNews(ctx context.Context, id string) (*domain.NewsItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NewsItem), args.Error(1)
}

func newTestService(source domain.NewsSource) *Service {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return NewService(source, "http://ai.example.org/", logger)
}

var sampleNews = []domain.NewsItem{
	{ID: 3, Title: "Screening week", Category: "Events", ImageURL: "uploads/screening.jpg"},
	{ID: 2, Title: "New model released", Category: "Research", ImageURL: "https://cdn.example.org/m.png"},
	{ID: 1, Title: "Community talk", Category: "events", ImageData: []byte{0xff, 0xd8, 0xff, 0xe0}},
}

func TestService_ListAll(t *testing.T) {
	source := new(MockNewsSource)
	source.On("ListNews", mock.Anything).Return(sampleNews, nil)

	listing, err := newTestService(source).List(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, AllCategories, listing.Selected)
	assert.Equal(t, []string{"all", "Events", "Research", "events"}, listing.Categories)
	require.NotNil(t, listing.Headline)
	assert.Equal(t, 3, listing.Headline.ID)
	assert.Len(t, listing.Articles, 3)

	assert.Equal(t, "http://ai.example.org/uploads/screening.jpg", listing.Articles[0].ImageSrc)
	assert.Equal(t, "https://cdn.example.org/m.png", listing.Articles[1].ImageSrc)
	assert.True(t, strings.HasPrefix(listing.Articles[2].ImageSrc, "data:image/jpeg;base64,"))
}

func TestService_ListFiltersCaseInsensitive(t *testing.T) {
	source := new(MockNewsSource)
	source.On("ListNews", mock.Anything).Return(sampleNews, nil)

	listing, err := newTestService(source).List(context.Background(), "EVENTS")
	require.NoError(t, err)

	require.Len(t, listing.Articles, 2)
	assert.Equal(t, 3, listing.Articles[0].ID)
	assert.Equal(t, 1, listing.Articles[1].ID)
	assert.Equal(t, 3, listing.Headline.ID, "headline ignores the filter")
}

func TestService_ListFailure(t *testing.T) {
	source := new(MockNewsSource)
	source.On("ListNews", mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := newTestService(source).List(context.Background(), "all")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestService_Get(t *testing.T) {
	source := new(MockNewsSource)
	source.On("GetNews", mock.Anything, "2").Return(&sampleNews[1], nil)
	source.On("GetNews", mock.Anything, "99").Return(nil, &domain.BackendError{StatusCode: http.StatusNotFound, Endpoint: "/news/99"})

	svc := newTestService(source)

	article, err := svc.Get(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, "New model released", article.Title)

	_, err = svc.Get(context.Background(), "99")
	assert.ErrorIs(t, err, domain.ErrNewsNotFound)

	source.AssertExpectations(t)
}
