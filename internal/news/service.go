// Package news serves editorial articles from the content backend.
package news

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"

	"github.com/cancer-ai-portal/internal/domain"
)

// AllCategories is the pseudo-category that disables filtering
const AllCategories = "all"

// Article is a news item with a browser-ready image source
type Article struct {
	domain.NewsItem
	ImageSrc string `json:"image_src,omitempty"`
}

// Listing is the news page model
type Listing struct {
	Categories []string  `json:"categories"`
	Selected   string    `json:"selected"`
	Headline   *Article  `json:"headline,omitempty"`
	Articles   []Article `json:"articles"`
}

// Service builds news views
type Service struct {
	source  domain.NewsSource
	baseURL string
	logger  *logrus.Logger
}

// NewService creates a news service. baseURL resolves relative image paths.
func NewService(source domain.NewsSource, baseURL string, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		source:  source,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// List returns articles filtered by category (case-insensitive). The
// headline is always the first article of the unfiltered list.
func (s *Service) List(ctx context.Context, category string) (*Listing, error) {
	items, err := s.source.ListNews(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load news")
		return nil, fmt.Errorf("failed to load news: %w", err)
	}

	selected := strings.TrimSpace(category)
	if selected == "" {
		selected = AllCategories
	}

	listing := &Listing{
		Categories: Categories(items),
		Selected:   selected,
		Articles:   make([]Article, 0, len(items)),
	}
	if len(items) > 0 {
		headline := s.article(items[0])
		listing.Headline = &headline
	}
	for _, item := range items {
		if selected == AllCategories || strings.EqualFold(item.Category, selected) {
			listing.Articles = append(listing.Articles, s.article(item))
		}
	}
	return listing, nil
}

// Get returns one article
func (s *Service) Get(ctx context.Context, id string) (*Article, error) {
	item, err := s.source.GetNews(ctx, id)
	if err != nil {
		var be *domain.BackendError
		if errors.As(err, &be) && be.StatusCode == http.StatusNotFound {
			return nil, domain.ErrNewsNotFound
		}
		return nil, fmt.Errorf("failed to load news article: %w", err)
	}
	a := s.article(*item)
	return &a, nil
}

// Categories returns "all" followed by the distinct categories in order
func Categories(items []domain.NewsItem) []string {
	categories := []string{AllCategories}
	seen := map[string]struct{}{}
	for _, item := range items {
		if item.Category == "" {
			continue
		}
		if _, ok := seen[item.Category]; ok {
			continue
		}
		seen[item.Category] = struct{}{}
		categories = append(categories, item.Category)
	}
	return categories
}

func (s *Service) article(item domain.NewsItem) Article {
	return Article{NewsItem: item, ImageSrc: s.imageSrc(item)}
}

// imageSrc resolves a relative image path against the backend, or inlines
// buffer images as a data URI.
func (s *Service) imageSrc(item domain.NewsItem) string {
	if len(item.ImageData) > 0 {
		mtype := mimetype.Detect(item.ImageData).String()
		if !strings.HasPrefix(mtype, "image/") {
			mtype = "image/jpeg"
		}
		return "data:" + mtype + ";base64," + base64.StdEncoding.EncodeToString(item.ImageData)
	}

	path := strings.TrimSpace(item.ImageURL)
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "data:") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return s.baseURL + path
}
