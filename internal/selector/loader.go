package selector

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cancer-ai-portal/internal/domain"
)

// Loader fetches option lists for one feature context. Failures are logged
// and yield empty lists; nothing is retried.
type Loader struct {
	catalog domain.CancerCatalog
	feature domain.FeatureContext
	logger  *logrus.Logger
}

// NewLoader creates a loader bound to a feature context
func NewLoader(catalog domain.CancerCatalog, feature domain.FeatureContext, logger *logrus.Logger) *Loader {
	if logger == nil {
		logger = logrus.New()
	}
	return &Loader{catalog: catalog, feature: feature, logger: logger}
}

// Feature returns the loader's feature context
func (l *Loader) Feature() domain.FeatureContext {
	return l.feature
}

// LoadCancers returns the cancer list, or an empty list on failure
func (l *Loader) LoadCancers(ctx context.Context) []domain.CancerOption {
	cancers, err := l.catalog.ListCancers(ctx, l.feature)
	if err != nil {
		l.logFailure(err, "cancers", "")
		return []domain.CancerOption{}
	}
	if cancers == nil {
		cancers = []domain.CancerOption{}
	}
	return cancers
}

// LoadOptions fetches the option rows and the detail for slug concurrently.
// The detail is best-effort and its failure never empties the rows.
func (l *Loader) LoadOptions(ctx context.Context, slug string) ([]domain.FeatureOption, *domain.CancerDetail) {
	rows := []domain.FeatureOption{}
	if slug == "" {
		return rows, nil
	}

	var detail *domain.CancerDetail
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		fetched, err := l.catalog.ListFeatureOptions(egCtx, slug, l.feature)
		if err != nil {
			l.logFailure(err, "feature-options", slug)
			return nil
		}
		if fetched != nil {
			rows = fetched
		}
		return nil
	})

	eg.Go(func() error {
		fetched, err := l.catalog.GetCancer(egCtx, slug, l.feature)
		if err != nil {
			l.logger.WithFields(logrus.Fields{
				"feature_context": l.feature,
				"cancer":          slug,
			}).WithError(err).Debug("Cancer detail unavailable")
			return nil
		}
		detail = fetched
		return nil
	})

	_ = eg.Wait()
	return rows, detail
}

func (l *Loader) logFailure(err error, list, slug string) {
	entry := l.logger.WithFields(logrus.Fields{
		"feature_context": l.feature,
		"list":            list,
		"cancer":          slug,
	}).WithError(err)

	if errors.Is(err, context.Canceled) {
		entry.Debug("Option load cancelled")
		return
	}
	entry.Warn("Failed to load options")
}
