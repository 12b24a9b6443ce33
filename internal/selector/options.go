package selector

import (
	"strings"
	"unicode"

	"github.com/cancer-ai-portal/internal/domain"
)

// DistinctFeatures returns the distinct ai_data_type values in first-seen order
func DistinctFeatures(rows []domain.FeatureOption) []string {
	seen := make(map[string]struct{}, len(rows))
	features := make([]string, 0, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.AIDataType]; ok {
			continue
		}
		seen[row.AIDataType] = struct{}{}
		features = append(features, row.AIDataType)
	}
	return features
}

// DatasetsFor returns the datasets offered for one AI data type
func DatasetsFor(rows []domain.FeatureOption, feature string) []domain.DatasetChoice {
	datasets := make([]domain.DatasetChoice, 0)
	if feature == "" {
		return datasets
	}
	for _, row := range rows {
		if row.AIDataType == feature {
			datasets = append(datasets, domain.DatasetChoice{Key: row.Key, Label: row.Label})
		}
	}
	return datasets
}

// HasFeature reports whether feature is one of the distinct data types
func HasFeature(rows []domain.FeatureOption, feature string) bool {
	for _, row := range rows {
		if row.AIDataType == feature {
			return true
		}
	}
	return false
}

// FindDataset looks up a dataset key within a feature
func FindDataset(rows []domain.FeatureOption, feature, key string) (domain.DatasetChoice, bool) {
	for _, d := range DatasetsFor(rows, feature) {
		if d.Key == key {
			return d, true
		}
	}
	return domain.DatasetChoice{}, false
}

// CancerName resolves a slug against the loaded list, falling back to the
// title-cased slug.
func CancerName(cancers []domain.CancerOption, slug string) string {
	for _, c := range cancers {
		if c.Slug == slug && c.Name != "" {
			return c.Name
		}
	}
	return TitleFromSlug(slug)
}

// TitleFromSlug turns "breast-cancer" into "Breast Cancer"
func TitleFromSlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		if unicode.IsLetter(r[0]) || unicode.IsDigit(r[0]) {
			r[0] = unicode.ToUpper(r[0])
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// IsMultiDataset reports whether a feature combines image and gene inputs
func IsMultiDataset(feature string) bool {
	f := strings.ToLower(feature)
	return strings.Contains(f, "image") && strings.Contains(f, "gene")
}

// FeatureLabel is the display form of an AI data type
func FeatureLabel(feature string) string {
	return strings.ToUpper(feature)
}
