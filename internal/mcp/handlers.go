package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cancer-ai-portal/internal/domain"
	"github.com/cancer-ai-portal/internal/result"
	"github.com/cancer-ai-portal/internal/selector"
	"github.com/cancer-ai-portal/internal/upload"
)

// ListCancersParams defines parameters for list_cancers tool
type ListCancersParams struct {
	FeatureContext string `json:"feature_context" jsonschema:"diagnosis, prognosis or treatment"`
}

// ListCancersResult defines the result structure for list_cancers tool
type ListCancersResult struct {
	FeatureContext domain.FeatureContext `json:"feature_context"`
	Cancers        []domain.CancerOption `json:"cancers"`
}

// ListFeatureOptionsParams defines parameters for list_feature_options tool
type ListFeatureOptionsParams struct {
	FeatureContext string `json:"feature_context" jsonschema:"diagnosis, prognosis or treatment"`
	Cancer         string `json:"cancer" jsonschema:"cancer slug as returned by list_cancers"`
}

// FeatureDatasets groups the datasets of one AI data type
type FeatureDatasets struct {
	Feature  string                 `json:"feature"`
	Label    string                 `json:"label"`
	Multi    bool                   `json:"multi"`
	Datasets []domain.DatasetChoice `json:"datasets"`
}

// ListFeatureOptionsResult defines the result structure for list_feature_options tool
type ListFeatureOptionsResult struct {
	Cancer      string            `json:"cancer"`
	Description string            `json:"description,omitempty"`
	Features    []FeatureDatasets `json:"features"`
}

// PredictDatasetParams defines parameters for predict_dataset tool
type PredictDatasetParams struct {
	FeatureContext string `json:"feature_context" jsonschema:"diagnosis, prognosis or treatment"`
	Cancer         string `json:"cancer" jsonschema:"cancer slug as returned by list_cancers"`
	AIFeature      string `json:"ai_feature" jsonschema:"AI data type as returned by list_feature_options"`
	Dataset        string `json:"dataset" jsonschema:"dataset key as returned by list_feature_options"`
	FilePath       string `json:"file_path" jsonschema:"path of the CSV file to upload"`
}

// ListNewsParams defines parameters for list_news tool
type ListNewsParams struct {
	Category string `json:"category,omitempty" jsonschema:"category filter, case-insensitive; omit for all"`
}

// AIStatusParams defines parameters for ai_status tool
type AIStatusParams struct{}

func (s *Server) handleListCancers(ctx context.Context, req *mcp.CallToolRequest, params ListCancersParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "list_cancers").Info("Tool invoked")

	feature, err := domain.ParseFeatureContext(params.FeatureContext)
	if err != nil {
		return s.createErrorResult("Invalid feature_context", err), nil, nil
	}

	cancers := selector.NewLoader(s.backend, feature, s.logger).LoadCancers(ctx)
	res := ListCancersResult{FeatureContext: feature, Cancers: cancers}

	if len(cancers) == 0 {
		return textResult(fmt.Sprintf("No cancer types available for %s.", feature.Title())), res, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s cancer types:\n", feature.Title())
	for _, c := range cancers {
		fmt.Fprintf(&b, "- %s (%s)\n", c.Name, c.Slug)
	}
	return textResult(b.String()), res, nil
}

func (s *Server) handleListFeatureOptions(ctx context.Context, req *mcp.CallToolRequest, params ListFeatureOptionsParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "list_feature_options").Info("Tool invoked")

	feature, err := domain.ParseFeatureContext(params.FeatureContext)
	if err != nil {
		return s.createErrorResult("Invalid feature_context", err), nil, nil
	}
	if params.Cancer == "" {
		return s.createErrorResult("Missing required parameter", fmt.Errorf("cancer is required")), nil, nil
	}

	rows, detail := selector.NewLoader(s.backend, feature, s.logger).LoadOptions(ctx, params.Cancer)

	res := ListFeatureOptionsResult{Cancer: params.Cancer, Features: []FeatureDatasets{}}
	if detail != nil {
		res.Description = detail.Description
	}
	for _, f := range selector.DistinctFeatures(rows) {
		res.Features = append(res.Features, FeatureDatasets{
			Feature:  f,
			Label:    selector.FeatureLabel(f),
			Multi:    selector.IsMultiDataset(f),
			Datasets: selector.DatasetsFor(rows, f),
		})
	}

	if len(res.Features) == 0 {
		return textResult(fmt.Sprintf("No AI features available for %s.", params.Cancer)), res, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "AI features for %s:\n", params.Cancer)
	for _, f := range res.Features {
		fmt.Fprintf(&b, "- %s (%s):", f.Label, f.Feature)
		for _, d := range f.Datasets {
			fmt.Fprintf(&b, " %s [%s]", d.Label, d.Key)
		}
		b.WriteString("\n")
	}
	return textResult(b.String()), res, nil
}

// handlePredictDataset walks the same selector and upload flow as the web
// pages, so selection and validation messages are identical.
func (s *Server) handlePredictDataset(ctx context.Context, req *mcp.CallToolRequest, params PredictDatasetParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "predict_dataset").Info("Tool invoked")

	feature, err := domain.ParseFeatureContext(params.FeatureContext)
	if err != nil {
		return s.createErrorResult("Invalid feature_context", err), nil, nil
	}

	sel := selector.New(selector.NewLoader(s.backend, feature, s.logger), s.logger)
	defer sel.Close()

	sel.Init(ctx)
	sel.SelectCancer(ctx, strings.TrimSpace(params.Cancer))
	if params.AIFeature != "" {
		if err := sel.SelectFeature(strings.TrimSpace(params.AIFeature)); err != nil {
			return s.createErrorResult("Invalid selection", err), nil, nil
		}
	}
	if params.Dataset != "" {
		if err := sel.SelectDataset(strings.TrimSpace(params.Dataset)); err != nil {
			return s.createErrorResult("Invalid selection", err), nil, nil
		}
	}
	handoff, err := sel.Continue()
	if err != nil {
		return s.createErrorResult("Incomplete selection", err), nil, nil
	}

	sub := upload.Submission{
		Feature:    feature,
		CancerSlug: handoff.CancerSlug,
		DatasetKey: handoff.DatasetKey,
	}
	if params.FilePath != "" {
		file, closer, err := upload.OpenLocal(params.FilePath)
		if err != nil {
			return s.createErrorResult("Cannot read dataset", err), nil, nil
		}
		defer closer.Close()
		sub.File = file
	}

	ctrl := upload.NewController(s.backend, upload.Options{Timeout: s.config.UploadTimeout}, s.logger)
	out, err := ctrl.Submit(ctx, sub)
	if err != nil {
		return s.createErrorResult("Upload failed", err), nil, nil
	}
	if !out.Succeeded() {
		res := s.createErrorResult(out.Message, nil)
		if out.Raw != "" {
			res.Content = append(res.Content, &mcp.TextContent{Text: "Raw response:\n" + out.Raw})
		}
		return res, out, nil
	}

	report, err := result.Build(&result.State{
		FeatureContext:   feature,
		PredictionResult: out.Result,
		CancerName:       handoff.CancerName,
		DatasetLabel:     handoff.DatasetLabel,
	})
	if err != nil {
		return s.createErrorResult("Invalid prediction", err), nil, nil
	}
	return textResult(report.Text()), report, nil
}

func (s *Server) handleListNews(ctx context.Context, req *mcp.CallToolRequest, params ListNewsParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "list_news").Info("Tool invoked")

	listing, err := s.news.List(ctx, params.Category)
	if err != nil {
		return s.createErrorResult("Failed to load news", err), nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Categories: %s\n", strings.Join(listing.Categories, ", "))
	if len(listing.Articles) == 0 {
		b.WriteString("No articles in this category.\n")
	}
	for _, a := range listing.Articles {
		fmt.Fprintf(&b, "- [%d] %s (%s)\n", a.ID, a.Title, a.Category)
	}
	return textResult(b.String()), listing, nil
}

func (s *Server) handleAIStatus(ctx context.Context, req *mcp.CallToolRequest, params AIStatusParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "ai_status").Info("Tool invoked")

	status, err := s.backend.Status(ctx)
	if err != nil {
		return s.createErrorResult("Failed to load AI status", err), nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Status: %s (%d/%d models loaded)\n", status.Status, status.ModelsLoaded, status.ModelsTotal)
	for _, m := range status.Models {
		state := "not loaded"
		if m.Loaded {
			state = "loaded"
		}
		fmt.Fprintf(&b, "- %s [%s] %s\n", m.ModelName, m.CancerType, state)
	}
	return textResult(b.String()), status, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// createErrorResult creates a standardized error result for tool calls
func (s *Server) createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s", message)
	if err != nil {
		errorText += fmt.Sprintf(" - %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
