package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cancer-ai-portal/internal/domain"
	"github.com/cancer-ai-portal/internal/navigation"
	"github.com/cancer-ai-portal/internal/result"
	"github.com/cancer-ai-portal/internal/selector"
	"github.com/cancer-ai-portal/internal/upload"
)

type valueRequest struct {
	Value string `json:"value"`
}

type featureView struct {
	Tag   domain.FeatureContext `json:"tag"`
	Title string                `json:"title"`
}

type uploadView struct {
	Pending  bool            `json:"pending"`
	Progress upload.Snapshot `json:"progress"`
	Last     *upload.Outcome `json:"last,omitempty"`
}

type flowView struct {
	ID        string                `json:"id"`
	Feature   domain.FeatureContext `json:"feature_context"`
	CreatedAt time.Time             `json:"created_at"`
	Selector  selector.Snapshot     `json:"selector"`
	Handoff   *selector.Handoff     `json:"handoff,omitempty"`
	Upload    uploadView            `json:"upload"`
	HasResult bool                  `json:"has_result"`
}

func newFlowView(flow *navigation.Flow) flowView {
	v := flowView{
		ID:        flow.ID,
		Feature:   flow.Feature,
		CreatedAt: flow.CreatedAt,
		Selector:  flow.Selector.Snapshot(),
		Upload: uploadView{
			Pending:  flow.Uploads.Pending(),
			Progress: flow.Uploads.Tracker().Current(),
			Last:     flow.Uploads.Last(),
		},
	}
	if h, err := flow.Handoff(); err == nil {
		v.Handoff = h
	}
	if _, err := flow.Result(); err == nil {
		v.HasResult = true
	}
	return v
}

// flow resolves the :id param, writing the error response when it fails
func (s *Server) flow(c *gin.Context) (*navigation.Flow, bool) {
	flow, err := s.flows.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, err, nil)
		return nil, false
	}
	return flow, true
}

func (s *Server) feature(c *gin.Context) (domain.FeatureContext, bool) {
	feature, err := domain.ParseFeatureContext(c.Param("feature"))
	if err != nil {
		s.respondError(c, err, nil)
		return "", false
	}
	return feature, true
}

func (s *Server) handleListFeatures(c *gin.Context) {
	features := make([]featureView, 0, len(domain.FeatureContexts))
	for _, f := range domain.FeatureContexts {
		features = append(features, featureView{Tag: f, Title: f.Title()})
	}
	c.JSON(http.StatusOK, gin.H{"features": features})
}

// handleListCancers returns the cancer list for a context. A backend
// failure yields an empty list, matching the selector page.
func (s *Server) handleListCancers(c *gin.Context) {
	feature, ok := s.feature(c)
	if !ok {
		return
	}
	cancers := selector.NewLoader(s.backend, feature, s.logger).LoadCancers(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"feature_context": feature, "cancers": cancers})
}

func (s *Server) handleCreateFlow(c *gin.Context) {
	feature, ok := s.feature(c)
	if !ok {
		return
	}
	cfg := s.configManager.GetConfig()

	sel := selector.New(selector.NewLoader(s.backend, feature, s.logger), s.logger)
	sel.Init(c.Request.Context())

	uploads := upload.NewController(s.backend, upload.Options{
		Timeout:          cfg.Upload.Timeout,
		ProgressInterval: cfg.Upload.ProgressInterval,
		MaxFileSize:      cfg.Upload.MaxFileSize,
	}, s.logger)

	flow := s.flows.Create(feature, sel, uploads)
	s.logger.WithFields(logrus.Fields{
		"flow_id":         flow.ID,
		"feature_context": feature,
	}).Debug("Flow created")

	c.JSON(http.StatusCreated, newFlowView(flow))
}

func (s *Server) handleGetFlow(c *gin.Context) {
	flow, ok := s.flow(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newFlowView(flow))
}

func (s *Server) handleDeleteFlow(c *gin.Context) {
	if !s.flows.Delete(c.Param("id")) {
		s.respondError(c, domain.ErrFlowNotFound, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSelect(field domain.Field) gin.HandlerFunc {
	return func(c *gin.Context) {
		flow, ok := s.flow(c)
		if !ok {
			return
		}

		var req valueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			s.respondError(c, domain.NewValidationError("value", "request body must be a JSON object with a value", nil), nil)
			return
		}
		value := strings.TrimSpace(req.Value)

		var err error
		superseded := false
		switch field {
		case domain.FieldCancer:
			superseded = !flow.Selector.SelectCancer(c.Request.Context(), value)
		case domain.FieldFeature:
			err = flow.Selector.SelectFeature(value)
		case domain.FieldDataset:
			err = flow.Selector.SelectDataset(value)
		}

		snap := flow.Selector.Snapshot()
		if err != nil {
			s.respondError(c, err, gin.H{"selector": snap})
			return
		}
		flow.ClearHandoff()
		c.JSON(http.StatusOK, gin.H{"selector": snap, "superseded": superseded})
	}
}

func (s *Server) handleOpenField(c *gin.Context) {
	flow, ok := s.flow(c)
	if !ok {
		return
	}
	field, err := domain.ParseField(c.Param("field"))
	if err != nil {
		s.respondError(c, err, nil)
		return
	}

	err = flow.Selector.OpenField(field)
	snap := flow.Selector.Snapshot()
	if err != nil {
		s.respondError(c, err, gin.H{"selector": snap})
		return
	}
	c.JSON(http.StatusOK, gin.H{"selector": snap})
}

func (s *Server) handleDismissPopup(c *gin.Context) {
	flow, ok := s.flow(c)
	if !ok {
		return
	}
	flow.Selector.DismissPopup()
	c.JSON(http.StatusOK, gin.H{"selector": flow.Selector.Snapshot()})
}

// handleContinue hands the completed selection to the upload page
func (s *Server) handleContinue(c *gin.Context) {
	flow, ok := s.flow(c)
	if !ok {
		return
	}

	handoff, err := flow.Selector.Continue()
	if err != nil {
		s.respondError(c, err, gin.H{"selector": flow.Selector.Snapshot()})
		return
	}
	flow.SetHandoff(handoff)
	c.JSON(http.StatusOK, gin.H{"handoff": handoff})
}

func (s *Server) handleResult(c *gin.Context) {
	flow, ok := s.flow(c)
	if !ok {
		return
	}

	state, err := flow.Result()
	if err != nil {
		s.respondError(c, err, nil)
		return
	}
	report, err := result.Build(state)
	if err != nil {
		s.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report, "summary": report.Text()})
}
