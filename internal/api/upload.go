package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/cancer-ai-portal/internal/domain"
	"github.com/cancer-ai-portal/internal/result"
	"github.com/cancer-ai-portal/internal/upload"
)

const (
	progressWriteWait = 10 * time.Second
	progressPongWait  = 60 * time.Second
	progressPingEvery = (progressPongWait * 9) / 10
)

type progressMessage struct {
	Type string `json:"type"`
	upload.Snapshot
}

// handleUpload submits the attached CSV for the flow's handoff. Without a
// handoff the controller reports the missing selection.
func (s *Server) handleUpload(c *gin.Context) {
	flow, ok := s.flow(c)
	if !ok {
		return
	}

	sub := upload.Submission{Feature: flow.Feature}
	handoff, _ := flow.Handoff()
	if handoff != nil {
		sub.CancerSlug = handoff.CancerSlug
		sub.DatasetKey = handoff.DatasetKey
	}

	file, closer, err := formFile(c)
	if err != nil {
		s.respondError(c, err, nil)
		return
	}
	if closer != nil {
		defer closer.Close()
	}
	sub.File = file

	out, err := flow.Uploads.Submit(c.Request.Context(), sub)
	if err != nil {
		s.respondError(c, err, nil)
		return
	}

	body := gin.H{"outcome": out}
	if out.Succeeded() {
		state := &result.State{
			FeatureContext:   flow.Feature,
			PredictionResult: out.Result,
			CancerName:       handoff.CancerName,
			DatasetLabel:     handoff.DatasetLabel,
		}
		flow.SetResult(state)
		if report, err := result.Build(state); err == nil {
			body["report"] = report
		}
	}
	c.JSON(outcomeStatus(out), body)
}

// formFile reads the "file" part. A request without one is not an error:
// the controller reports it in order with the other preconditions.
func formFile(c *gin.Context) (*upload.File, io.Closer, error) {
	header, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, domain.NewValidationError("file", "could not read multipart upload", err.Error())
	}

	f, err := header.Open()
	if err != nil {
		return nil, nil, domain.NewValidationError("file", "could not open uploaded file", err.Error())
	}
	return &upload.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     f,
	}, f, nil
}

func outcomeStatus(out *upload.Outcome) int {
	switch out.Kind {
	case upload.KindSuccess:
		return http.StatusOK
	case upload.KindValidation:
		return http.StatusBadRequest
	case upload.KindFormat:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

// handleProgress streams upload progress snapshots over a websocket until
// the client goes away.
func (s *Server) handleProgress(c *gin.Context) {
	flow, ok := s.flow(c)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WithError(err).Debug("Progress websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	updates, stop := flow.Uploads.Watch()
	defer stop()

	if err := conn.SetReadDeadline(time.Now().Add(progressPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(progressPongWait))
	})

	// Inbound frames are ignored; reading drives pong handling and close detection
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(progressPingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(progressWriteWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(progressMessage{Type: "progress", Snapshot: snap}); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(progressWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
