// Package upload validates and submits prediction datasets.
package upload

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cancer-ai-portal/internal/domain"
)

// DefaultTimeout bounds a single prediction upload
const DefaultTimeout = 2 * time.Minute

// Submission is one upload attempt for a completed selection
type Submission struct {
	Feature    domain.FeatureContext
	CancerSlug string
	DatasetKey string
	File       *File
}

// Options configures a Controller
type Options struct {
	Timeout          time.Duration
	ProgressInterval time.Duration
	MaxFileSize      int64
}

// Controller submits uploads for one page instance. Only one submission
// may be in flight at a time.
type Controller struct {
	predictor domain.Predictor
	opts      Options
	logger    *logrus.Logger

	mu      sync.Mutex
	pending bool
	tracker *Tracker
	last    *Outcome

	watchMu  sync.Mutex
	watchers map[chan Snapshot]struct{}
}

// NewController creates a controller
func NewController(predictor domain.Predictor, opts Options, logger *logrus.Logger) *Controller {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultInterval
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Controller{
		predictor: predictor,
		opts:      opts,
		logger:    logger,
		tracker:   NewTracker(opts.ProgressInterval),
		watchers:  make(map[chan Snapshot]struct{}),
	}
}

// Pending reports whether an upload is in flight
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Tracker returns the progress tracker of the current or latest upload
func (c *Controller) Tracker() *Tracker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker
}

// Last returns the outcome of the latest finished submission, if any
func (c *Controller) Last() *Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Watch follows progress across submissions. The channel receives the
// current snapshot first and stays open until the returned func is called.
func (c *Controller) Watch() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)
	ch <- c.Tracker().Current()

	c.watchMu.Lock()
	c.watchers[ch] = struct{}{}
	c.watchMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.watchMu.Lock()
			defer c.watchMu.Unlock()
			delete(c.watchers, ch)
			close(ch)
		})
	}
}

func (c *Controller) publish(snap Snapshot) {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()
	for ch := range c.watchers {
		deliver(ch, snap)
	}
}

// Validate checks the preconditions in order: file attached, selection
// complete, media type. It returns nil when the submission may proceed.
func (c *Controller) Validate(sub Submission) *Outcome {
	if sub.File == nil || sub.File.Content == nil {
		return validationOutcome("file", MsgNoFile)
	}
	if sub.CancerSlug == "" || sub.DatasetKey == "" {
		return validationOutcome("selection", MsgMissingInfo)
	}
	if !sub.File.IsCSV() {
		return validationOutcome("file", MsgInvalidType)
	}
	if c.opts.MaxFileSize > 0 && sub.File.Size > c.opts.MaxFileSize {
		return validationOutcome("file", "File is too large.")
	}
	return nil
}

// Submit validates and uploads. Every user-visible failure is reported as
// an Outcome; the only error is ErrSubmissionPending.
func (c *Controller) Submit(ctx context.Context, sub Submission) (*Outcome, error) {
	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return nil, domain.ErrSubmissionPending
	}
	if out := c.Validate(sub); out != nil {
		c.last = out
		c.mu.Unlock()
		return out, nil
	}
	c.pending = true
	tracker := NewTracker(c.opts.ProgressInterval)
	tracker.OnUpdate(c.publish)
	c.tracker = tracker
	c.mu.Unlock()

	out := c.upload(ctx, sub, tracker)

	c.mu.Lock()
	c.pending = false
	c.last = out
	c.mu.Unlock()
	return out, nil
}

func (c *Controller) upload(ctx context.Context, sub Submission, tracker *Tracker) *Outcome {
	logger := c.logger.WithFields(logrus.Fields{
		"feature_context": sub.Feature,
		"cancer":          sub.CancerSlug,
		"feature_key":     sub.DatasetKey,
		"file":            sub.File.Name,
		"size":            sub.File.Size,
	})

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	tracker.Start()
	logger.Info("Submitting prediction upload")

	resp, err := c.predictor.Predict(ctx, domain.PredictRequest{
		CancerSlug:  sub.CancerSlug,
		Feature:     sub.Feature,
		DatasetKey:  sub.DatasetKey,
		FileName:    sub.File.Name,
		ContentType: MediaType(sub.File.ContentType),
		Content:     sub.File.Content,
	})
	if err != nil {
		snap := tracker.Fail()
		msg := err.Error()
		if msg == "" {
			msg = MsgSubmitFailed
		}
		logger.WithError(err).Warn("Prediction upload failed")
		return &Outcome{Kind: KindTransport, Message: msg, Progress: snap}
	}

	snap := tracker.Complete()
	out := Classify(resp)
	out.Progress = snap

	entry := logger.WithFields(logrus.Fields{"status": resp.StatusCode, "kind": out.Kind})
	if out.Succeeded() {
		entry.Info("Prediction received")
	} else {
		entry.Warn("Prediction upload returned an error view")
	}
	return out
}
