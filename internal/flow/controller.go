package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"accueil/internal/extraction"
	"accueil/internal/provider"
	"accueil/internal/registration/models"
	dErrors "accueil/pkg/domain-errors"
	"accueil/pkg/requestcontext"
)

const (
	DefaultExtractionTimeout = 90 * time.Second

	resultWriteTimeout = 5 * time.Second
	saveClaimTTL       = 2 * time.Minute
)

var errStale = errors.New("flow session moved on")

// Saver persists a reviewed field mapping as a registration.
type Saver interface {
	Create(ctx context.Context, fields models.FieldMap) (*models.Record, error)
}

type run struct {
	generation uint64
	cancel     context.CancelFunc
}

// Controller owns the capture sessions and the extractions running for
// them. It is created once at startup and stopped with Shutdown.
type Controller struct {
	sessions       SessionStore
	extractor      extraction.Extractor
	saver          Saver
	logger         *slog.Logger
	metrics        *Metrics
	now            func() time.Time
	maxDimension   int
	extractTimeout time.Duration

	base context.Context
	stop context.CancelFunc

	mu       sync.Mutex
	inflight map[string]*run
	closed   bool
	wg       sync.WaitGroup
}

type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithMaxDimension bounds the longest side of submitted pictures.
func WithMaxDimension(px int) Option {
	return func(c *Controller) { c.maxDimension = px }
}

// WithExtractionTimeout bounds one extraction; 0 disables the bound.
func WithExtractionTimeout(d time.Duration) Option {
	return func(c *Controller) { c.extractTimeout = d }
}

// NewController creates a Controller. A nil extractor rejects submitted
// images as unavailable.
func NewController(sessions SessionStore, extractor extraction.Extractor, saver Saver, opts ...Option) *Controller {
	base, stop := context.WithCancel(context.Background())
	c := &Controller{
		sessions:       sessions,
		extractor:      extractor,
		saver:          saver,
		logger:         slog.Default(),
		now:            time.Now,
		extractTimeout: DefaultExtractionTimeout,
		base:           base,
		stop:           stop,
		inflight:       make(map[string]*run),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start opens a session in upload.
func (c *Controller) Start(ctx context.Context) (*Snapshot, error) {
	now := c.now()
	snap := &Snapshot{
		ID:        uuid.NewString(),
		State:     StateUpload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.sessions.Put(ctx, snap); err != nil {
		return nil, translate(err)
	}
	c.metrics.sessionStarted()
	c.logger.InfoContext(ctx, "capture session started",
		"flow_id", snap.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return snap, nil
}

func (c *Controller) Get(ctx context.Context, id string) (*Snapshot, error) {
	snap, err := c.sessions.Get(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return snap, nil
}

// Image returns the picture held by a waiting or result session.
func (c *Controller) Image(ctx context.Context, id string) ([]byte, string, error) {
	snap, err := c.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if len(snap.Image) == 0 {
		return nil, "", dErrors.New(dErrors.CodeNotFound, "flow has no image")
	}
	return snap.Image, snap.ImageType, nil
}

// SubmitImage moves an upload session to waiting and starts extracting the
// picture. An empty or undecodable picture leaves the session in upload.
func (c *Controller) SubmitImage(ctx context.Context, id string, data []byte) (*Snapshot, error) {
	if c.extractor == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "form extraction is not configured")
	}
	if len(data) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "image is empty")
	}
	img, err := extraction.PrepareImage(data, c.maxDimension)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "image could not be decoded")
	}
	if c.isClosed() {
		return nil, dErrors.New(dErrors.CodeUnavailable, "server is shutting down")
	}

	snap, err := c.sessions.Update(ctx, id, func(s *Snapshot) error {
		if s.State != StateUpload {
			return invalidState("submit an image", s.State)
		}
		s.State = StateWaiting
		s.Generation++
		s.Image = img.Data
		s.ImageType = img.MimeType
		s.Fields = nil
		s.Failure = nil
		s.UpdatedAt = c.now()
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	c.launch(ctx, snap.ID, snap.Generation, img)
	return snap, nil
}

// Cancel abandons the extraction of a waiting session and returns it to
// upload.
func (c *Controller) Cancel(ctx context.Context, id string) (*Snapshot, error) {
	snap, err := c.sessions.Update(ctx, id, func(s *Snapshot) error {
		if s.State != StateWaiting {
			return invalidState("cancel", s.State)
		}
		s.reset(c.now())
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	c.abort(id)
	return snap, nil
}

// Retry returns a session whose extraction failed to upload.
func (c *Controller) Retry(ctx context.Context, id string) (*Snapshot, error) {
	snap, err := c.sessions.Update(ctx, id, func(s *Snapshot) error {
		if s.State != StateWaiting || s.Failure == nil {
			return invalidState("retry", s.State)
		}
		s.reset(c.now())
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return snap, nil
}

// EditFields replaces the whole reviewed mapping of a result session.
func (c *Controller) EditFields(ctx context.Context, id string, fields models.FieldMap) (*Snapshot, error) {
	normalized := fields.Normalize()
	snap, err := c.sessions.Update(ctx, id, func(s *Snapshot) error {
		if s.State != StateResult {
			return invalidState("edit fields", s.State)
		}
		if s.Saving(c.now()) {
			return saveInProgress()
		}
		s.Fields = normalized
		s.UpdatedAt = c.now()
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return snap, nil
}

// Discard drops a result without saving it.
func (c *Controller) Discard(ctx context.Context, id string) (*Snapshot, error) {
	snap, err := c.sessions.Update(ctx, id, func(s *Snapshot) error {
		if s.State != StateResult {
			return invalidState("discard", s.State)
		}
		if s.Saving(c.now()) {
			return saveInProgress()
		}
		s.reset(c.now())
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return snap, nil
}

// Save persists the reviewed mapping and resets the session. The session is
// claimed before the record store is called: while the claim is held a
// second Save, EditFields and Discard are rejected. When the record store
// fails the claim is released and the session stays in result so the save
// can be repeated.
func (c *Controller) Save(ctx context.Context, id string) (*Snapshot, *models.Record, error) {
	claimed, err := c.sessions.Update(ctx, id, func(s *Snapshot) error {
		if s.State != StateResult {
			return invalidState("save", s.State)
		}
		now := c.now()
		if s.Saving(now) {
			return saveInProgress()
		}
		s.SavingSince = &now
		s.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, nil, translate(err)
	}

	rec, err := c.saver.Create(ctx, claimed.Fields)
	if err != nil {
		c.logger.WarnContext(ctx, "saving capture failed",
			"flow_id", id,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		c.release(ctx, id, claimed.Generation)
		return nil, nil, err
	}
	c.metrics.saved()

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resultWriteTimeout)
	defer cancel()
	snap, err := c.sessions.Update(writeCtx, id, func(s *Snapshot) error {
		if s.State == StateResult && s.Generation == claimed.Generation {
			s.reset(c.now())
		}
		return nil
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "resetting saved capture failed",
			"flow_id", id,
			"registration_id", rec.ID,
			"error", err,
		)
		return nil, rec, translate(err)
	}
	c.logger.InfoContext(ctx, "capture saved",
		"flow_id", id,
		"registration_id", rec.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return snap, rec, nil
}

// release drops the save claim taken under generation, detached from the
// request's cancellation.
func (c *Controller) release(ctx context.Context, id string, generation uint64) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resultWriteTimeout)
	defer cancel()
	_, err := c.sessions.Update(writeCtx, id, func(s *Snapshot) error {
		if s.Generation == generation {
			s.SavingSince = nil
			s.UpdatedAt = c.now()
		}
		return nil
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "releasing save claim failed",
			"flow_id", id,
			"error", err,
		)
	}
}

// Close tears a session down, cancelling its extraction if one runs.
func (c *Controller) Close(ctx context.Context, id string) error {
	c.abort(id)
	if err := c.sessions.Delete(ctx, id); err != nil {
		return translate(err)
	}
	return nil
}

// Shutdown cancels every running extraction and waits for them to return
// or for ctx to end.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	for id, r := range c.inflight {
		r.cancel()
		delete(c.inflight, id)
	}
	c.mu.Unlock()
	c.stop()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InFlight reports whether an extraction runs for the session.
func (c *Controller) InFlight(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[id]
	return ok
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) abort(id string) {
	c.mu.Lock()
	r, ok := c.inflight[id]
	if ok {
		delete(c.inflight, id)
	}
	c.mu.Unlock()
	if ok {
		r.cancel()
	}
}

// launch runs the extraction detached from the request, under a context
// cancelled by Cancel, Close or Shutdown.
func (c *Controller) launch(reqCtx context.Context, id string, generation uint64, img extraction.Image) {
	parent := context.WithoutCancel(reqCtx)
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if c.extractTimeout > 0 {
		ctx, cancel = context.WithTimeout(parent, c.extractTimeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	stopOnShutdown := context.AfterFunc(c.base, cancel)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		stopOnShutdown()
		cancel()
		return
	}
	if prev, ok := c.inflight[id]; ok {
		prev.cancel()
	}
	c.inflight[id] = &run{generation: generation, cancel: cancel}
	c.wg.Add(1)
	c.mu.Unlock()
	c.metrics.extractionStarted()

	go func() {
		defer c.wg.Done()
		defer stopOnShutdown()
		defer cancel()

		fields, err := c.extractor.Extract(ctx, img)
		c.finish(ctx, id, generation, fields, err)
	}()
}

func (c *Controller) finish(ctx context.Context, id string, generation uint64, fields models.FieldMap, err error) {
	c.mu.Lock()
	if r, ok := c.inflight[id]; ok && r.generation == generation {
		delete(c.inflight, id)
	}
	c.mu.Unlock()

	if err == nil && blank(fields) {
		err = provider.NewError(provider.ErrorNoFormDetected, extraction.ProviderID,
			"every field is empty", extraction.ErrNoFormDetected)
	}
	outcome := "ok"
	if err != nil {
		outcome = string(provider.GetCategory(err))
	}
	c.metrics.extractionFinished(outcome)

	log := c.logger.With("flow_id", id, "generation", generation)
	if errors.Is(ctx.Err(), context.Canceled) {
		c.metrics.staleResult()
		log.DebugContext(ctx, "extraction cancelled, result dropped")
		return
	}

	writeCtx, cancelWrite := context.WithTimeout(context.WithoutCancel(ctx), resultWriteTimeout)
	defer cancelWrite()
	_, uerr := c.sessions.Update(writeCtx, id, func(s *Snapshot) error {
		if s.Generation != generation || s.State != StateWaiting {
			return errStale
		}
		if err != nil {
			s.Failure = failureFor(err)
		} else {
			s.State = StateResult
			s.Fields = fields.Normalize()
			s.Failure = nil
		}
		s.UpdatedAt = c.now()
		return nil
	})
	switch {
	case errors.Is(uerr, errStale), errors.Is(uerr, ErrNotFound):
		c.metrics.staleResult()
		log.DebugContext(ctx, "stale extraction result dropped")
	case uerr != nil:
		log.ErrorContext(ctx, "storing extraction result failed", "error", uerr)
	case err != nil:
		log.WarnContext(ctx, "extraction failed", "outcome", outcome, "error", err)
	default:
		log.InfoContext(ctx, "extraction ready for review")
	}
}

func blank(fields models.FieldMap) bool {
	for _, v := range fields {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func invalidState(action string, state State) error {
	return dErrors.New(dErrors.CodeInvalidState, fmt.Sprintf("cannot %s while %s", action, state))
}

func saveInProgress() error {
	return dErrors.New(dErrors.CodeInvalidState, "a save is already in progress")
}

func translate(err error) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "flow not found")
	case errors.Is(err, ErrContention):
		return dErrors.Wrap(err, dErrors.CodeConflict, "flow changed concurrently, try again")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "flow session store failed")
	}
}
