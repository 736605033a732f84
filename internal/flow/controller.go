// Package flow drives one authoring session through edit, preview, and save.
package flow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/invibe/internal/background"
	"github.com/dukerupert/invibe/internal/draft"
	"github.com/dukerupert/invibe/internal/model"
	"github.com/dukerupert/invibe/internal/preview"
)

type State string

const (
	StateEditing    State = "editing"
	StatePreviewing State = "previewing"
	StateSaving     State = "saving"
	StateCreated    State = "created"
	StateCancelled  State = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s State) Terminal() bool {
	return s == StateCreated || s == StateCancelled
}

// Creator persists a finished draft as an event.
type Creator interface {
	CreateEvent(ctx context.Context, d model.EventDraft, host model.Host) (*model.PersistedEvent, error)
}

// Notifier pushes a message to every connection of one session.
type Notifier interface {
	Notify(sessionID, entity, action string, extra map[string]any)
}

// Deps are the collaborators shared by every controller.
type Deps struct {
	Drafts     *draft.Store
	Resolver   *background.Resolver
	Reconciler *preview.Reconciler
	Creator    Creator
	Notifier   Notifier
	Logger     *slog.Logger
}

// GenerationStatus describes the most recent generation request.
type GenerationStatus struct {
	Pending bool   `json:"pending"`
	Prompt  string `json:"prompt,omitempty"`
	Token   Token  `json:"token"`
	Error   string `json:"error,omitempty"`
}

// Controller owns the state of one authoring session. Draft contents live in
// the draft store; the controller only tracks where the session is.
type Controller struct {
	sessionID  string
	deps       Deps
	baseLogger *slog.Logger
	logger     *slog.Logger

	// base outlives individual requests so generation can finish after the
	// HTTP call that started it returns.
	base context.Context
	wg   sync.WaitGroup
	now  func() time.Time

	mu         sync.Mutex
	state      State
	tokens     tracker
	generation GenerationStatus
	lastActive time.Time
}

func newController(base context.Context, sessionID string, deps Deps, now func() time.Time) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	baseLogger := logger.With("component", "flow")
	return &Controller{
		sessionID:  sessionID,
		deps:       deps,
		baseLogger: baseLogger,
		logger:     baseLogger.With("session", sessionID),
		base:       base,
		now:        now,
		state:      StateEditing,
		lastActive: now(),
	}
}

func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Controller) rekey(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger.Info("session rotated", "new_session", sessionID)
	c.sessionID = sessionID
	c.logger = c.baseLogger.With("session", sessionID)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until in-flight generations have finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// require checks the current state against allowed. Callers hold c.mu.
func (c *Controller) require(allowed ...State) error {
	c.lastActive = c.now()
	for _, s := range allowed {
		if c.state == s {
			return nil
		}
	}
	if c.state == StateSaving {
		return model.ErrBusy
	}
	return fmt.Errorf("%s: %w", c.state, model.ErrInvalidTransition)
}

// Draft returns the session's draft, creating the default one if absent.
func (c *Controller) Draft(ctx context.Context) (model.EventDraft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StateEditing, StatePreviewing); err != nil {
		return model.EventDraft{}, err
	}
	return c.deps.Drafts.LoadOrInit(ctx, c.sessionID)
}

// SetField updates one field and persists the whole draft.
func (c *Controller) SetField(ctx context.Context, field model.Field, value any) (model.EventDraft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StateEditing); err != nil {
		return model.EventDraft{}, err
	}
	if field == model.FieldBackground {
		bg, ok := value.(model.Background)
		if !ok {
			return model.EventDraft{}, fmt.Errorf("background wants a descriptor, got %T: %w", value, model.ErrUnknownField)
		}
		bg, err := c.deps.Resolver.Normalize(bg)
		if err != nil {
			return model.EventDraft{}, err
		}
		c.supersedeGeneration()
		return c.setBackground(ctx, bg)
	}
	return c.update(ctx, func(d model.EventDraft) (model.EventDraft, error) {
		return draft.SetField(d, field, value)
	})
}

// SelectTemplate replaces the background with a catalog template.
func (c *Controller) SelectTemplate(ctx context.Context, id string) (model.EventDraft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StateEditing); err != nil {
		return model.EventDraft{}, err
	}
	bg, err := c.deps.Resolver.SelectTemplate(id)
	if err != nil {
		return model.EventDraft{}, err
	}
	c.supersedeGeneration()
	return c.setBackground(ctx, bg)
}

// Upload replaces the background with an uploaded image. The file is read
// without holding the lock; if the session moved on in the meantime the
// result is dropped and the current draft returned.
func (c *Controller) Upload(ctx context.Context, src io.Reader, contentType string) (model.EventDraft, error) {
	c.mu.Lock()
	if err := c.require(StateEditing); err != nil {
		c.mu.Unlock()
		return model.EventDraft{}, err
	}
	tok := c.supersedeGeneration()
	c.mu.Unlock()

	bg, err := c.deps.Resolver.SelectUpload(ctx, src, contentType)
	if err != nil {
		return model.EventDraft{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.tokens.isCurrent(tok) || c.state != StateEditing {
		c.logger.Debug("discarding stale upload", "token", tok)
		if c.state.Terminal() {
			return model.EventDraft{}, fmt.Errorf("%s: %w", c.state, model.ErrInvalidTransition)
		}
		return c.deps.Drafts.LoadOrInit(ctx, c.sessionID)
	}
	return c.setBackground(ctx, bg)
}

// StartGeneration supersedes any pending generation and starts a new one in
// the background. It returns the token identifying the request.
func (c *Controller) StartGeneration(ctx context.Context, prompt string) (Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StateEditing); err != nil {
		return 0, err
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		verr := &model.ValidationError{}
		verr.Add("prompt", "is required")
		return 0, verr
	}

	tok := c.tokens.next()
	c.generation = GenerationStatus{Pending: true, Prompt: prompt, Token: tok}

	c.wg.Add(1)
	go c.generate(tok, prompt)

	c.logger.Info("generation started", "token", tok, "prompt", prompt)
	return tok, nil
}

func (c *Controller) generate(tok Token, prompt string) {
	defer c.wg.Done()

	bg, genErr := c.deps.Resolver.RequestGeneration(c.base, prompt)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.tokens.isCurrent(tok) || c.state != StateEditing {
		c.logger.Debug("discarding stale generation", "token", tok, "prompt", prompt)
		return
	}

	c.generation.Pending = false
	if genErr != nil {
		c.generation.Error = genErr.Error()
		c.logger.Warn("generation failed", "token", tok, "error", genErr)
		c.notify("background", "generation_failed", map[string]any{
			"token":  tok,
			"prompt": prompt,
			"error":  genErr.Error(),
		})
		return
	}

	d, err := c.setBackground(c.base, bg)
	if err != nil {
		c.generation.Error = err.Error()
		c.logger.Error("apply generated background", "token", tok, "error", err)
		c.notify("background", "generation_failed", map[string]any{
			"token":  tok,
			"prompt": prompt,
			"error":  err.Error(),
		})
		return
	}

	c.notify("background", "generated", map[string]any{
		"token":      tok,
		"prompt":     prompt,
		"background": d.Background,
		"style":      c.deps.Resolver.Catalog().Style(d.Background),
	})
}

func (c *Controller) GenerationStatus() GenerationStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Preview validates the draft and moves the session to previewing. The
// forecast is looked up after the lock is released.
func (c *Controller) Preview(ctx context.Context) (model.RenderModel, error) {
	rm, date, err := c.preview(ctx)
	if err != nil {
		return model.RenderModel{}, err
	}
	return c.withWeather(ctx, rm, date), nil
}

func (c *Controller) preview(ctx context.Context) (model.RenderModel, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StateEditing); err != nil {
		return model.RenderModel{}, "", err
	}

	d, err := c.deps.Drafts.Load(ctx, c.sessionID)
	if err != nil {
		return model.RenderModel{}, "", err
	}
	if d == nil {
		return model.RenderModel{}, "", fmt.Errorf("no draft saved: %w", model.ErrInvalidTransition)
	}
	if err := validate(*d); err != nil {
		return model.RenderModel{}, "", err
	}

	rm, err := c.deps.Reconciler.Reconcile(d, nil)
	if err != nil {
		return model.RenderModel{}, "", err
	}

	c.supersedeGeneration()
	c.state = StatePreviewing
	c.logger.Info("previewing draft", "title", d.Title)
	return rm, d.Date, nil
}

// Render reconciles the saved draft. It returns model.ErrNothingToRender when
// no draft exists yet.
func (c *Controller) Render(ctx context.Context) (model.RenderModel, error) {
	d, err := c.loadForRender(ctx)
	if err != nil {
		return model.RenderModel{}, err
	}
	rm, err := c.deps.Reconciler.Reconcile(d, nil)
	if err != nil {
		return model.RenderModel{}, err
	}
	return c.withWeather(ctx, rm, preview.EventDate(d, nil)), nil
}

func (c *Controller) loadForRender(ctx context.Context) (*model.EventDraft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StateEditing, StatePreviewing, StateSaving); err != nil {
		return nil, err
	}
	return c.deps.Drafts.Load(ctx, c.sessionID)
}

func (c *Controller) withWeather(ctx context.Context, rm model.RenderModel, date string) model.RenderModel {
	w := c.deps.Reconciler.Weather(ctx, date)
	rm.Weather = &w
	return rm
}

// BackToEdit returns from preview to editing. The draft is untouched.
func (c *Controller) BackToEdit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StatePreviewing); err != nil {
		return err
	}
	c.state = StateEditing
	return nil
}

// Saved is the outcome of a successful Save.
type Saved struct {
	Event *model.PersistedEvent `json:"event"`
	// Warning is set when the event exists but the draft could not be
	// discarded; the next visit may find it again.
	Warning string `json:"warning,omitempty"`
}

const clearAttempts = 3

// Save creates the event. The lock is released during the create call; the
// saving state rejects every other mutation until it returns. The create call
// and the clean-up after it outlive a cancelled request so a committed event
// is never reported as failed.
func (c *Controller) Save(ctx context.Context, host model.Host) (Saved, error) {
	c.mu.Lock()
	if err := c.require(StatePreviewing); err != nil {
		c.mu.Unlock()
		return Saved{}, err
	}
	d, err := c.deps.Drafts.Load(ctx, c.sessionID)
	if err != nil {
		c.mu.Unlock()
		return Saved{}, err
	}
	if d == nil {
		c.mu.Unlock()
		return Saved{}, fmt.Errorf("no draft saved: %w", model.ErrInvalidTransition)
	}
	c.state = StateSaving
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	event, createErr := c.deps.Creator.CreateEvent(ctx, *d, host)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = c.now()

	if createErr != nil {
		c.state = StatePreviewing
		c.logger.Warn("create event failed", "error", createErr)
		return Saved{}, fmt.Errorf("%w: %w", model.ErrCreateFailed, createErr)
	}

	saved := Saved{Event: event}
	if err := c.clearDraft(ctx); err != nil {
		c.logger.Error("clear draft after create", "event_id", event.ID, "error", err)
		saved.Warning = "event created but the draft could not be discarded"
	}
	c.state = StateCreated
	c.logger.Info("event created", "event_id", event.ID)
	c.notify("event", "created", map[string]any{"id": event.ID})
	return saved, nil
}

// clearDraft retries Clear a few times. Callers hold c.mu.
func (c *Controller) clearDraft(ctx context.Context) error {
	var err error
	for attempt := 1; attempt <= clearAttempts; attempt++ {
		if err = c.deps.Drafts.Clear(ctx, c.sessionID); err == nil {
			return nil
		}
		c.logger.Warn("clear draft", "attempt", attempt, "error", err)
		if attempt < clearAttempts {
			time.Sleep(time.Duration(attempt) * 20 * time.Millisecond)
		}
	}
	return err
}

// Cancel abandons the session when confirmed. Declining leaves everything as
// it was and reports false.
func (c *Controller) Cancel(ctx context.Context, confirmed bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.require(StateEditing, StatePreviewing); err != nil {
		return false, err
	}
	if !confirmed {
		return false, nil
	}
	if err := c.deps.Drafts.Clear(ctx, c.sessionID); err != nil {
		return false, err
	}
	c.supersedeGeneration()
	c.state = StateCancelled
	c.logger.Info("draft cancelled")
	return true, nil
}

// supersedeGeneration invalidates any in-flight request. Callers hold c.mu.
func (c *Controller) supersedeGeneration() Token {
	tok := c.tokens.next()
	c.generation.Pending = false
	return tok
}

// update applies fn to the stored draft and saves the result. Callers hold c.mu.
func (c *Controller) update(ctx context.Context, fn func(model.EventDraft) (model.EventDraft, error)) (model.EventDraft, error) {
	d, err := c.deps.Drafts.LoadOrInit(ctx, c.sessionID)
	if err != nil {
		return model.EventDraft{}, err
	}
	d, err = fn(d)
	if err != nil {
		return model.EventDraft{}, err
	}
	if err := c.deps.Drafts.Save(ctx, c.sessionID, d); err != nil {
		return model.EventDraft{}, err
	}
	return d, nil
}

func (c *Controller) setBackground(ctx context.Context, bg model.Background) (model.EventDraft, error) {
	return c.update(ctx, func(d model.EventDraft) (model.EventDraft, error) {
		return draft.SetField(d, model.FieldBackground, bg)
	})
}

func (c *Controller) notify(entity, action string, extra map[string]any) {
	if c.deps.Notifier == nil {
		return
	}
	c.deps.Notifier.Notify(c.sessionID, entity, action, extra)
}

func (c *Controller) idleSince(cutoff time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != StateSaving && c.lastActive.Before(cutoff)
}
