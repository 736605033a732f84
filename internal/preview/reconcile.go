// Package preview merges a live draft and/or a persisted event into the one
// RenderModel both preview screens display.
package preview

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/invibe/internal/model"
)

// UntitledEvent is shown when neither source has a title.
const UntitledEvent = "Untitled Event"

const (
	isoDate     = "2006-01-02"
	displayDate = "Jan 2, 2006"
)

// StyleResolver maps a background descriptor to a paintable style.
type StyleResolver interface {
	Style(model.Background) string
}

// Forecaster looks up the weather for an ISO event date.
type Forecaster interface {
	Forecast(ctx context.Context, date string) (model.Weather, error)
}

// Reconciler builds RenderModels. It holds no state besides the style
// resolver, so Reconcile is a pure function of its inputs.
type Reconciler struct {
	styles          StyleResolver
	defaultTemplate string
	forecaster      Forecaster
	logger          *slog.Logger
}

func NewReconciler(styles StyleResolver, defaultTemplate string) *Reconciler {
	if defaultTemplate == "" {
		defaultTemplate = model.DefaultTemplateID
	}
	return &Reconciler{styles: styles, defaultTemplate: defaultTemplate}
}

// WithForecaster attaches a weather source. Without one, Weather always
// returns the placeholder.
func (r *Reconciler) WithForecaster(f Forecaster, logger *slog.Logger) *Reconciler {
	r.forecaster = f
	r.logger = logger
	return r
}

// Weather returns the forecast for date, or the placeholder when there is no
// forecaster, no date, or the lookup fails.
func (r *Reconciler) Weather(ctx context.Context, date string) model.Weather {
	if r.forecaster == nil || date == "" {
		return model.PlaceholderWeather()
	}
	w, err := r.forecaster.Forecast(ctx, date)
	if err != nil {
		if r.logger != nil {
			r.logger.Debug("no forecast", "date", date, "error", err)
		}
		return model.PlaceholderWeather()
	}
	return w
}

// EventDate is the ISO date a RenderModel for d and p describes.
func EventDate(d *model.EventDraft, p *model.PersistedEvent) string {
	var draftDate, persistedDate string
	if d != nil {
		draftDate = d.Date
	}
	if p != nil {
		persistedDate = p.Date
	}
	return firstNonEmpty(draftDate, persistedDate)
}

// Reconcile prefers non-empty draft values, then persisted values, then
// defaults. Passing two nils is the loading state and returns
// model.ErrNothingToRender.
func (r *Reconciler) Reconcile(d *model.EventDraft, p *model.PersistedEvent) (model.RenderModel, error) {
	if d == nil && p == nil {
		return model.RenderModel{}, model.ErrNothingToRender
	}

	var draft model.EventDraft
	if d != nil {
		draft = *d
	}
	var persisted model.PersistedEvent
	if p != nil {
		persisted = *p
	}

	bg := draft.Background
	if bg.IsZero() {
		bg = persisted.Background
	}
	if bg.IsZero() {
		bg = model.TemplateBackground(r.defaultTemplate)
	}

	rm := model.RenderModel{
		Title:           firstNonEmpty(draft.Title, persisted.Title, UntitledEvent),
		FormattedDate:   FormatDate(firstNonEmpty(draft.Date, persisted.Date)),
		Time:            firstNonEmpty(draft.Time, persisted.Time),
		Location:        firstNonEmpty(draft.Location, persisted.Location),
		Description:     firstNonEmpty(draft.Description, persisted.Description),
		Background:      bg,
		BackgroundStyle: r.styles.Style(bg),
		Source:          model.SourceDraft,
	}

	if p != nil {
		if d == nil {
			rm.Source = model.SourceEvent
		}
		rm.EventID = persisted.ID
		host := persisted.Host
		rm.Host = &host
		summary := model.SummarizeGuests(persisted.Guests)
		rm.GuestSummary = &summary
	}
	return rm, nil
}

// FormatDate renders an ISO calendar date as "Jun 15, 2024". Any other
// non-empty value is taken to be already formatted and returned unchanged.
func FormatDate(s string) string {
	if s == "" {
		return ""
	}
	t, err := time.Parse(isoDate, s)
	if err != nil {
		return s
	}
	return t.Format(displayDate)
}

// ParseDate reports whether s is a valid ISO calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(isoDate, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD", s)
	}
	return t, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
