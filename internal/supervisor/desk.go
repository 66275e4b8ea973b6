// Package supervisor holds the senior physician's transient desk state:
// the legal report, the latest teaching summary and the generating flag.
package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"medflow-backend/internal/model"
	"medflow-backend/internal/record"
	"medflow-backend/internal/shell"
	"medflow-backend/internal/view"
)

// ErrReportInFlight is returned when a legal report is requested while one
// is still being generated.
var ErrReportInFlight = errors.New("legal report generation already in progress")

// Generator produces report text. It never fails; failures come back as
// fallback text.
type Generator interface {
	GenerateLegalReport(ctx context.Context, rec record.PatientRecord) string
	GenerateEducationalSummary(ctx context.Context, rec record.PatientRecord, lastActionLabel string) string
}

// Desk issues interventions through the shell and tracks report state.
type Desk struct {
	shell  *shell.Shell
	gen    Generator
	logger *slog.Logger

	// base is the parent context of background generation. It is cancelled
	// on shutdown only.
	base context.Context

	mu         sync.Mutex
	report     string
	summary    string
	generating bool

	wg sync.WaitGroup
}

// NewDesk creates a Desk. base bounds the lifetime of background
// generation requests.
func NewDesk(base context.Context, sh *shell.Shell, gen Generator, logger *slog.Logger) *Desk {
	if logger == nil {
		logger = slog.Default()
	}
	return &Desk{
		shell:  sh,
		gen:    gen,
		logger: logger.With("component", "supervisor"),
		base:   base,
	}
}

// IssueIntervention creates the palette action synchronously, then asks for
// a teaching summary in the background. Whichever summary resolves last is
// kept.
func (d *Desk) IssueIntervention(ctx context.Context, key string) (model.Action, error) {
	in, err := view.LookupIntervention(key)
	if err != nil {
		return model.Action{}, err
	}
	a := d.shell.AddAction(ctx, in.Label, in.Type)
	rec := d.shell.Record()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		summary := d.gen.GenerateEducationalSummary(d.base, rec, in.Label)

		d.mu.Lock()
		d.summary = summary
		d.mu.Unlock()

		d.shell.Publish(d.base, model.JournalTeachingBrief, map[string]any{
			"action_id": a.ID,
			"label":     in.Label,
			"text":      summary,
		})
	}()
	return a, nil
}

// AddRemark appends a senior-authored remark.
func (d *Desk) AddRemark(ctx context.Context, text string) (model.Remark, bool) {
	return d.shell.AddRemark(ctx, text, model.AuthorSenior)
}

// RequestLegalReport starts legal report generation over the current
// record. The generating flag stays set until the request resolves.
func (d *Desk) RequestLegalReport(ctx context.Context) error {
	d.mu.Lock()
	if d.generating {
		d.mu.Unlock()
		return ErrReportInFlight
	}
	d.generating = true
	d.mu.Unlock()

	rec := d.shell.Record()
	d.logger.InfoContext(ctx, "legal report requested", "record_id", rec.ID, "vitals", len(rec.Vitals), "remarks", len(rec.Remarks), "actions", len(rec.Actions))

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		text := d.gen.GenerateLegalReport(d.base, rec)

		d.mu.Lock()
		d.report = text
		d.generating = false
		d.mu.Unlock()

		d.shell.Publish(d.base, model.JournalLegalReport, map[string]any{"text": text})
	}()
	return nil
}

// Snapshot returns the desk state.
func (d *Desk) Snapshot() view.DeskState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return view.DeskState{Report: d.report, Summary: d.summary, Generating: d.generating}
}

// Wait blocks until background generation has finished and its events
// have reached the shell's observers.
func (d *Desk) Wait() {
	d.wg.Wait()
	d.shell.Sync()
}
