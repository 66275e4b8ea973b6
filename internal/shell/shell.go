// Package shell owns the session state: the patient record, the alert slot
// and the active role. Views never touch the record directly; they send
// intents through the Shell, which applies them one at a time.
package shell

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"medflow-backend/internal/alert"
	"medflow-backend/internal/model"
	"medflow-backend/internal/record"
)

// Event describes one applied state change.
type Event struct {
	Kind     model.JournalKind
	RecordID string
	At       time.Time
	Payload  any
}

// Observer is notified after each applied state change, in application
// order, from a single dispatcher goroutine. Observers must not call back
// into the Shell.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, ev Event) { f(ctx, ev) }

// AlertRaised is the payload of an alert event.
type AlertRaised struct {
	Message string             `json:"message"`
	Reading model.VitalReading `json:"reading"`
}

// Snapshot is a consistent view of the session state.
type Snapshot struct {
	Record record.PatientRecord `json:"patient"`
	Alert  *string              `json:"alert"`
	Role   model.Role           `json:"role"`
	// Overlay is set when the urgent notification must be shown: an alert
	// is active and the senior role is in front.
	Overlay bool `json:"overlay"`
}

// Shell is the single writer of the record.
type Shell struct {
	mu    sync.Mutex
	rec   record.PatientRecord
	alert alert.State
	role  model.Role

	// Events are queued under mu and delivered by dispatch. qmu is only
	// ever taken after mu, and never while an observer runs.
	qmu       sync.Mutex
	qcond     *sync.Cond
	queue     []queued
	observers []Observer
	enqueued  uint64
	delivered uint64
	closed    bool
	done      chan struct{}

	seniorIdentity string
	now            func() time.Time
	newID          func() string
	logger         *slog.Logger
}

type queued struct {
	ctx context.Context
	ev  Event
}

// Option customises a Shell.
type Option func(*Shell)

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Shell) { s.now = now }
}

// WithIDs injects the id generator.
func WithIDs(newID func() string) Option {
	return func(s *Shell) { s.newID = newID }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Shell) { s.logger = l }
}

// WithObservers registers observers.
func WithObservers(obs ...Observer) Option {
	return func(s *Shell) { s.observers = append(s.observers, obs...) }
}

// New creates a Shell around the initial record. The resident role is
// active at start and no alert is raised.
func New(rec record.PatientRecord, seniorIdentity string, opts ...Option) *Shell {
	s := &Shell{
		rec:            rec,
		role:           model.RoleJunior,
		seniorIdentity: seniorIdentity,
		now:            time.Now,
		newID:          uuid.NewString,
		logger:         slog.Default(),
		done:           make(chan struct{}),
	}
	s.qcond = sync.NewCond(&s.qmu)
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "shell")
	go s.dispatch()
	return s
}

// AddObserver registers an observer after construction.
func (s *Shell) AddObserver(o Observer) {
	s.qmu.Lock()
	s.observers = append(s.observers, o)
	s.qmu.Unlock()
}

// Sync blocks until every event released so far has been delivered.
func (s *Shell) Sync() {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	target := s.enqueued
	for s.delivered < target {
		s.qcond.Wait()
	}
}

// Close delivers the queued events and stops the dispatcher. Events
// released afterwards are dropped.
func (s *Shell) Close() {
	s.qmu.Lock()
	s.closed = true
	s.qcond.Broadcast()
	s.qmu.Unlock()
	<-s.done
}

// Snapshot returns the current state. The returned record is never mutated
// by later intents.
func (s *Shell) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Shell) snapshotLocked() Snapshot {
	return Snapshot{
		Record:  s.rec,
		Alert:   s.alert.Ptr(),
		Role:    s.role,
		Overlay: s.alert.Active() && s.role == model.RoleSenior,
	}
}

// Record returns the current record.
func (s *Shell) Record() record.PatientRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec
}

// Role returns the active role.
func (s *Shell) Role() model.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// SeniorIdentity is the author string stamped on every action.
func (s *Shell) SeniorIdentity() string { return s.seniorIdentity }

// SetRole switches the active role. Unknown roles are ignored.
func (s *Shell) SetRole(ctx context.Context, role model.Role) bool {
	if !role.Valid() {
		return false
	}
	s.mu.Lock()
	if s.role == role {
		s.mu.Unlock()
		return true
	}
	s.role = role
	events := []Event{s.event(model.JournalRoleSwitch, map[string]any{"role": role})}
	s.release(ctx, events)
	return true
}

// AppendVital appends a reading and re-evaluates the alert. A zero
// timestamp is stamped with the current time.
func (s *Shell) AppendVital(ctx context.Context, v model.VitalReading) model.VitalReading {
	s.mu.Lock()
	if v.Timestamp.IsZero() {
		v.Timestamp = s.now()
	}
	s.rec = s.rec.AppendVital(v)

	events := []Event{s.event(model.JournalVital, v)}
	var raised bool
	s.alert, raised = s.alert.Observe(s.rec.Name, v)
	if raised {
		s.logger.Warn("critical vitals", "record_id", s.rec.ID, "heart_rate", v.HeartRate, "spo2", v.SpO2)
		events = append(events, s.event(model.JournalAlert, AlertRaised{Message: s.alert.Message(), Reading: v}))
	}
	s.release(ctx, events)
	return v
}

// AddRemark appends a remark. Blank text is ignored.
func (s *Shell) AddRemark(ctx context.Context, text string, author model.RemarkAuthor) (model.Remark, bool) {
	s.mu.Lock()
	next, ok := s.rec.AppendRemark(text, author, s.newID(), s.now())
	if !ok {
		s.mu.Unlock()
		return model.Remark{}, false
	}
	s.rec = next
	rm := next.Remarks[len(next.Remarks)-1]
	s.release(ctx, []Event{s.event(model.JournalRemark, rm)})
	return rm, true
}

// AddAction appends a pending action authored by the senior identity and
// clears any active alert.
func (s *Shell) AddAction(ctx context.Context, label string, typ model.ActionType) model.Action {
	s.mu.Lock()
	var a model.Action
	s.rec, a = s.rec.AppendAction(label, typ, s.seniorIdentity, s.newID(), s.now())

	events := []Event{s.event(model.JournalAction, a)}
	var cleared bool
	s.alert, cleared = s.alert.Clear()
	if cleared {
		events = append(events, s.event(model.JournalAlertCleared, map[string]any{"reason": "action", "action_id": a.ID}))
	}
	s.release(ctx, events)
	return a
}

// ToggleAction flips an action between pending and done. Unknown ids are
// ignored.
func (s *Shell) ToggleAction(ctx context.Context, id string) (model.Action, bool) {
	s.mu.Lock()
	next, ok := s.rec.ToggleActionStatus(id)
	if !ok {
		s.mu.Unlock()
		return model.Action{}, false
	}
	s.rec = next
	a, _ := next.ActionByID(id)
	s.release(ctx, []Event{s.event(model.JournalActionStatus, map[string]any{"action_id": a.ID, "status": a.Status})})
	return a, true
}

// DismissAlert clears the alert on explicit user request.
func (s *Shell) DismissAlert(ctx context.Context) bool {
	s.mu.Lock()
	var cleared bool
	s.alert, cleared = s.alert.Clear()
	if !cleared {
		s.mu.Unlock()
		return false
	}
	s.release(ctx, []Event{s.event(model.JournalAlertCleared, map[string]any{"reason": "dismissed"})})
	return true
}

// Publish forwards an event that did not change the record, such as a
// generated report, to the observers.
func (s *Shell) Publish(ctx context.Context, kind model.JournalKind, payload any) {
	s.mu.Lock()
	s.release(ctx, []Event{s.event(kind, payload)})
}

func (s *Shell) event(kind model.JournalKind, payload any) Event {
	return Event{Kind: kind, RecordID: s.rec.ID, At: s.now(), Payload: payload}
}

// release must be called with mu held. It queues the events in
// application order and unlocks mu without waiting for delivery.
func (s *Shell) release(ctx context.Context, events []Event) {
	defer s.mu.Unlock()
	ctx = context.WithoutCancel(ctx)

	s.qmu.Lock()
	defer s.qmu.Unlock()
	if s.closed {
		s.logger.Warn("shell closed, dropping events", "count", len(events))
		return
	}
	for _, ev := range events {
		s.queue = append(s.queue, queued{ctx: ctx, ev: ev})
	}
	s.enqueued += uint64(len(events))
	s.qcond.Broadcast()
}

func (s *Shell) dispatch() {
	defer close(s.done)
	for {
		s.qmu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.qcond.Wait()
		}
		if len(s.queue) == 0 {
			s.qmu.Unlock()
			return
		}
		batch := s.queue
		s.queue = nil
		observers := slices.Clone(s.observers)
		s.qmu.Unlock()

		for _, q := range batch {
			for _, o := range observers {
				o.Observe(q.ctx, q.ev)
			}
		}

		s.qmu.Lock()
		s.delivered += uint64(len(batch))
		s.qcond.Broadcast()
		s.qmu.Unlock()
	}
}
