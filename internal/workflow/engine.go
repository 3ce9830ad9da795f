// Package workflow decides, for a person and a day, which attendance prompt to
// show and applies the button presses that answer it.
package workflow

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/lobatera/asistencia/internal/calendar"
	"github.com/lobatera/asistencia/internal/lock"
	"github.com/lobatera/asistencia/internal/models"
	"github.com/lobatera/asistencia/internal/render"
)

// PersonFinder is the record lookup.
type PersonFinder interface {
	FindPerson(ctx context.Context, cedula string) (*models.Person, error)
}

// EventResolver finds the convocatoria for a day.
type EventResolver interface {
	ActiveEventFor(ctx context.Context, day time.Time) (*models.Event, error)
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
}

// ConfirmationLedger stores yes/no intents.
type ConfirmationLedger interface {
	GetConfirmation(ctx context.Context, cedula string, eventID int64) (*models.Confirmation, error)
	RecordConfirmation(ctx context.Context, c *models.Confirmation) error
}

// AttendanceLedger stores attendance records.
type AttendanceLedger interface {
	FindAttendance(ctx context.Context, key models.AttendanceKey) (*models.AttendanceRecord, error)
	RecordAttendance(ctx context.Context, rec *models.AttendanceRecord) error
}

// Locker serializes writes for one person.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// Metrics receives turn and intent outcomes.
type Metrics interface {
	ObserveState(state string)
	ObserveIntent(kind, outcome string)
	StoreFailure(op string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveState(string)          {}
func (nopMetrics) ObserveIntent(string, string) {}
func (nopMetrics) StoreFailure(string)          {}

// Outcome is the result of applying an intent.
type Outcome string

const (
	OutcomeConfirmed         Outcome = "confirmed"
	OutcomeDeclined          Outcome = "declined"
	OutcomeAlreadyConfirmed  Outcome = "already_confirmed"
	OutcomeRecorded          Outcome = "recorded"
	OutcomeAlreadyRegistered Outcome = "already_registered"
	OutcomeNotAttendanceDay  Outcome = "not_attendance_day"
	OutcomeEventNotFound     Outcome = "event_not_found"
	OutcomePersonNotFound    Outcome = "person_not_found"
	OutcomeNoneToday         Outcome = "none_today"
	OutcomeViewed            Outcome = "viewed"
	OutcomeInvalid           Outcome = "invalid"
	OutcomeFailed            Outcome = "failed"
)

// Option is one selectable button.
type Option struct {
	Label  string
	Intent Intent
}

// Message is one outbound chat message. Options are laid out as rows.
type Message struct {
	Text     string
	Markdown bool
	Options  [][]Option
}

// Turn is the engine's answer to one inbound update.
type Turn struct {
	State    State
	Outcome  Outcome
	Messages []Message
}

// Deps are the collaborators of the engine.
type Deps struct {
	Registry      PersonFinder
	Events        EventResolver
	Confirmations ConfirmationLedger
	Attendance    AttendanceLedger
	Locker        Locker
	Clock         *calendar.Clock
	Scope         models.AttendanceScope
	StoreTimeout  time.Duration
	Logger        *zap.Logger
	Metrics       Metrics
}

// Engine is the attendance workflow. It keeps no per-user state.
type Engine struct {
	Deps
}

// NewEngine creates an engine, filling optional dependencies with defaults.
func NewEngine(d Deps) *Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = nopMetrics{}
	}
	if d.Locker == nil {
		d.Locker = lock.NewLocalLocker()
	}
	if d.Clock == nil {
		d.Clock = calendar.NewClock(nil)
	}
	if d.StoreTimeout <= 0 {
		d.StoreTimeout = 5 * time.Second
	}
	if d.Scope == "" {
		d.Scope = models.ScopeDay
	}
	return &Engine{Deps: d}
}

func (e *Engine) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.StoreTimeout)
}

// HandleText processes a typed identifier and returns the record card followed by the prompt.
func (e *Engine) HandleText(ctx context.Context, text string) Turn {
	turn := e.handleText(ctx, text)
	e.Metrics.ObserveState(turn.State.String())
	return turn
}

func (e *Engine) handleText(ctx context.Context, text string) Turn {
	cedula, err := models.ParseCedula(text)
	if err != nil {
		return Turn{State: StateAwaitingValidID, Messages: []Message{{Text: render.InvalidCedula}}}
	}
	log := e.Logger.With(zap.String("cedula", cedula))

	person, err := e.findPerson(ctx, cedula)
	if errors.Is(err, models.ErrPersonNotFound) {
		return Turn{State: StatePersonNotFound, Messages: []Message{{Text: render.PersonNotFound}}}
	}
	if err != nil {
		e.storeFailure(log, "find_person", err)
		return Turn{State: StateFailed, Outcome: OutcomeFailed, Messages: []Message{{Text: render.StoreFailure}}}
	}

	today := e.Clock.Today()
	card := Message{Text: render.Card(person, today)}

	snap, err := e.snapshot(ctx, cedula, today)
	if err != nil {
		e.storeFailure(log, "snapshot", err)
		return Turn{State: StateFailed, Outcome: OutcomeFailed, Messages: []Message{card, {Text: render.StoreFailure}}}
	}

	state := Select(snap)
	log.Debug("state selected", zap.Stringer("state", state))
	return Turn{State: state, Messages: []Message{card, prompt(state, snap, cedula)}}
}

// snapshot resolves the active event once and reads the ledgers for it.
func (e *Engine) snapshot(ctx context.Context, cedula string, today time.Time) (Snapshot, error) {
	snap := Snapshot{Today: today}

	cctx, cancel := e.bounded(ctx)
	ev, err := e.Events.ActiveEventFor(cctx, today)
	cancel()
	if err != nil {
		return snap, err
	}
	snap.Event = ev

	var eventID *int64
	if ev != nil {
		eventID = &ev.ID
	}
	cctx, cancel = e.bounded(ctx)
	snap.Attendance, err = e.Attendance.FindAttendance(cctx, models.AttendanceKey{
		Cedula: cedula, Day: today, ScopeKey: e.Scope.ScopeKey(eventID),
	})
	cancel()
	if err != nil || snap.Attendance != nil || ev == nil {
		return snap, err
	}

	cctx, cancel = e.bounded(ctx)
	snap.Confirmation, err = e.Confirmations.GetConfirmation(cctx, cedula, ev.ID)
	cancel()
	return snap, err
}

func prompt(state State, s Snapshot, cedula string) Message {
	switch state {
	case StateNoActiveEvent:
		return Message{Text: render.NoActiveEvent, Options: reasonMenu(cedula)}
	case StateAlreadyAttended:
		text := render.AlreadyAttendedReason(s.Attendance.Reason)
		if s.Event != nil && s.Attendance.EventID != nil && *s.Attendance.EventID == s.Event.ID {
			text = render.AlreadyAttendedEvent(s.Event.Title)
		}
		return Message{Text: text, Markdown: true, Options: [][]Option{{viewOnlyOption(cedula)}}}
	case StateConfirmedNotYetAttended:
		if isAttendanceDay(s.Today, s.Event) {
			return Message{Text: render.RegisterNowPrompt, Options: [][]Option{
				{{Label: render.ButtonRegisterNow, Intent: MarkAttendance(s.Event.ID, cedula)}},
				{viewOnlyOption(cedula)},
			}}
		}
		return Message{
			Text:     render.ComeBackOn(s.Event.Title, s.Event.AttendanceDate) + "\n\n" + render.Meanwhile,
			Markdown: true,
			Options:  alternativesMenu(cedula),
		}
	case StateConfirmedDeclined:
		return Message{
			Text:     render.Declined(s.Event.Title) + "\n\n" + render.OtherActivity,
			Markdown: true,
			Options:  alternativesMenu(cedula),
		}
	case StateAwaitingConfirmation:
		return Message{Text: render.ConfirmationPrompt(s.Event.Title), Markdown: true, Options: [][]Option{{
			{Label: render.ButtonYes, Intent: Confirm(s.Event.ID, cedula, true)},
			{Label: render.ButtonNo, Intent: Confirm(s.Event.ID, cedula, false)},
		}}}
	default:
		return Message{Text: render.WindowClosed(s.Event.ConfirmationOpenDate, s.Event.AttendanceDate), Markdown: true}
	}
}

// reasonMenu lists every reason, "none" included, one per row.
func reasonMenu(cedula string) [][]Option {
	rows := make([][]Option, 0, len(models.Reasons))
	for _, r := range models.Reasons {
		rows = append(rows, []Option{{Label: r.Button, Intent: SelectReason(r.Code, cedula)}})
	}
	return rows
}

// alternativesMenu offers view-only followed by the recordable reasons.
func alternativesMenu(cedula string) [][]Option {
	rows := [][]Option{{viewOnlyOption(cedula)}}
	for _, r := range models.RecordableReasons() {
		rows = append(rows, []Option{{Label: r.Button, Intent: SelectReason(r.Code, cedula)}})
	}
	return rows
}

func viewOnlyOption(cedula string) Option {
	return Option{Label: render.ButtonViewOnly, Intent: ViewOnly(cedula)}
}

// HandleIntent applies a decoded button press.
func (e *Engine) HandleIntent(ctx context.Context, in Intent) Turn {
	turn := e.handleIntent(ctx, in)
	e.Metrics.ObserveIntent(in.Kind.String(), string(turn.Outcome))
	return turn
}

func (e *Engine) handleIntent(ctx context.Context, in Intent) Turn {
	if err := in.Validate(); err != nil {
		return reply(OutcomeInvalid, render.InvalidOption, false)
	}
	log := e.Logger.With(zap.String("cedula", in.Cedula), zap.Stringer("intent", in.Kind))

	switch in.Kind {
	case KindConfirm:
		return e.confirm(ctx, log, in)
	case KindMarkAttendance:
		return e.markAttendance(ctx, log, in)
	case KindSelectReason:
		return e.selectReason(ctx, log, in)
	default:
		return e.viewOnly(ctx, log, in)
	}
}

func (e *Engine) confirm(ctx context.Context, log *zap.Logger, in Intent) Turn {
	log = log.With(zap.Int64("event_id", in.EventID))
	if _, err := e.getEvent(ctx, in.EventID); err != nil {
		if errors.Is(err, models.ErrEventNotFound) {
			return reply(OutcomeEventNotFound, render.EventNotFound, false)
		}
		e.storeFailure(log, "get_event", err)
		return reply(OutcomeFailed, render.SaveFailure, false)
	}

	err := e.locked(ctx, in.Cedula, func(ctx context.Context) error {
		cctx, cancel := e.bounded(ctx)
		defer cancel()
		return e.Confirmations.RecordConfirmation(cctx, &models.Confirmation{
			Cedula:      in.Cedula,
			EventID:     in.EventID,
			WillAttend:  in.WillAttend,
			ConfirmedAt: e.Clock.Now(),
		})
	})
	switch {
	case errors.Is(err, models.ErrAlreadyConfirmed):
		return reply(OutcomeAlreadyConfirmed, render.AlreadyConfirmed, false)
	case err != nil:
		e.storeFailure(log, "record_confirmation", err)
		return reply(OutcomeFailed, render.SaveFailure, false)
	case in.WillAttend:
		log.Info("confirmation recorded", zap.Bool("will_attend", true))
		return reply(OutcomeConfirmed, render.ConfirmedYes, false)
	default:
		log.Info("confirmation recorded", zap.Bool("will_attend", false))
		return reply(OutcomeDeclined, render.ConfirmedNo, false)
	}
}

func (e *Engine) markAttendance(ctx context.Context, log *zap.Logger, in Intent) Turn {
	log = log.With(zap.Int64("event_id", in.EventID))
	ev, err := e.getEvent(ctx, in.EventID)
	if err != nil {
		if errors.Is(err, models.ErrEventNotFound) {
			return reply(OutcomeEventNotFound, render.EventNotFound, false)
		}
		e.storeFailure(log, "get_event", err)
		return reply(OutcomeFailed, render.SaveFailure, false)
	}
	today := e.Clock.Today()
	if !isAttendanceDay(today, ev) {
		return reply(OutcomeNotAttendanceDay, render.OnlyOnAttendanceDay(ev.AttendanceDate), true)
	}

	rec := &models.AttendanceRecord{
		Cedula:       in.Cedula,
		Day:          today,
		Reason:       models.AttendanceReasonEvent,
		EventID:      &ev.ID,
		ScopeKey:     e.Scope.ScopeKey(&ev.ID),
		RegisteredAt: e.Clock.Now(),
	}
	err = e.record(ctx, rec)
	switch {
	case errors.Is(err, models.ErrAlreadyRegistered):
		return reply(OutcomeAlreadyRegistered, render.AlreadyAttendedDay, false)
	case err != nil:
		e.storeFailure(log, "record_attendance", err)
		return reply(OutcomeFailed, render.SaveFailure, false)
	}
	log.Info("attendance recorded", zap.Int64("attendance_id", rec.ID))
	return reply(OutcomeRecorded, render.AttendanceSaved, false)
}

func (e *Engine) selectReason(ctx context.Context, log *zap.Logger, in Intent) Turn {
	reason, _ := models.LookupReason(in.Reason)
	if reason.Code == models.ReasonNone {
		return reply(OutcomeNoneToday, render.NoneToday, false)
	}

	rec := &models.AttendanceRecord{
		Cedula:       in.Cedula,
		Day:          e.Clock.Today(),
		Reason:       reason.Label,
		ScopeKey:     e.Scope.ScopeKey(nil),
		RegisteredAt: e.Clock.Now(),
	}
	err := e.record(ctx, rec)
	switch {
	case errors.Is(err, models.ErrAlreadyRegistered):
		existing := rec.Reason
		if rec.ID == 0 {
			// Lost the insert race; the winner's record was not copied back.
			cctx, cancel := e.bounded(ctx)
			if found, ferr := e.Attendance.FindAttendance(cctx, rec.Key()); ferr == nil && found != nil {
				existing = found.Reason
			}
			cancel()
		}
		return reply(OutcomeAlreadyRegistered, render.AlreadyAttendedReason(existing), true)
	case err != nil:
		e.storeFailure(log, "record_attendance", err)
		return reply(OutcomeFailed, render.SaveFailure, false)
	}
	log.Info("reason recorded", zap.String("reason", string(reason.Code)), zap.Int64("attendance_id", rec.ID))
	return reply(OutcomeRecorded, render.ReasonSaved(reason.Label), true)
}

func (e *Engine) viewOnly(ctx context.Context, log *zap.Logger, in Intent) Turn {
	person, err := e.findPerson(ctx, in.Cedula)
	if errors.Is(err, models.ErrPersonNotFound) {
		return reply(OutcomePersonNotFound, render.PersonNotFound, false)
	}
	if err != nil {
		e.storeFailure(log, "find_person", err)
		return reply(OutcomeFailed, render.StoreFailure, false)
	}
	return reply(OutcomeViewed, render.ViewOnly(render.Card(person, e.Clock.Today())), false)
}

// record writes an attendance record while holding the person's lock.
func (e *Engine) record(ctx context.Context, rec *models.AttendanceRecord) error {
	return e.locked(ctx, rec.Cedula, func(ctx context.Context) error {
		cctx, cancel := e.bounded(ctx)
		defer cancel()
		return e.Attendance.RecordAttendance(cctx, rec)
	})
}

func (e *Engine) locked(ctx context.Context, cedula string, fn func(context.Context) error) error {
	lctx, cancel := e.bounded(ctx)
	unlock, err := e.Locker.Lock(lctx, lock.Key(cedula))
	cancel()
	if err != nil {
		return err
	}
	defer unlock()
	return fn(ctx)
}

func (e *Engine) findPerson(ctx context.Context, cedula string) (*models.Person, error) {
	cctx, cancel := e.bounded(ctx)
	defer cancel()
	return e.Registry.FindPerson(cctx, cedula)
}

func (e *Engine) getEvent(ctx context.Context, id int64) (*models.Event, error) {
	cctx, cancel := e.bounded(ctx)
	defer cancel()
	return e.Events.GetEvent(cctx, id)
}

func (e *Engine) storeFailure(log *zap.Logger, op string, err error) {
	log.Error("store call failed", zap.String("op", op), zap.Error(err))
	e.Metrics.StoreFailure(op)
}

func reply(outcome Outcome, text string, markdown bool) Turn {
	return Turn{Outcome: outcome, Messages: []Message{{Text: text, Markdown: markdown}}}
}
