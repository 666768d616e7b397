// Package flow implements the Meal Mate conversation: onboarding, profile edits,
// the calorie log, the meal-plan wizard and food photo analysis.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BTreeMap/MealMate/internal/genai"
	"github.com/BTreeMap/MealMate/internal/imageutil"
	"github.com/BTreeMap/MealMate/internal/messaging"
	"github.com/BTreeMap/MealMate/internal/models"
	"github.com/BTreeMap/MealMate/internal/store"
)

// PhotoArchiver keeps a copy of analyzed food photos.
type PhotoArchiver interface {
	Archive(ctx context.Context, userID string, day time.Time, jpeg []byte) (string, error)
}

// Opts holds optional router configuration.
type Opts struct {
	Clock         func() time.Time
	Location      *time.Location
	MaxImageBytes int
	Archiver      PhotoArchiver
}

// Option configures the router.
type Option func(*Opts)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Opts) { o.Clock = now }
}

// WithLocation sets the zone that decides where a tracking day begins.
func WithLocation(loc *time.Location) Option {
	return func(o *Opts) { o.Location = loc }
}

// WithMaxImageBytes sets the JPEG size ceiling for photo analysis.
func WithMaxImageBytes(n int) Option {
	return func(o *Opts) { o.MaxImageBytes = n }
}

// WithPhotoArchiver stores each analyzed photo.
func WithPhotoArchiver(a PhotoArchiver) Option {
	return func(o *Opts) { o.Archiver = a }
}

// Router dispatches inbound events to the conversation state machines.
type Router struct {
	users    *store.UserStore
	msg      messaging.Service
	gen      genai.ClientInterface
	clock    func() time.Time
	loc      *time.Location
	maxImage int
	archiver PhotoArchiver
}

// NewRouter creates a router. gen may be nil, in which case generation requests
// are answered with the fallback text.
func NewRouter(users *store.UserStore, msg messaging.Service, gen genai.ClientInterface, opts ...Option) *Router {
	cfg := Opts{Clock: time.Now, Location: time.Local, MaxImageBytes: imageutil.DefaultMaxBytes}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Router{
		users:    users,
		msg:      msg,
		gen:      gen,
		clock:    cfg.Clock,
		loc:      cfg.Location,
		maxImage: cfg.MaxImageBytes,
		archiver: cfg.Archiver,
	}
}

// now returns the current time in the tracking zone.
func (r *Router) now() time.Time {
	return r.clock().In(r.loc)
}

// generation is a model call performed after the user lock is released.
type generation struct {
	system   string
	prompt   string
	ack      string
	fallback string
}

// outcome is what a handler decided while holding the user lock.
type outcome struct {
	replies  []models.Message
	generate *generation
}

func reply(msgs ...models.Message) outcome {
	return outcome{replies: msgs}
}

func replyText(text string) outcome {
	return reply(models.TextMessage(text))
}

// HandleEvent processes one inbound event. Mutations happen under the user's
// lock; delivery and model calls happen after it is released. A panic inside a
// handler is converted into the generic fallback reply.
func (r *Router) HandleEvent(ctx context.Context, ev models.Event) (err error) {
	if err := ev.Validate(); err != nil {
		slog.Warn("Router.HandleEvent: invalid event", "error", err, "kind", ev.Kind)
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			slog.Error("Router.HandleEvent: handler panicked", "panic", p, "user", ev.UserID, "kind", ev.Kind)
			r.deliver(ctx, ev, replyText(TextUnsupported))
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()

	slog.Debug("Router.HandleEvent: dispatching", "user", ev.UserID, "kind", ev.Kind, "event_id", ev.ID)
	if ev.Kind == models.EventImage {
		return r.handleImage(ctx, ev)
	}

	var out outcome
	if err := r.users.WithUser(ctx, ev.UserID, func(st *models.UserState) error {
		out = r.decide(st, ev)
		return nil
	}); err != nil {
		slog.Error("Router.HandleEvent: failed to acquire user state", "error", err, "user", ev.UserID)
		return err
	}
	return r.deliver(ctx, ev, out)
}

// decide applies the event to the user's state and returns the response to send.
func (r *Router) decide(st *models.UserState, ev models.Event) outcome {
	switch ev.Kind {
	case models.EventFollow:
		return r.onFollow(st, ev.UserID)
	case models.EventPostback:
		if st.Profile == nil {
			return r.firstContact(st, ev.UserID)
		}
		return r.onPostback(st, ev.Action)
	case models.EventText:
		return r.onText(st, ev.UserID, strings.TrimSpace(ev.Text))
	}
	return outcome{}
}

func (r *Router) onFollow(st *models.UserState, userID string) outcome {
	if st.Profile == nil {
		return r.firstContact(st, userID)
	}
	if st.Profile.Ready() {
		return replyText(TextWelcomeBack)
	}
	return r.currentSetupPrompt(st)
}

func (r *Router) onText(st *models.UserState, userID, text string) outcome {
	if st.Echo.Consume(text) {
		slog.Debug("Router.onText: suppressed selection echo", "user", userID, "text", text)
		return outcome{}
	}
	if st.Profile == nil {
		return r.firstContact(st, userID)
	}
	if !st.Profile.Ready() {
		return r.setupText(st, text)
	}
	if st.Plan != nil && st.Plan.Stage.AcceptsText() {
		return r.planText(st, text)
	}
	return r.command(st, text)
}

func (r *Router) onPostback(st *models.UserState, a models.Action) outcome {
	switch a.Kind {
	case models.ActionSetupGoal, models.ActionSetupGender, models.ActionSetupActivity:
		return r.setupSelection(st, a)
	case models.ActionEditGoal, models.ActionEditActivity:
		return r.editSelection(st, a)
	case models.ActionPlanStart:
		return r.startPlan(st)
	case models.ActionPlanCancel:
		return r.cancelPlan(st)
	}
	if a.IsPlan() {
		return r.planSelection(st, a)
	}
	slog.Debug("Router.onPostback: ignoring unknown action", "user", st.Profile.ID)
	return outcome{}
}

// offer records the echo texts of a prompt before it is sent. Nothing is
// recorded when the transport does not echo selections.
func (r *Router) offer(st *models.UserState, group string, msg models.Message) models.Message {
	if r.msg.EchoesSelections() {
		st.Echo.Offer(group, msg.Echoes())
	}
	return msg
}

// deliver sends the replies for an event, or runs the deferred generation.
func (r *Router) deliver(ctx context.Context, ev models.Event, out outcome) error {
	if out.generate != nil {
		return r.runGeneration(ctx, ev, out.generate)
	}
	if len(out.replies) == 0 {
		return nil
	}
	if err := r.msg.Reply(ctx, ev.ReplyToken, out.replies...); err != nil {
		slog.Error("Router.deliver: reply failed", "error", err, "user", ev.UserID)
		return fmt.Errorf("failed to reply to %s: %w", ev.UserID, err)
	}
	return nil
}

// runGeneration pushes the acknowledgement, calls the model and replies with
// the result or the fallback text.
func (r *Router) runGeneration(ctx context.Context, ev models.Event, g *generation) error {
	if err := r.msg.Push(ctx, ev.UserID, models.TextMessage(g.ack)); err != nil {
		slog.Warn("Router.runGeneration: acknowledgement push failed", "error", err, "user", ev.UserID)
	}
	text := g.fallback
	if r.gen == nil {
		slog.Warn("Router.runGeneration: no generation client configured", "user", ev.UserID)
	} else if out, err := r.gen.GeneratePrompt(ctx, g.system, g.prompt); err != nil {
		slog.Error("Router.runGeneration: generation failed", "error", err, "user", ev.UserID)
	} else {
		text = out
	}
	if err := r.msg.Reply(ctx, ev.ReplyToken, models.TextMessage(text)); err != nil {
		slog.Error("Router.runGeneration: reply failed", "error", err, "user", ev.UserID)
		return fmt.Errorf("failed to reply to %s: %w", ev.UserID, err)
	}
	return nil
}

// RolloverAll resets every tracker whose day has passed. It returns the number
// of trackers reset.
func (r *Router) RolloverAll(ctx context.Context) (int, error) {
	now := r.now()
	reset := 0
	err := r.users.ForEachUser(ctx, func(id string, st *models.UserState) {
		if st.Profile.Ready() && st.Profile.Tracker.Rollover(now) {
			reset++
		}
	})
	if err != nil {
		return reset, fmt.Errorf("rollover sweep failed: %w", err)
	}
	slog.Info("Router.RolloverAll: daily trackers reset", "count", reset, "date", now.Format(models.TrackingDateLayout))
	return reset, nil
}
