package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/purifyx/crisp-chatbot/internal/ai"
	"github.com/purifyx/crisp-chatbot/internal/domain"
	"github.com/purifyx/crisp-chatbot/internal/fuzzy"
	"github.com/purifyx/crisp-chatbot/internal/notify"
	"github.com/purifyx/crisp-chatbot/internal/store"
)

const (
	defaultDedupeWindow = 10 * time.Second
	defaultAITimeout    = 20 * time.Second
	defaultReplyTimeout = 10 * time.Second

	// issueMinWords is the length at which a support request is taken to
	// describe the problem itself.
	issueMinWords = 6
)

// Engine owns the session table and runs one turn per inbound event.
// Turns of the same session are serialized; distinct sessions run in
// parallel.
type Engine struct {
	sessions store.SessionStore
	provider ai.Provider
	sink     notify.Sink
	replier  Replier

	recorder     Recorder
	observer     Observer
	fingerprints FingerprintFilter
	sessionLock  SessionLocker

	match        *matcher
	replies      Replies
	window       time.Duration
	aiTimeout    time.Duration
	replyTimeout time.Duration
	now          func() time.Time
	logger       *slog.Logger

	locks *keyedMutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithDedupeWindow sets how long an identical message is treated as a
// redelivery.
func WithDedupeWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.window = d
		}
	}
}

// WithAITimeout bounds each AI provider call.
func WithAITimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.aiTimeout = d
		}
	}
}

// WithReplyTimeout bounds each chat delivery.
func WithReplyTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.replyTimeout = d
		}
	}
}

// WithTriggers replaces the substrings that always start the support flow.
func WithTriggers(triggers []string) Option {
	return func(e *Engine) { e.match.triggers = triggers }
}

// WithScorers replaces the whole-string and partial similarity scorers.
func WithScorers(whole, partial fuzzy.Scorer) Option {
	return func(e *Engine) {
		if whole != nil {
			e.match.whole = whole
		}
		if partial != nil {
			e.match.partial = partial
		}
	}
}

// WithReplies replaces the canned replies.
func WithReplies(r Replies) Option {
	return func(e *Engine) { e.replies = r }
}

// WithRecorder records every processed message in a transcript.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithObserver reports every processed turn to o.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithFingerprints drops events whose delivery fingerprint was already seen.
func WithFingerprints(f FingerprintFilter) Option {
	return func(e *Engine) { e.fingerprints = f }
}

// WithSessionLocker adds a cross-process session lock, taken after the
// in-process one. Use it when several replicas share a session store.
func WithSessionLocker(l SessionLocker) Option {
	return func(e *Engine) { e.sessionLock = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine. A nil provider disables AI answers, so ordinary
// messages are escalated.
func New(sessions store.SessionStore, provider ai.Provider, sink notify.Sink, replier Replier, opts ...Option) *Engine {
	if provider == nil {
		provider = ai.Disabled{}
	}
	e := &Engine{
		sessions:     sessions,
		provider:     provider,
		sink:         sink,
		replier:      replier,
		match:        newMatcher(DefaultTriggers),
		replies:      DefaultReplies(""),
		window:       defaultDedupeWindow,
		aiTimeout:    defaultAITimeout,
		replyTimeout: defaultReplyTimeout,
		now:          time.Now,
		logger:       slog.Default(),
		locks:        newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "engine")
	return e
}

// outcome is the decision of one turn before side effects run.
type outcome struct {
	action Action
	reply  string
	note   string
	alert  *domain.Alert
}

// Handle processes one inbound event. It never fails because of a
// collaborator; only a malformed user message yields OK=false.
func (e *Engine) Handle(ctx context.Context, ev Event) Result {
	switch ev.Kind {
	case KindMessage:
		if ev.From != FromUser {
			return Result{OK: true, Action: ActionIgnore, Note: "Ignored"}
		}
	case KindSetEmail, KindVisit:
		return e.absorbEmail(ctx, ev)
	case KindRemoved:
		return e.clear(ctx, ev.SessionID)
	default:
		return Result{OK: true, Action: ActionIgnore, Note: "Ignored"}
	}

	if strings.TrimSpace(ev.SessionID) == "" || strings.TrimSpace(ev.Content) == "" {
		return Result{OK: false, Error: "missing session or message"}
	}

	if e.fingerprints != nil && e.fingerprints.Seen(ev.Fingerprint) {
		e.logger.Debug("duplicate delivery skipped", "session_id", ev.SessionID, "fingerprint", ev.Fingerprint)
		return Result{OK: true, Action: ActionDuplicate, Note: "Duplicate"}
	}

	unlock, err := e.lock(ctx, ev.SessionID)
	if err != nil {
		e.logger.Error("failed to lock session", "session_id", ev.SessionID, "error", err)
		return Result{OK: true, Action: ActionIgnore, Error: "session unavailable"}
	}
	defer unlock()

	// A turn runs to completion once it holds the session.
	ctx = context.WithoutCancel(ctx)

	sess, err := e.load(ctx, ev.SessionID)
	if err != nil {
		e.logger.Error("failed to load session", "session_id", ev.SessionID, "error", err)
		return Result{OK: true, Action: ActionIgnore, Error: "session unavailable"}
	}

	now := e.now()
	if sess.IsDuplicate(ev.Content, now, e.window) {
		e.logger.Info("duplicate message skipped", "session_id", ev.SessionID)
		return Result{OK: true, Action: ActionDuplicate, Note: "Duplicate"}
	}
	sess.LastMessage = domain.LastMessage{Text: ev.Content, At: now}

	if hint := strings.TrimSpace(ev.EmailHint); ValidEmail(hint) {
		sess.Email = hint
	}

	prev := sess.Status
	out := e.decide(ctx, sess, ev.Content)
	sess.UpdatedAt = now

	if err := e.sessions.Put(ctx, sess); err != nil {
		e.logger.Error("failed to save session", "session_id", sess.ID, "error", err)
	}

	e.logger.Info("turn processed",
		"session_id", sess.ID,
		"action", out.action,
		"from_status", prev,
		"to_status", sess.Status)

	if out.alert != nil {
		e.notify(ctx, *out.alert)
	}
	e.record(ctx, sess.ID, domain.DirectionInbound, out.action, ev.Content)
	if out.reply != "" {
		e.deliver(ctx, sess.ID, out.reply)
		e.record(ctx, sess.ID, domain.DirectionOutbound, out.action, out.reply)
	}
	e.observe(sess, out, now)

	return Result{OK: true, Action: out.action, Note: out.note, Reply: out.reply}
}

// decide applies intent precedence to a user message and mutates sess.
func (e *Engine) decide(ctx context.Context, sess *domain.Session, msg string) outcome {
	norm := fuzzy.Normalize(msg)

	if e.match.resume(norm) {
		if sess.Status == domain.StatusEscalated {
			sess.Status = domain.StatusAIActive
		}
		return outcome{action: ActionResume, reply: e.replies.Resume, note: "Resumed"}
	}

	if !sess.Pending() && e.match.greeting(norm) {
		return outcome{action: ActionGreeting, reply: e.replies.Welcome, note: "Greeting"}
	}

	if sess.Status == domain.StatusEscalated {
		return outcome{action: ActionAcknowledged, note: "Already escalated"}
	}

	if !sess.MidFlow() && e.match.support(norm) {
		return e.supportRequest(sess, msg)
	}

	switch sess.Status {
	case domain.StatusAwaitingIssue:
		return e.captureIssue(sess, msg)
	case domain.StatusAwaitingEmail:
		return e.captureEmail(sess, msg)
	}

	return e.askAI(ctx, sess, msg)
}

func (e *Engine) supportRequest(sess *domain.Session, msg string) outcome {
	email := ExtractEmail(msg)
	if email == "" && len(strings.Fields(msg)) < issueMinWords {
		sess.Status = domain.StatusAwaitingIssue
		return outcome{action: ActionAskIssue, reply: e.replies.AskIssue, note: "Waiting for issue"}
	}

	sess.Issue = msg
	if email != "" {
		sess.Email = email
	}
	if sess.Email != "" {
		return e.escalate(sess, domain.ReasonDetailsCollected, e.replies.Escalated)
	}
	sess.Status = domain.StatusAwaitingEmail
	return outcome{action: ActionAskEmail, reply: e.replies.AskEmail, note: "Waiting for email"}
}

func (e *Engine) captureIssue(sess *domain.Session, msg string) outcome {
	if trimmed := strings.TrimSpace(msg); ValidEmail(trimmed) {
		sess.Email = trimmed
		return outcome{action: ActionAskIssue, reply: e.replies.EmailNoted, note: "Email captured"}
	}

	if email := ExtractEmail(msg); email != "" {
		sess.Email = email
	}
	sess.Issue = msg
	if sess.Email != "" {
		return e.escalate(sess, domain.ReasonDetailsCollected, e.replies.Escalated)
	}
	sess.Status = domain.StatusAwaitingEmail
	return outcome{action: ActionAskEmail, reply: e.replies.AskEmail, note: "Waiting for email"}
}

func (e *Engine) captureEmail(sess *domain.Session, msg string) outcome {
	email := ExtractEmail(msg)
	if email == "" {
		return outcome{action: ActionAskClarification, reply: e.replies.AskClarification, note: "Invalid email"}
	}

	sess.Email = email
	if sess.Issue != "" {
		return e.escalate(sess, domain.ReasonDetailsCollected, e.replies.Escalated)
	}
	sess.Status = domain.StatusAwaitingIssue
	return outcome{action: ActionAskIssue, reply: e.replies.EmailNoted, note: "Email captured"}
}

func (e *Engine) askAI(ctx context.Context, sess *domain.Session, msg string) outcome {
	ctx, cancel := context.WithTimeout(ctx, e.aiTimeout)
	defer cancel()

	start := time.Now()
	reply, err := e.provider.Generate(ctx, msg)
	if err == nil && !reply.Defer && len(strings.TrimSpace(reply.Text)) <= 3 {
		err = ai.ErrEmptyReply
	}
	if err != nil {
		e.logger.Warn("AI provider failed, escalating",
			"session_id", sess.ID,
			"provider", e.provider.Name(),
			"duration", time.Since(start),
			"error", err)
		sess.Issue = msg
		return e.escalate(sess, domain.ReasonAIUnavailable, e.replies.Unavailable)
	}

	if reply.Defer {
		sess.Status = domain.StatusAwaitingIssue
		return outcome{action: ActionAskIssue, reply: e.replies.Deferred, note: "Waiting for issue"}
	}

	sess.Status = domain.StatusAIActive
	return outcome{action: ActionAIReply, reply: reply.Text, note: "AI answered"}
}

// escalate is the single place a session enters ESCALATED. Callers reach it
// only from non-escalated states, so each escalation notifies once.
func (e *Engine) escalate(sess *domain.Session, reason, reply string) outcome {
	alert := &domain.Alert{
		ID:        uuid.NewString(),
		SessionID: sess.ID,
		Email:     sess.Email,
		Issue:     sess.Issue,
		Reason:    reason,
		CreatedAt: e.now(),
	}
	sess.Status = domain.StatusEscalated
	sess.Issue = ""
	sess.Escalations++
	return outcome{action: ActionEscalate, reply: reply, note: "Escalated to human", alert: alert}
}

// absorbEmail stores a valid email carried by a metadata event.
func (e *Engine) absorbEmail(ctx context.Context, ev Event) Result {
	hint := strings.TrimSpace(ev.EmailHint)
	if ev.SessionID == "" || !ValidEmail(hint) {
		return Result{OK: true, Action: ActionIgnore, Note: "Ignored"}
	}

	unlock, err := e.lock(ctx, ev.SessionID)
	if err != nil {
		e.logger.Error("failed to lock session", "session_id", ev.SessionID, "error", err)
		return Result{OK: true, Action: ActionIgnore, Error: "session unavailable"}
	}
	defer unlock()
	ctx = context.WithoutCancel(ctx)

	sess, err := e.load(ctx, ev.SessionID)
	if err != nil {
		e.logger.Error("failed to load session", "session_id", ev.SessionID, "error", err)
		return Result{OK: true, Action: ActionIgnore, Error: "session unavailable"}
	}
	sess.Email = hint
	sess.UpdatedAt = e.now()
	if err := e.sessions.Put(ctx, sess); err != nil {
		e.logger.Error("failed to save session", "session_id", sess.ID, "error", err)
	}

	e.logger.Info("email captured", "session_id", sess.ID, "event", ev.Kind)
	out := outcome{action: ActionEmailCaptured, note: "Email captured"}
	e.observe(sess, out, sess.UpdatedAt)
	return Result{OK: true, Action: out.action, Note: out.note}
}

func (e *Engine) clear(ctx context.Context, sessionID string) Result {
	if sessionID == "" {
		return Result{OK: true, Action: ActionIgnore, Note: "Ignored"}
	}
	if err := e.Reset(ctx, sessionID); err != nil {
		e.logger.Error("failed to clear session", "session_id", sessionID, "error", err)
		return Result{OK: true, Action: ActionIgnore, Error: "session unavailable"}
	}
	return Result{OK: true, Action: ActionIgnore, Note: "session cleared"}
}

// Snapshot returns a copy of the session, or false when it does not exist.
func (e *Engine) Snapshot(ctx context.Context, sessionID string) (*domain.Session, bool, error) {
	unlock, err := e.lock(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if sess == nil {
		return nil, false, nil
	}
	return sess.Clone(), true, nil
}

// Reset forgets a session. Its next message starts from NEW.
func (e *Engine) Reset(ctx context.Context, sessionID string) error {
	unlock, err := e.lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := e.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	e.logger.Info("session cleared", "session_id", sessionID)
	return nil
}

// lock takes the in-process lock for a session, then the cross-process one
// when configured.
func (e *Engine) lock(ctx context.Context, sessionID string) (func(), error) {
	unlock := e.locks.Lock(sessionID)
	if e.sessionLock == nil {
		return unlock, nil
	}
	release, err := e.sessionLock.Lock(ctx, sessionID)
	if err != nil {
		unlock()
		return nil, err
	}
	return func() {
		release()
		unlock()
	}, nil
}

// load returns the stored session or a new one. A stored email that is no
// longer valid is dropped so it is asked for again.
func (e *Engine) load(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return domain.NewSession(sessionID, e.now()), nil
	}
	if sess.Email != "" && !ValidEmail(sess.Email) {
		e.logger.Warn("discarding invalid stored email", "session_id", sessionID)
		sess.Email = ""
	}
	return sess, nil
}

func (e *Engine) notify(ctx context.Context, alert domain.Alert) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Notify(ctx, alert); err != nil {
		e.logger.Error("failed to notify support team",
			"session_id", alert.SessionID,
			"alert_id", alert.ID,
			"error", err)
	}
}

func (e *Engine) deliver(ctx context.Context, sessionID, text string) {
	if e.replier == nil {
		e.logger.Info("reply not delivered, no chat client", "session_id", sessionID, "reply", text)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, e.replyTimeout)
	defer cancel()
	if err := e.replier.SendText(ctx, sessionID, text); err != nil {
		e.logger.Error("failed to deliver reply", "session_id", sessionID, "error", err)
	}
}

func (e *Engine) record(ctx context.Context, sessionID, direction string, action Action, content string) {
	if e.recorder == nil {
		return
	}
	entry := &domain.TranscriptEntry{
		SessionID: sessionID,
		Direction: direction,
		Action:    string(action),
		Content:   content,
		CreatedAt: e.now(),
	}
	if err := e.recorder.AppendTranscript(ctx, entry); err != nil {
		e.logger.Warn("failed to record transcript", "session_id", sessionID, "error", err)
	}
}

func (e *Engine) observe(sess *domain.Session, out outcome, at time.Time) {
	if e.observer == nil {
		return
	}
	e.observer.Observe(Turn{
		SessionID: sess.ID,
		Action:    out.action,
		Status:    sess.Status,
		Note:      out.note,
		At:        at,
	})
}
