// Package composer is the composition root of one event draft. It owns the
// draft and every editor state slice, runs the wizard and the undo-able
// deletion protocol, and talks to the persistence and notification collaborators.
package composer

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/composer/internal/forms"
	"github.com/aura-events/composer/internal/models"
	"github.com/aura-events/composer/internal/notify"
	"github.com/aura-events/composer/internal/payments"
	"github.com/aura-events/composer/internal/sessions"
	"github.com/aura-events/composer/internal/tickets"
	"github.com/aura-events/composer/internal/undo"
	"github.com/aura-events/composer/internal/wizard"
)

// Options configures a Composer. Zero values fall back to the defaults below.
type Options struct {
	AccountID       string
	GracePeriod     time.Duration // 5s
	TemplateLimit   int           // models.MaxTemplatesPerAccount
	CommitTimeout   time.Duration // 10s
	SessionDefaults sessions.Defaults
	Scheduler       undo.Scheduler
}

// Composer owns one event draft. All methods are safe for concurrent use;
// mutations are serialized by a single mutex.
type Composer struct {
	mu     sync.Mutex
	opts   Options
	logger *zap.Logger
	store  Persistence
	notif  notify.Notifier
	sched  undo.Scheduler

	event     models.Event // scalar parts; collections live in the slices below
	sessions  *sessions.Store
	tickets   *tickets.Store
	forms     *forms.Store
	templates forms.Templates
	payments  *payments.Store
	wizard    *wizard.Machine
	focus     string

	sessionDel   *undo.Tracker[sessionDeletion]
	ticketDel    *undo.Tracker[models.Ticket]
	fieldDel     *undo.Tracker[models.FormField]
	optionDel    *undo.Tracker[optionDeletion]
	templateDel  *persistedDeletion[models.Template]
	preferredDel *persistedDeletion[preferredDeletion]

	actions        map[string]func()
	outbox         []notify.Notification
	savingTemplate int
}

// New creates a composer for draft, or for a fresh draft when draft is nil.
func New(draft *models.Event, store Persistence, notifier notify.Notifier, opts Options, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.NewLogger(logger)
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = 5 * time.Second
	}
	if opts.TemplateLimit <= 0 {
		opts.TemplateLimit = models.MaxTemplatesPerAccount
	}
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = 10 * time.Second
	}
	if opts.SessionDefaults.Zone == nil {
		opts.SessionDefaults = sessions.DefaultDefaults
	}
	if opts.Scheduler == nil {
		opts.Scheduler = undo.NewTimerScheduler()
	}
	c := &Composer{
		opts:    opts,
		logger:  logger,
		store:   store,
		notif:   notifier,
		sched:   opts.Scheduler,
		actions: make(map[string]func()),
	}
	if draft == nil {
		draft = &models.Event{
			ID:         uuid.New(),
			AccountID:  opts.AccountID,
			Visibility: models.VisibilityPublic,
			CreatedAt:  c.sched.Now(),
		}
	}
	c.sessions = sessions.NewStore(nil)
	c.tickets = tickets.NewStore(nil)
	c.forms = forms.NewStore(nil)
	c.payments = payments.NewStore(models.BankTransfer{}, models.CashPayment{})
	c.load(*draft)

	c.sessionDel = undo.NewTracker[sessionDeletion](c.sched)
	c.ticketDel = undo.NewTracker[models.Ticket](c.sched)
	c.fieldDel = undo.NewTracker[models.FormField](c.sched)
	c.optionDel = undo.NewTracker[optionDeletion](c.sched)
	c.templateDel = c.newTemplateDeletion()
	c.preferredDel = c.newPreferredDeletion()
	c.wizard = wizard.New(c.stepHooks())
	return c
}

// ID returns the draft id.
func (c *Composer) ID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.event.ID
}

// load replaces the draft content. Caller holds mu (or owns c exclusively).
func (c *Composer) load(e models.Event) {
	if e.ContentBlocks == nil {
		e.ContentBlocks = []models.ContentBlock{}
	}
	if e.FAQBlocks == nil {
		e.FAQBlocks = []models.FAQBlock{}
	}
	c.sessions.Replace(e.Sessions)
	c.tickets.Replace(e.Tickets)
	c.forms.Set(e.FormBlock)
	c.payments.SetSettings(e.BankTransfer, e.CashPayment)
	e.Sessions, e.Tickets, e.FormBlock = nil, nil, nil
	c.event = e
}

// draft assembles the full event. Caller holds mu.
func (c *Composer) draft() models.Event {
	e := c.event
	e.ContentBlocks = append([]models.ContentBlock{}, c.event.ContentBlocks...)
	e.FAQBlocks = append([]models.FAQBlock{}, c.event.FAQBlocks...)
	e.Sessions = c.sessions.All()
	e.Tickets = c.tickets.All()
	e.FormBlock = c.forms.Form()
	e.BankTransfer = c.payments.Bank()
	e.CashPayment = c.payments.Cash()
	return e
}

// notifyLocked queues n for delivery once mu is released.
func (c *Composer) notifyLocked(n notify.Notification) {
	c.outbox = append(c.outbox, n)
}

// unlock releases mu and then delivers queued notifications, so notifiers never run under the lock.
func (c *Composer) unlock() {
	out := c.outbox
	c.outbox = nil
	c.mu.Unlock()
	for _, n := range out {
		c.notif.Notify(n)
	}
}

// actionLocked registers fn as a notification action. fn runs with mu held.
func (c *Composer) actionLocked(label string, fn func()) *notify.Action {
	id := uuid.New().String()
	c.actions[id] = fn
	return &notify.Action{ID: id, Label: label, OnClick: func() { c.InvokeAction(id) }}
}

// InvokeAction runs the notification action with id once. It reports whether the action existed.
func (c *Composer) InvokeAction(id string) bool {
	c.mu.Lock()
	defer c.unlock()
	fn, ok := c.actions[id]
	if !ok {
		return false
	}
	delete(c.actions, id)
	fn()
	return true
}

// dropAction forgets an action that no longer applies. Caller holds mu.
func (c *Composer) dropAction(id string) {
	delete(c.actions, id)
}

// Close cancels every scheduled commit without committing it.
func (c *Composer) Close() {
	c.mu.Lock()
	defer c.unlock()
	c.templateDel.close()
	c.preferredDel.close()
	c.actions = make(map[string]func())
}
