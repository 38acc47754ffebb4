// Package dialogue runs the slot-filling conversation that turns utterances
// into ledger actions. One Controller owns exactly one session.
package dialogue

import (
	"context"
	"errors"
	"sync"
	"time"

	"budgetvoice/internal/command"
	"budgetvoice/internal/core"
	"budgetvoice/internal/log"
	"budgetvoice/internal/narration"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrBusy is returned while the ledger mutation of a previous turn is
	// still outstanding.
	ErrBusy = errors.New("dialogue: command still executing")
	// ErrTurnOpen is returned when listening is requested during an open turn.
	ErrTurnOpen = errors.New("dialogue: listening turn already open")
)

// Ledger is the subset of the expense ledger the dialogue drives.
type Ledger interface {
	AddExpense(ctx context.Context, draft core.Expense) (core.Expense, error)
	Budget() decimal.Decimal
	Recent(n int) []core.Expense
}

type State int

const (
	Idle State = iota
	AwaitingAmount
	AwaitingCategory
)

func (s State) String() string {
	switch s {
	case AwaitingAmount:
		return "awaiting_amount"
	case AwaitingCategory:
		return "awaiting_category"
	}
	return "idle"
}

// Session is a snapshot of the conversation. Amount is meaningful in
// AwaitingCategory, Category in AwaitingAmount.
type Session struct {
	ID        string
	State     State
	Amount    decimal.Decimal
	Category  string
	Listening bool
	Executing bool
	UpdatedAt time.Time
}

type OutcomeKind int

const (
	// Executed means an expense was stored.
	Executed OutcomeKind = iota
	// Prompted means a follow-up question was asked.
	Prompted
	// Reported means a read-only query was answered.
	Reported
	// Rejected means nothing happened: unknown command or missing pieces.
	Rejected
	// Failed means the ledger refused or could not store the expense.
	Failed
)

func (k OutcomeKind) String() string {
	return [...]string{"executed", "prompted", "reported", "rejected", "failed"}[k]
}

// Outcome describes what one utterance did.
type Outcome struct {
	Kind      OutcomeKind
	Intent    command.Intent
	Expense   *core.Expense
	Narration []string
	State     State
	Err       error
}

type Option func(*Controller)

func WithParser(p *command.Parser) Option {
	return func(c *Controller) { c.parser = p }
}

// WithFollowUpTimeout expires a pending follow-up after d. Zero disables it.
func WithFollowUpTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Controller) { c.logger = logger.WithComponent(log.ComponentDialogue) }
}

type Controller struct {
	mu      sync.Mutex
	session Session

	ledger  Ledger
	sink    narration.Sink
	parser  *command.Parser
	timeout time.Duration
	now     func() time.Time
	logger  *log.Logger
}

func NewController(ledger Ledger, sink narration.Sink, opts ...Option) *Controller {
	if sink == nil {
		sink = narration.Discard
	}
	c := &Controller{
		ledger: ledger,
		sink:   sink,
		parser: command.NewParser(),
		now:    time.Now,
		logger: log.Default().WithComponent(log.ComponentDialogue),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.resetLocked(c.now())
	return c
}

// Session returns a copy of the current session.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// StartListening opens a listening turn. Only an explicit Cancel (or an
// expired follow-up) can interrupt an open turn.
func (c *Controller) StartListening(ctx context.Context) error {
	c.mu.Lock()
	now := c.now()
	c.expireLocked(ctx, now)
	if c.session.Executing {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.session.Listening {
		c.mu.Unlock()
		return ErrTurnOpen
	}
	c.session.Listening = true
	c.session.UpdatedAt = now
	c.mu.Unlock()

	c.sink.Narrate(ctx, msgListening)
	return nil
}

// Cancel stops listening and discards any half-filled expense. It never
// touches the ledger.
func (c *Controller) Cancel(ctx context.Context) {
	c.mu.Lock()
	executing := c.session.Executing
	prev := c.session.State
	c.resetLocked(c.now())
	c.session.Executing = executing
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "Dialogue cancelled", "previous_state", prev.String())
	c.sink.Narrate(ctx, msgStopped)
}

// HandleUtterance interprets one final transcript or typed command.
func (c *Controller) HandleUtterance(ctx context.Context, text string) (Outcome, error) {
	c.mu.Lock()
	now := c.now()
	c.expireLocked(ctx, now)
	if c.session.Executing {
		c.mu.Unlock()
		return Outcome{}, ErrBusy
	}

	switch c.session.State {
	case AwaitingCategory:
		amount := c.session.Amount
		intent := command.Intent{
			Action:   command.AddExpense,
			Amount:   &amount,
			Category: command.ExtractFollowUpCategory(text),
		}
		return c.executeLocked(ctx, now, intent)

	case AwaitingAmount:
		category := c.session.Category
		amount := command.ExtractAmount(text)
		if amount == nil {
			c.resetLocked(now)
			c.mu.Unlock()
			out := Outcome{Kind: Rejected, Intent: command.Intent{Action: command.AddExpense, Category: category}, State: Idle}
			return c.narrate(ctx, out, msgBadAmount), nil
		}
		intent := command.Intent{Action: command.AddExpense, Amount: amount, Category: category}
		return c.executeLocked(ctx, now, intent)
	}

	intent := c.parser.Parse(text)
	c.logger.DebugContext(ctx, "Utterance parsed",
		log.FieldAction, intent.Action.String(),
		log.FieldCategory, intent.Category)

	switch intent.Action {
	case command.AddExpense:
		switch {
		case intent.HasAmount() && intent.HasCategory():
			return c.executeLocked(ctx, now, intent)
		case intent.HasAmount():
			c.session.State = AwaitingCategory
			c.session.Amount = *intent.Amount
			c.session.Listening = true
			c.session.UpdatedAt = now
			c.mu.Unlock()
			out := Outcome{Kind: Prompted, Intent: intent, State: AwaitingCategory}
			return c.narrate(ctx, out, askCategory(*intent.Amount)), nil
		case intent.HasCategory():
			c.session.State = AwaitingAmount
			c.session.Category = intent.Category
			c.session.Listening = true
			c.session.UpdatedAt = now
			c.mu.Unlock()
			out := Outcome{Kind: Prompted, Intent: intent, State: AwaitingAmount}
			return c.narrate(ctx, out, askAmount(intent.Category)), nil
		default:
			c.endTurnLocked(now)
			c.mu.Unlock()
			return c.narrate(ctx, Outcome{Kind: Rejected, Intent: intent}, msgMissingBoth), nil
		}

	case command.QueryBudget:
		c.endTurnLocked(now)
		c.mu.Unlock()
		return c.narrate(ctx, Outcome{Kind: Reported, Intent: intent}, budgetReport(c.ledger.Budget())), nil

	case command.QueryRecent:
		c.endTurnLocked(now)
		c.mu.Unlock()
		return c.narrate(ctx, Outcome{Kind: Reported, Intent: intent}, recentReport(c.ledger.Recent(recentReportCount))), nil

	case command.Help:
		c.endTurnLocked(now)
		c.mu.Unlock()
		return c.narrate(ctx, Outcome{Kind: Reported, Intent: intent}, msgHelp), nil
	}

	c.endTurnLocked(now)
	c.mu.Unlock()
	return c.narrate(ctx, Outcome{Kind: Rejected, Intent: intent}, msgUnknown), nil
}

// executeLocked is entered with mu held and releases it. The session goes
// back to Idle before the ledger call; Executing blocks re-entry meanwhile.
func (c *Controller) executeLocked(ctx context.Context, now time.Time, intent command.Intent) (Outcome, error) {
	c.resetLocked(now)
	c.session.Executing = true
	sessionID := c.session.ID
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.session.Executing = false
		c.mu.Unlock()
	}()

	amount := *intent.Amount
	out := Outcome{Intent: intent, State: Idle}
	out = c.narrate(ctx, out, adding(amount, intent.Category))

	stored, err := c.ledger.AddExpense(ctx, core.Expense{Amount: amount, Category: intent.Category})
	if err != nil {
		out.Kind = Failed
		out.Err = err
		c.logger.WarnContext(ctx, "Expense from dialogue not saved",
			log.FieldSessionID, sessionID,
			log.FieldError, err)
		if field, ok := core.ValidationField(err); ok {
			return c.narrate(ctx, out, invalidField(field)), nil
		}
		return c.narrate(ctx, out, saveFailed(amount, intent.Category)), nil
	}

	out.Kind = Executed
	out.Expense = &stored
	c.logger.InfoContext(ctx, "Expense recorded from dialogue",
		log.NewFields().WithExpense(stored.ID, stored.Amount, stored.Category).WithSession(sessionID, Idle.String()).ToSlice()...)
	return c.narrate(ctx, out, added(stored, c.ledger.Budget())), nil
}

func (c *Controller) narrate(ctx context.Context, out Outcome, text string) Outcome {
	out.Narration = append(out.Narration, text)
	c.sink.Narrate(ctx, text)
	return out
}

// expireLocked treats a follow-up older than the timeout as a cancel.
func (c *Controller) expireLocked(ctx context.Context, now time.Time) {
	if c.timeout <= 0 || c.session.Executing {
		return
	}
	if c.session.State == Idle && !c.session.Listening {
		return
	}
	if now.Sub(c.session.UpdatedAt) <= c.timeout {
		return
	}
	c.logger.InfoContext(ctx, "Follow-up expired",
		log.FieldSessionID, c.session.ID,
		log.FieldState, c.session.State.String())
	c.resetLocked(now)
}

// endTurnLocked closes the listening turn without touching slot state.
func (c *Controller) endTurnLocked(now time.Time) {
	c.session.Listening = false
	c.session.UpdatedAt = now
}

func (c *Controller) resetLocked(now time.Time) {
	c.session = Session{ID: uuid.NewString(), State: Idle, UpdatedAt: now}
}
