package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"budgetvoice/internal/core"
	"budgetvoice/internal/log"
	"budgetvoice/internal/narration"
)

// Source lists the expenses to scan.
type Source interface {
	ListExpenses() []core.Expense
}

// Processor narrates each reminder once per (expense, due date). Changing
// an expense's due date re-arms its reminder.
type Processor struct {
	source  Source
	sink    narration.Sink
	checker DueChecker
	logger  *log.Logger

	mu       sync.Mutex
	reminded map[int64]core.Date
}

func NewProcessor(source Source, sink narration.Sink, checker DueChecker, logger *log.Logger) *Processor {
	if checker == nil {
		checker = OnDueDate{}
	}
	if logger == nil {
		logger = log.Default()
	}
	if sink == nil {
		sink = narration.Discard
	}
	return &Processor{
		source:   source,
		sink:     sink,
		checker:  checker,
		logger:   logger.WithComponent(log.ComponentReminder),
		reminded: make(map[int64]core.Date),
	}
}

// ProcessDue narrates every reminder that became due and returns how many
// were narrated.
func (p *Processor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.source == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	expenses := p.source.ListExpenses()
	today := core.DateOf(now)

	p.mu.Lock()
	defer p.mu.Unlock()

	live := make(map[int64]struct{}, len(expenses))
	count := 0
	for _, e := range expenses {
		live[e.ID] = struct{}{}
		if !e.Reminder() {
			continue
		}
		if last, ok := p.reminded[e.ID]; ok && last.Equal(e.DueDate.Time) {
			continue
		}
		if !p.checker.IsDue(e.DueDate, now) {
			continue
		}

		p.sink.Narrate(ctx, reminderText(e, today))
		p.reminded[e.ID] = e.DueDate
		count++
		p.logger.InfoContext(ctx, "Narrated payment reminder",
			log.FieldExpenseID, e.ID,
			"contact", e.Contact,
			"due_date", e.DueDate.String())
	}

	// forget deleted expenses
	for id := range p.reminded {
		if _, ok := live[id]; !ok {
			delete(p.reminded, id)
		}
	}
	return count, nil
}

// Run processes once immediately and then on every tick until ctx is done.
func (p *Processor) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("reminder interval must be positive, got %s", interval)
	}
	p.logger.InfoContext(ctx, "Reminder processor configured", "interval", interval)

	p.tick(ctx, time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			p.tick(ctx, now)
		}
	}
}

func (p *Processor) tick(ctx context.Context, now time.Time) {
	count, err := p.ProcessDue(ctx, now)
	if err != nil {
		p.logger.ErrorContext(ctx, "Reminder processing failed", log.FieldError, err)
		return
	}
	if count > 0 {
		p.logger.InfoContext(ctx, "Reminder processing complete", "reminders", count)
	}
}
