// Package worker mirrors ledger events into the external spreadsheet.
package worker

import (
	"context"
	"fmt"
	"time"

	"budgetvoice/internal/amqp"
	"budgetvoice/internal/cache"
	"budgetvoice/internal/log"
	"budgetvoice/internal/sheets"
)

const (
	dedupeSize = 1024
	dedupeTTL  = 24 * time.Hour
)

// ExportWorker appends every ledger event it receives to the sheet. Delivery
// is at-least-once, so recently exported message IDs are remembered and
// redeliveries are acknowledged without writing a second row.
type ExportWorker struct {
	writer   sheets.EventWriter
	exported *cache.LRU[string]
	logger   *log.Logger
}

func NewExportWorker(writer sheets.EventWriter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Default()
	}
	return &ExportWorker{
		writer:   writer,
		exported: cache.NewLRU[string](dedupeSize, dedupeTTL),
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent processes a single ledger event from AMQP.
func (w *ExportWorker) HandleEvent(ctx context.Context, msg *amqp.ExpenseEventMessage) error {
	if ref, ok := w.exported.Get(msg.ID); ok {
		w.logger.DebugContext(ctx, "Skipping already exported event",
			"message_id", msg.ID,
			log.FieldSheetsRef, ref)
		return nil
	}

	e, err := msg.Expense.ToExpense()
	if err != nil {
		return fmt.Errorf("decode expense snapshot: %w: %w", amqp.ErrPoison, err)
	}

	at := msg.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	ref, err := w.writer.AppendExpenseEvent(ctx, msg.Kind, e, at)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to export ledger event",
			"message_id", msg.ID,
			log.FieldEventKind, msg.Kind,
			log.FieldExpenseID, e.ID,
			log.FieldError, err)
		return fmt.Errorf("append to sheet: %w", err)
	}
	w.exported.Set(msg.ID, ref)

	w.logger.InfoContext(ctx, "Exported ledger event",
		"message_id", msg.ID,
		log.FieldEventKind, msg.Kind,
		log.FieldExpenseID, e.ID,
		log.FieldSheetsRef, ref)
	return nil
}

// PruneExported drops expired entries from the redelivery memory.
func (w *ExportWorker) PruneExported() int {
	return w.exported.CleanExpired()
}

// Run consumes events from the client until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context, client *amqp.Client) error {
	w.logger.InfoContext(ctx, "Export worker started")
	err := client.ConsumeExpenseEvents(ctx, w.HandleEvent)
	if ctx.Err() != nil {
		w.logger.InfoContext(ctx, "Export worker stopped")
		return nil
	}
	return err
}
