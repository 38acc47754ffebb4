package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"budgetvoice/internal/core"
	"budgetvoice/internal/ledger"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

var _ ledger.Store = (*SQLiteRepository)(nil)

// SQLiteRepository is the single-device durable ledger store.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one writer; keeps autoincrement ids strictly ordered with the mirror
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const expenseColumns = `id, amount, category, date, billable, contact, due_date, reminder_on, created_at`

func (r *SQLiteRepository) LoadExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (amount, category, date, billable, contact, due_date, reminder_on, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Amount.String(), e.Category, e.Date.String(), e.Billable, e.Contact,
		nullableDate(e.DueDate), e.ReminderOn, e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("read expense id: %w", err)
	}
	e.ID = id

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"amount", e.Amount.String(),
		"category", e.Category)

	return e, nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET amount = ?, category = ?, date = ?, billable = ?, contact = ?,
		 due_date = ?, reminder_on = ? WHERE id = ?`,
		e.Amount.String(), e.Category, e.Date.String(), e.Billable, e.Contact,
		nullableDate(e.DueDate), e.ReminderOn, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return checkAffected(res, e.ID)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return checkAffected(res, id)
}

func (r *SQLiteRepository) LoadCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// SaveCategories replaces the stored list in a single transaction.
func (r *SQLiteRepository) SaveCategories(ctx context.Context, names []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}
	for i, n := range names {
		if _, err := tx.ExecContext(ctx, `INSERT INTO categories (position, name) VALUES (?, ?)`, i, n); err != nil {
			return fmt.Errorf("insert category %q: %w", n, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit categories: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) LoadBase(ctx context.Context) (decimal.Decimal, bool, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT base FROM budget_settings WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("query budget base: %w", err)
	}
	base, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse budget base %q: %w", raw, err)
	}
	return base, true, nil
}

func (r *SQLiteRepository) SaveBase(ctx context.Context, base decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budget_settings (id, base) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET base = excluded.base`, base.String())
	if err != nil {
		return fmt.Errorf("save budget base: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e         core.Expense
		amount    string
		date      string
		dueDate   sql.NullString
		createdAt string
	)
	if err := row.Scan(&e.ID, &amount, &e.Category, &date, &e.Billable, &e.Contact, &dueDate, &e.ReminderOn, &createdAt); err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}

	var err error
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Expense{}, fmt.Errorf("parse amount of expense %d: %w", e.ID, err)
	}
	if e.Date, err = core.ParseDate(date); err != nil {
		return core.Expense{}, fmt.Errorf("parse date of expense %d: %w", e.ID, err)
	}
	if dueDate.Valid {
		if e.DueDate, err = core.ParseDate(dueDate.String); err != nil {
			return core.Expense{}, fmt.Errorf("parse due date of expense %d: %w", e.ID, err)
		}
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return core.Expense{}, fmt.Errorf("parse created_at of expense %d: %w", e.ID, err)
	}
	return e, nil
}

func nullableDate(d core.Date) any {
	if d.IsEmpty() {
		return nil
	}
	return d.String()
}

func checkAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return &core.NotFoundError{ID: id}
	}
	return nil
}
