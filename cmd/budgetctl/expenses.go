package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"budgetvoice/internal/core"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func init() {
	for _, c := range []*cobra.Command{addCmd, updateCmd} {
		c.Flags().String("amount", "", "amount, e.g. 12.50")
		c.Flags().String("category", "", "category name")
		c.Flags().String("date", "", "date as YYYY-MM-DD (default today)")
		c.Flags().Bool("billable", false, "mark the expense billable")
		c.Flags().String("contact", "", "contact for a billable expense")
		c.Flags().String("due", "", "due date as YYYY-MM-DD for a billable expense")
		c.Flags().Bool("reminder", false, "remind before the due date")
	}
	listCmd.Flags().Int("recent", 0, "show only the last n expenses")

	expensesCmd.AddCommand(addCmd, updateCmd, deleteCmd, listCmd)
	budgetCmd.AddCommand(budgetShowCmd, budgetSetCmd)
	rootCmd.AddCommand(expensesCmd, budgetCmd, categoriesCmd, overviewCmd)
}

var expensesCmd = &cobra.Command{
	Use:   "expenses",
	Short: "Add, change, remove and list expenses",
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a new expense",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var draft core.Expense
		if err := applyFlags(cmd, &draft); err != nil {
			return err
		}
		e, err := state.ledger.AddExpense(cmd.Context(), draft)
		if err != nil {
			return err
		}
		fmt.Printf("Added #%d: %s for %s. Budget left: %s\n",
			e.ID, core.FormatAmountFixed(e.Amount), e.Category, core.FormatAmountFixed(state.ledger.Budget()))
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change fields of an existing expense",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		e, err := state.ledger.Get(id)
		if err != nil {
			return err
		}
		if err := applyFlags(cmd, &e); err != nil {
			return err
		}
		e, err = state.ledger.UpdateExpense(cmd.Context(), e)
		if err != nil {
			return err
		}
		fmt.Printf("Updated #%d. Budget left: %s\n", e.ID, core.FormatAmountFixed(state.ledger.Budget()))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove an expense",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := state.ledger.DeleteExpense(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Deleted #%d. Budget left: %s\n", id, core.FormatAmountFixed(state.ledger.Budget()))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List expenses in creation order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		expenses := state.ledger.ListExpenses()
		if n, _ := cmd.Flags().GetInt("recent"); n > 0 {
			expenses = state.ledger.Recent(n)
		}
		if len(expenses) == 0 {
			fmt.Println("No expenses yet")
			return nil
		}
		fmt.Printf("%-5s %-11s %10s  %-16s %s\n", "ID", "DATE", "AMOUNT", "CATEGORY", "BILLING")
		for _, e := range expenses {
			fmt.Printf("%-5d %-11s %10s  %-16s %s\n",
				e.ID, e.Date.String(), core.FormatAmountFixed(e.Amount), e.Category, billing(e))
		}
		return nil
	},
}

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Show or set the budget",
}

var budgetShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the base and the remaining budget",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Base:      %s\nRemaining: %s\n",
			core.FormatAmountFixed(state.ledger.Base()), core.FormatAmountFixed(state.ledger.Budget()))
		return nil
	},
}

var budgetSetCmd = &cobra.Command{
	Use:   "set <amount>",
	Short: "Set the base budget expenses are subtracted from",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(args[0]), "$"))
		if err != nil || base.IsNegative() {
			return fmt.Errorf("invalid budget %q", args[0])
		}
		if err := state.ledger.SetBase(cmd.Context(), base); err != nil {
			return err
		}
		fmt.Printf("Budget set to %s. Remaining: %s\n",
			core.FormatAmountFixed(base), core.FormatAmountFixed(state.ledger.Budget()))
		return nil
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List known categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, c := range state.ledger.Categories() {
			fmt.Println(c)
		}
		return nil
	},
}

var overviewCmd = &cobra.Command{
	Use:   "overview [YYYY-MM]",
	Short: "Total spending for a month, by category",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		month := time.Now()
		if len(args) == 1 {
			t, err := time.Parse("2006-01", args[0])
			if err != nil {
				return fmt.Errorf("invalid month %q, want YYYY-MM", args[0])
			}
			month = t
		}
		ov := state.ledger.Overview(month.Year(), int(month.Month()))
		fmt.Printf("%04d-%02d total: %s\n", ov.Year, ov.Month, core.FormatAmountFixed(ov.Total))
		for _, c := range ov.ByCategory {
			fmt.Printf("  %-16s %10s\n", c.Name, core.FormatAmountFixed(c.Amount))
		}
		return nil
	},
}

// applyFlags copies every flag the user set onto e. Unset flags leave the
// field alone so update only touches what was named.
func applyFlags(cmd *cobra.Command, e *core.Expense) error {
	flags := cmd.Flags()
	if flags.Changed("amount") {
		s, _ := flags.GetString("amount")
		amount, err := core.ParseAmount(s)
		if err != nil {
			return fmt.Errorf("amount %q: %w", s, err)
		}
		e.Amount = amount
	}
	if flags.Changed("category") {
		e.Category, _ = flags.GetString("category")
	}
	if flags.Changed("date") {
		s, _ := flags.GetString("date")
		d, err := core.ParseDate(s)
		if err != nil {
			return fmt.Errorf("date %q: want YYYY-MM-DD", s)
		}
		e.Date = d
	}
	if flags.Changed("billable") {
		e.Billable, _ = flags.GetBool("billable")
	}
	if flags.Changed("contact") {
		e.Contact, _ = flags.GetString("contact")
	}
	if flags.Changed("due") {
		s, _ := flags.GetString("due")
		d, err := core.ParseDate(s)
		if err != nil {
			return fmt.Errorf("due date %q: want YYYY-MM-DD", s)
		}
		e.DueDate = d
	}
	if flags.Changed("reminder") {
		e.ReminderOn, _ = flags.GetBool("reminder")
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return id, nil
}

func billing(e core.Expense) string {
	if !e.Billable {
		return "-"
	}
	out := "billable"
	if e.Contact != "" {
		out += " to " + e.Contact
	}
	if !e.DueDate.IsEmpty() {
		out += ", due " + e.DueDate.String()
	}
	if e.ReminderOn {
		out += " (reminder)"
	}
	return out
}
