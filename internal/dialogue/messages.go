package dialogue

import (
	"fmt"
	"strings"

	"budgetvoice/internal/core"

	"github.com/shopspring/decimal"
)

const (
	msgListening      = "Listening for commands"
	msgStopped        = "Voice commands stopped"
	msgMissingBoth    = "Please specify an amount and category for the expense"
	msgBadAmount      = "Sorry, I couldn't understand the amount. Please try again."
	msgNoExpenses     = "You don't have any expenses recorded yet"
	msgHelp           = "You can say: add expense, check budget, or recent expenses"
	msgUnknown        = "Sorry, I didn't understand that command. Try saying add expense, check budget, or recent expenses"
	recentReportCount = 3
)

func askCategory(amount decimal.Decimal) string {
	return fmt.Sprintf("What category is the %s expense for?", core.FormatAmount(amount))
}

func askAmount(category string) string {
	return fmt.Sprintf("How much is the %s expense?", category)
}

func adding(amount decimal.Decimal, category string) string {
	return fmt.Sprintf("Adding %s expense for %s", category, core.FormatAmount(amount))
}

func added(e core.Expense, remaining decimal.Decimal) string {
	return fmt.Sprintf("Expense added: %s worth %s. Total Remaining budget is %s",
		e.Category, core.FormatAmount(e.Amount), core.FormatAmount(remaining))
}

func saveFailed(amount decimal.Decimal, category string) string {
	return fmt.Sprintf("Failed to save expense. Please try again to add %s worth %s to the Expenses list",
		category, core.FormatAmount(amount))
}

func invalidField(field string) string {
	return fmt.Sprintf("Sorry, the expense needs a valid %s. Please try again.", field)
}

func budgetReport(remaining decimal.Decimal) string {
	return "Your remaining budget is " + core.FormatAmountFixed(remaining)
}

func recentReport(expenses []core.Expense) string {
	if len(expenses) == 0 {
		return msgNoExpenses
	}
	parts := make([]string, len(expenses))
	for i, e := range expenses {
		parts[i] = core.FormatAmount(e.Amount) + " for " + e.Category
	}
	return "Your most recent expenses are: " + strings.Join(parts, ", ")
}
