// Package command turns a free-text or transcribed utterance into a partial
// intent. Matching is keyword and number based; it never fails.
package command

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

type Action int

const (
	Unknown Action = iota
	AddExpense
	QueryBudget
	QueryRecent
	Help
)

func (a Action) String() string {
	switch a {
	case AddExpense:
		return "add_expense"
	case QueryBudget:
		return "query_budget"
	case QueryRecent:
		return "query_recent"
	case Help:
		return "help"
	}
	return "unknown"
}

// Intent is the partial result of parsing one utterance. Amount is nil and
// Category empty when the utterance did not mention them.
type Intent struct {
	Action   Action
	Amount   *decimal.Decimal
	Category string
}

func (i Intent) HasAmount() bool   { return i.Amount != nil }
func (i Intent) HasCategory() bool { return i.Category != "" }

// Vocabulary is the ordered list of recognised category words. The first
// entry found anywhere in the utterance wins.
type Vocabulary []string

var DefaultVocabulary = Vocabulary{
	"food", "groceries", "rent", "utilities", "transport",
	"entertainment", "shopping", "medical", "travel",
}

// Match returns the first vocabulary entry that occurs as a substring of the
// lower-cased text.
func (v Vocabulary) Match(lower string) string {
	for _, word := range v {
		if strings.Contains(lower, word) {
			return word
		}
	}
	return ""
}

// Triggers lists the phrases that select each action. Actions are tried in
// the order add, budget, recent, help.
type Triggers struct {
	Add    []string
	Budget []string
	Recent []string
	Help   []string
}

var DefaultTriggers = Triggers{
	Add:    []string{"add expense", "add an expense"},
	Budget: []string{"what is my budget", "check budget", "budget remaining"},
	Recent: []string{"recent expenses", "last expenses"},
	Help:   []string{"help", "what can you do"},
}

var amountPattern = regexp.MustCompile(`\d+(\.\d+)?`)

// stopWords are dropped from follow-up answers before picking the category.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "for": {}, "is": {}, "my": {}, "it": {}, "was": {},
}

type Parser struct {
	vocab    Vocabulary
	triggers Triggers
}

type Option func(*Parser)

func WithVocabulary(v Vocabulary) Option {
	return func(p *Parser) { p.vocab = v }
}

func WithTriggers(t Triggers) Option {
	return func(p *Parser) { p.triggers = t }
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{vocab: DefaultVocabulary, triggers: DefaultTriggers}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts action, amount and category. Parse ambiguity is not an
// error: missing pieces are simply absent.
func (p *Parser) Parse(utterance string) Intent {
	lower := strings.ToLower(utterance)
	intent := Intent{
		Action:   p.action(lower),
		Amount:   ExtractAmount(lower),
		Category: p.vocab.Match(lower),
	}
	return intent
}

func (p *Parser) action(lower string) Action {
	switch {
	case containsAny(lower, p.triggers.Add):
		return AddExpense
	case containsAny(lower, p.triggers.Budget):
		return QueryBudget
	case containsAny(lower, p.triggers.Recent):
		return QueryRecent
	case containsAny(lower, p.triggers.Help):
		return Help
	}
	return Unknown
}

// ExtractAmount returns the first decimal number in text. A zero match
// counts as no amount.
func ExtractAmount(text string) *decimal.Decimal {
	m := amountPattern.FindString(text)
	if m == "" {
		return nil
	}
	d, err := decimal.NewFromString(m)
	if err != nil || d.IsZero() {
		return nil
	}
	return &d
}

// ExtractFollowUpCategory reads a free-form answer to "what category?".
// Multi-word answers lose their stop words and the first remaining word is
// used; single words, and answers made only of stop words, are used whole.
func ExtractFollowUpCategory(utterance string) string {
	result := strings.TrimSpace(strings.ToLower(utterance))
	words := strings.Fields(result)
	if len(words) <= 1 {
		return result
	}
	for _, w := range words {
		if _, stop := stopWords[w]; !stop {
			return w
		}
	}
	return result
}

func containsAny(s string, phrases []string) bool {
	for _, ph := range phrases {
		if strings.Contains(s, ph) {
			return true
		}
	}
	return false
}
