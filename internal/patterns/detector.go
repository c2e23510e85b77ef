// Package patterns mines transaction history for recurring obligations.
package patterns

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/loan-reminders/internal/calendar"
	"github.com/Dan9191/loan-reminders/internal/models"
)

const (
	// MinConfidence is the confidence a pattern must exceed to be kept
	MinConfidence = 0.5
	// MinWeeklyConfidence is the share of weekly-looking gaps needed to
	// accept a weekly pattern
	MinWeeklyConfidence = 0.7

	weeklyGapMin = 5
	weeklyGapMax = 9
)

// DefaultCategories are the only categories treated as recurring obligations
var DefaultCategories = []string{
	models.CategoryRent,
	models.CategoryUtilities,
	models.CategoryLoanPayments,
}

// Detector groups expense transactions into recurring patterns.
type Detector struct {
	// Categories is the allow-list of expense categories considered at all.
	Categories []string
	// MonthlyCategories are assumed monthly as soon as one transaction is
	// seen. Other allowed categories must earn a weekly pattern from their
	// gaps.
	MonthlyCategories []string
}

// NewDetector returns a detector that treats every default category as monthly
func NewDetector() *Detector {
	return &Detector{
		Categories:        DefaultCategories,
		MonthlyCategories: DefaultCategories,
	}
}

// DetectPatterns runs the default detector over transactions
func DetectPatterns(transactions []models.Transaction) []models.RecurringPattern {
	return NewDetector().Detect(transactions)
}

type groupKey struct {
	category    string
	description string
}

// Detect returns one pattern per recurring (category, description) group,
// ordered by category then description.
func (d *Detector) Detect(transactions []models.Transaction) []models.RecurringPattern {
	allowed := toSet(d.Categories)
	monthly := toSet(d.MonthlyCategories)

	groups := make(map[groupKey][]models.Transaction)
	var order []groupKey
	for _, tx := range transactions {
		if tx.Type != models.TransactionExpense {
			continue
		}
		if _, ok := allowed[tx.Category]; !ok {
			continue
		}
		key := groupKey{category: tx.Category, description: NormalizeDescription(tx.Description)}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], tx)
	}

	var patterns []models.RecurringPattern
	for _, key := range order {
		txs := groups[key]
		sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date.Before(txs[j].Date) })

		pattern := models.RecurringPattern{
			Category:              key.category,
			NormalizedDescription: key.description,
			AverageAmount:         average(txs),
			LastOccurrence:        calendar.Date(txs[len(txs)-1].Date),
			OccurrenceCount:       len(txs),
		}

		if _, ok := monthly[key.category]; ok {
			pattern.Frequency = models.FrequencyMonthly
			pattern.Confidence = 1.0
		} else {
			confidence := weeklyConfidence(txs)
			if confidence <= MinWeeklyConfidence {
				continue
			}
			pattern.Frequency = models.FrequencyWeekly
			pattern.Confidence = confidence
		}

		if pattern.Confidence <= MinConfidence {
			continue
		}
		pattern.Description = displayDescription(txs, pattern.AverageAmount)
		patterns = append(patterns, pattern)
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].Category != patterns[j].Category {
			return patterns[i].Category < patterns[j].Category
		}
		return patterns[i].NormalizedDescription < patterns[j].NormalizedDescription
	})
	return patterns
}

func average(txs []models.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range txs {
		sum = sum.Add(tx.Amount.Abs())
	}
	return sum.Div(decimal.NewFromInt(int64(len(txs))))
}

// weeklyConfidence is the share of day gaps between consecutive transactions
// that look weekly. Fewer than two transactions have no gaps and score 0.
func weeklyConfidence(txs []models.Transaction) float64 {
	if len(txs) < 2 {
		return 0
	}
	weekly := 0
	for i := 1; i < len(txs); i++ {
		gap := calendar.DaysBetween(txs[i-1].Date, txs[i].Date)
		if gap >= weeklyGapMin && gap <= weeklyGapMax {
			weekly++
		}
	}
	return float64(weekly) / float64(len(txs)-1)
}

var currencyFigure = regexp.MustCompile(`(₹|Rs\.?|INR|\$|€|£)(\s?)[0-9][0-9,]*(?:\.[0-9]+)?`)

// displayDescription picks the longest description in the group and rewrites
// any embedded currency figure to the rounded average.
func displayDescription(txs []models.Transaction, avg decimal.Decimal) string {
	longest := ""
	for _, tx := range txs {
		desc := strings.TrimSpace(tx.Description)
		if len(desc) > len(longest) {
			longest = desc
		}
	}
	return currencyFigure.ReplaceAllString(longest, "${1}${2}"+avg.Round(0).String())
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
