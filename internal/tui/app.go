// Package tui renders the reporting dashboard over the star-schema mart
// tables. It is a read-only consumer: nothing here writes to the database.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/sbruun/kontoflow/internal/database/repository"
)

type viewState string

const (
	viewOverview      viewState = "overview"
	viewUncategorized viewState = "uncategorized"
)

// App is the dashboard model.
type App struct {
	ctx   context.Context
	marts *repository.MartRepo

	currency   string
	dateFormat string

	state      viewState
	months     []string
	monthIdx   int
	facts      []repository.FactTransaction
	categories map[string]repository.CategoryInfo
	cursor     int
	status     string
	width      int
	height     int
}

func New(ctx context.Context, marts *repository.MartRepo, currency, dateFormat string) *App {
	if dateFormat == "" {
		dateFormat = "02/01"
	}
	return &App{
		ctx:        ctx,
		marts:      marts,
		currency:   currency,
		dateFormat: dateFormat,
		state:      viewOverview,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadMonths(), a.loadCategories())
}

type monthsMsg []string

type factsMsg []repository.FactTransaction

type categoriesMsg map[string]repository.CategoryInfo

type errMsg struct{ error }

func (a *App) loadMonths() tea.Cmd {
	return func() tea.Msg {
		months, err := a.marts.MonthsWithData(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		return monthsMsg(months)
	}
}

func (a *App) loadCategories() tea.Cmd {
	return func() tea.Msg {
		cats, err := a.marts.CategoryDimension(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		return categoriesMsg(cats)
	}
}

func (a *App) loadFacts() tea.Cmd {
	if len(a.months) == 0 {
		return nil
	}
	month := a.months[a.monthIdx]
	return func() tea.Msg {
		facts, err := a.marts.FactsForMonth(a.ctx, month)
		if err != nil {
			return errMsg{err}
		}
		return factsMsg(facts)
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
	case monthsMsg:
		a.months = m
		a.monthIdx = 0
		return a, a.loadFacts()
	case factsMsg:
		a.facts = m
		a.cursor = 0
	case categoriesMsg:
		a.categories = m
	case errMsg:
		a.status = "error: " + m.Error()
	case tea.KeyMsg:
		return a.handleKey(m)
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "left", "[":
		if a.monthIdx < len(a.months)-1 {
			a.monthIdx++
			return a, a.loadFacts()
		}
	case "right", "]":
		if a.monthIdx > 0 {
			a.monthIdx--
			return a, a.loadFacts()
		}
	case "u":
		a.state = viewUncategorized
		a.cursor = 0
	case "o", "esc":
		a.state = viewOverview
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.uncategorized())-1 {
			a.cursor++
		}
	case "r":
		return a, tea.Batch(a.loadMonths(), a.loadCategories())
	}
	return a, nil
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	metricStyle = lipgloss.NewStyle().Bold(true)
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

func (a *App) View() string {
	if len(a.months) == 0 {
		return titleStyle.Render("Kontoflow Dashboard") +
			"\nNo transactions in the marts yet. Run `kontoflow run` first.\n[q] Quit"
	}
	switch a.state {
	case viewUncategorized:
		return a.renderUncategorized()
	default:
		return a.renderOverview()
	}
}

func (a *App) renderOverview() string {
	title := titleStyle.Render("Kontoflow Dashboard - " + a.monthLabel())

	income, expenses := decimal.Zero, decimal.Zero
	uncategorized := 0
	for _, f := range a.facts {
		if f.TransactionType == "credit" {
			income = income.Add(f.Amount)
		} else {
			expenses = expenses.Add(f.AbsoluteAmount)
		}
		if f.CategorizationStatus == "Uncategorized" {
			uncategorized++
		}
	}
	net := income.Sub(expenses)

	body := fmt.Sprintf("%s  Income: %s %s   Expenses: %s %s   Net: %s %s",
		metricStyle.Render(fmt.Sprintf("Txns: %d", len(a.facts))),
		income.StringFixed(2), a.currency,
		expenses.StringFixed(2), a.currency,
		net.StringFixed(2), a.currency)
	body += "\n" + faintStyle.Render(fmt.Sprintf("Uncategorized: %d (press u to review)", uncategorized))

	body += "\n\n" + a.renderCategoryChart()
	body += "\n\n[←/→] Change month  [u] Uncategorized  [r] Reload  [q] Quit"
	if a.status != "" {
		body += "\n" + a.status
	}
	return title + "\n" + body
}

func (a *App) renderCategoryChart() string {
	totals := map[string]decimal.Decimal{}
	for _, f := range a.facts {
		if f.TransactionType != "debit" {
			continue
		}
		totals[f.CategoryKey] = totals[f.CategoryKey].Add(f.AbsoluteAmount)
	}
	type pair struct {
		label string
		total decimal.Decimal
	}
	var pairs []pair
	for key, total := range totals {
		pairs = append(pairs, pair{label: a.categoryLabel(key), total: total})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if !pairs[i].total.Equal(pairs[j].total) {
			return pairs[i].total.GreaterThan(pairs[j].total)
		}
		return pairs[i].label < pairs[j].label
	})
	if len(pairs) > 8 {
		pairs = pairs[:8]
	}
	chart := barChart{Title: "Expenses by category"}
	for _, p := range pairs {
		v, _ := p.total.Float64()
		chart.Data = append(chart.Data, chartPoint{Label: p.label, Value: v})
	}
	width := a.width
	if width <= 0 {
		width = 80
	}
	return chart.Render(width, 12)
}

func (a *App) renderUncategorized() string {
	title := titleStyle.Render("Uncategorized - " + a.monthLabel())
	rows := a.uncategorized()
	if len(rows) == 0 {
		return title + "\nEverything is categorized this month.\n[o] Overview  [q] Quit"
	}
	out := title + "\n"
	for i, f := range rows {
		marker := " "
		if i == a.cursor {
			marker = "▶"
		}
		day, _ := time.Parse("20060102", f.DateKey)
		out += fmt.Sprintf("%s %s  %-40s  %10s %s\n",
			marker, day.Format(a.dateFormat), truncate(f.Description, 40),
			f.Amount.StringFixed(2), a.currency)
	}
	out += "\nAdd a matching rule and re-run the transform to categorize these."
	out += "\n[o] Overview  [q] Quit"
	if a.status != "" {
		out += "\n" + a.status
	}
	return out
}

func (a *App) uncategorized() []repository.FactTransaction {
	var out []repository.FactTransaction
	for _, f := range a.facts {
		if f.CategorizationStatus == "Uncategorized" {
			out = append(out, f)
		}
	}
	return out
}

func (a *App) monthLabel() string {
	ym := a.months[a.monthIdx]
	if t, err := time.Parse("2006-01", ym); err == nil {
		return t.Format("January 2006")
	}
	return ym
}

func (a *App) categoryLabel(key string) string {
	if info, ok := a.categories[key]; ok && info.Name != "" {
		return info.Name
	}
	if strings.TrimSpace(key) == "" {
		return "[unknown]"
	}
	return key
}
