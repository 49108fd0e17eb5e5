package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sbruun/kontoflow/internal/database"
	"github.com/sbruun/kontoflow/internal/database/repository"
)

// RulesImportService replaces the categorization rule set from a headed CSV
// seed file: pattern_type,pattern_value,category_key,priority. Rule IDs are
// derived from rule identity so re-importing the same file is idempotent.
type RulesImportService struct {
	Rules      *repository.RuleRepo
	Categories *repository.CategoryRepo
}

func (s *RulesImportService) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	rules, err := ParseRulesCSV(r)
	if err != nil {
		return 0, err
	}

	known := map[string]bool{}
	cats, err := s.Categories.List(ctx)
	if err != nil {
		return 0, err
	}
	for _, c := range cats {
		known[c.Key] = true
	}
	for _, rule := range rules {
		if !known[rule.CategoryKey] {
			return 0, fmt.Errorf("rule %s/%q references unknown category %s", rule.PatternType, rule.PatternValue, rule.CategoryKey)
		}
	}

	if err := s.Rules.ReplaceAll(ctx, rules); err != nil {
		return 0, err
	}
	return len(rules), nil
}

// ParseRulesCSV reads the rule seed format. Priority defaults to 0 when the
// column is empty.
func ParseRulesCSV(r io.Reader) ([]repository.Rule, error) {
	csvr := csv.NewReader(newBOMReader(r))
	csvr.TrimLeadingSpace = true

	header, err := csvr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"pattern_type", "pattern_value", "category_key"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var out []repository.Rule
	line := 1
	for {
		line++
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rule := repository.Rule{
			PatternType:  strings.TrimSpace(rec[col["pattern_type"]]),
			PatternValue: strings.TrimSpace(rec[col["pattern_value"]]),
			CategoryKey:  strings.TrimSpace(rec[col["category_key"]]),
		}
		switch rule.PatternType {
		case "description", "name", "transaction_type":
		default:
			return nil, fmt.Errorf("line %d: unknown pattern_type %q", line, rule.PatternType)
		}
		if idx, ok := col["priority"]; ok && idx < len(rec) && strings.TrimSpace(rec[idx]) != "" {
			p, err := strconv.Atoi(strings.TrimSpace(rec[idx]))
			if err != nil {
				return nil, fmt.Errorf("line %d priority: %w", line, err)
			}
			rule.Priority = p
		}
		rule.ID = database.RuleID(rule)
		out = append(out, rule)
	}
	return out, nil
}
