package feed

import (
	"fmt"
	"strings"
)

// Filterer marks items that fail a feed's include/exclude rules. Items are flagged,
// not dropped, so a later config change can bring them back.
type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

type filterRule struct {
	field    string
	includes []string
	excludes []string
}

var fieldValues = map[string]func(Item) string{
	"title":       func(item Item) string { return item.Title },
	"description": func(item Item) string { return item.Description },
	"content":     func(item Item) string { return item.Content },
	"link":        func(item Item) string { return item.Link },
	"authors":     func(item Item) string { return strings.Join(item.Authors, " ") },
	"categories":  func(item Item) string { return strings.Join(item.Categories, " ") },
}

// Run returns a copy of items with IsFiltered and FilterReason recomputed
func (f *Filterer) Run(items []Item, feedConfig *Config) []Item {
	rules := compileRules(feedConfig.Filters)

	result := make([]Item, len(items))
	for i, item := range items {
		item.IsFiltered, item.FilterReason = false, ""
		for _, rule := range rules {
			if reason, excluded := rule.check(item); excluded {
				item.IsFiltered, item.FilterReason = true, reason
				break
			}
		}
		result[i] = item
	}

	return result
}

// Visible returns the items that passed filtering, in order
func Visible(items []Item) []Item {
	visible := make([]Item, 0, len(items))
	for _, item := range items {
		if !item.IsFiltered {
			visible = append(visible, item)
		}
	}
	return visible
}

func compileRules(filters []ConfigFilter) []filterRule {
	rules := make([]filterRule, 0, len(filters))
	for _, filter := range filters {
		rules = append(rules, filterRule{
			field:    filter.Field,
			includes: lowerAll(filter.Includes),
			excludes: lowerAll(filter.Excludes),
		})
	}
	return rules
}

// check reports whether the item is excluded; excludes win over includes
func (r filterRule) check(item Item) (string, bool) {
	var value string
	if get, ok := fieldValues[r.field]; ok {
		value = strings.ToLower(get(item))
	}

	for _, pattern := range r.excludes {
		if strings.Contains(value, pattern) {
			return fmt.Sprintf("%s contains '%s'", r.field, pattern), true
		}
	}

	if len(r.includes) == 0 {
		return "", false
	}
	for _, pattern := range r.includes {
		if strings.Contains(value, pattern) {
			return "", false
		}
	}

	return fmt.Sprintf("%s does not contain any of %v", r.field, r.includes), true
}

func lowerAll(patterns []string) []string {
	lowered := make([]string, len(patterns))
	for i, p := range patterns {
		lowered[i] = strings.ToLower(p)
	}
	return lowered
}
