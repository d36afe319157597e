package content

import (
	"cmp"
	"slices"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateTime,
	time.DateOnly,
}

// parseDate accepts the formats the CMS writes dates in.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// newestFirst orders dates descending. Unparseable dates go last.
func newestFirst(a, b string) int {
	ta, okA := parseDate(a)
	tb, okB := parseDate(b)
	switch {
	case okA && okB:
		return tb.Compare(ta)
	case okA:
		return -1
	case okB:
		return 1
	default:
		return 0
	}
}

// sortByText orders items by a display string using Unicode collation.
// A collator is not safe for concurrent use, so each call gets its own.
func sortByText[T any](items []T, key func(T) string) {
	c := collate.New(language.English)
	slices.SortStableFunc(items, func(a, b T) int {
		return c.CompareString(key(a), key(b))
	})
}

func sortByDate[T any](items []T, key func(T) string) {
	slices.SortStableFunc(items, func(a, b T) int {
		return newestFirst(key(a), key(b))
	})
}

func sortByInt[T any](items []T, key func(T) int) {
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(key(a), key(b))
	})
}

// paginate slices items[offset:offset+limit]. Total counts every item.
func paginate[T any](items []T, opts ListOptions) ListResult[T] {
	if items == nil {
		items = []T{}
	}
	total := len(items)

	offset := min(max(opts.Offset, 0), total)
	end := total
	if opts.Limit > 0 {
		end = min(offset+opts.Limit, total)
	}

	return ListResult[T]{
		Items:   items[offset:end],
		Total:   total,
		HasMore: opts.Limit > 0 && max(opts.Offset, 0)+opts.Limit < total,
	}
}
