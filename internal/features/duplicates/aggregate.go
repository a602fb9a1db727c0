package duplicates

import (
	"sort"
	"strconv"

	"wallet-tracker/internal/features/tables"
)

// Export header, shared by the terminal view and the saved file.
const (
	HeaderIdentifier = "Trader"
	HeaderCount      = "Duplicated count"
)

// FrequencyTable counts identifiers by exact string equality and remembers
// the order in which each key was first seen.
type FrequencyTable struct {
	counts map[string]int
	order  []string
}

func Count(values []string) *FrequencyTable {
	ft := &FrequencyTable{counts: make(map[string]int, len(values))}
	for _, v := range values {
		if _, seen := ft.counts[v]; !seen {
			ft.order = append(ft.order, v)
		}
		ft.counts[v]++
	}
	return ft
}

func (ft *FrequencyTable) Get(id string) int { return ft.counts[id] }

// Len is the number of distinct identifiers.
func (ft *FrequencyTable) Len() int { return len(ft.order) }

// Total is the sum of all counts, i.e. the size of the Row Collection.
func (ft *FrequencyTable) Total() int {
	total := 0
	for _, c := range ft.counts {
		total += c
	}
	return total
}

// Keys returns identifiers in first-seen order.
func (ft *FrequencyTable) Keys() []string {
	return append([]string(nil), ft.order...)
}

type Entry struct {
	Identifier string
	Count      int
}

// Report holds identifiers seen more than once, highest count first.
// Equal counts keep first-seen order.
type Report []Entry

// Rank keeps entries with count > 1 and orders them by count, descending.
func Rank(ft *FrequencyTable) Report {
	report := make(Report, 0)
	for _, id := range ft.order {
		if c := ft.counts[id]; c > 1 {
			report = append(report, Entry{Identifier: id, Count: c})
		}
	}
	sort.SliceStable(report, func(i, j int) bool {
		return report[i].Count > report[j].Count
	})
	return report
}

// Extract runs the whole pipeline over paths.
func Extract(paths []string, column string) (Report, ReadResult) {
	res := ReadIdentifiers(paths, column)
	return Rank(Count(res.Values)), res
}

// Table renders the report for display and export.
func (r Report) Table() *tables.Table {
	t := tables.New(HeaderIdentifier, HeaderCount)
	for _, e := range r {
		t.Append(e.Identifier, strconv.Itoa(e.Count))
	}
	return t
}

// Counts turns the report back into a map, mostly useful for comparisons.
func (r Report) Counts() map[string]int {
	out := make(map[string]int, len(r))
	for _, e := range r {
		out[e.Identifier] = e.Count
	}
	return out
}
