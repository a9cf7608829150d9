package analytics

import "testing"

func TestAggregatorRecordsSearchAndZeroResult(t *testing.T) {
	agg := NewAggregator(nil)

	agg.recordSearchEvent(SearchEvent{Type: EventSearch, Query: "hello", Returned: 3, LatencyMs: 10})
	agg.recordSearchEvent(SearchEvent{Type: EventZeroResult, Query: "nope", Returned: 0, LatencyMs: 5})
	agg.recordSearchEvent(SearchEvent{Type: EventSearch, Query: "hello", Returned: 1, LatencyMs: 20})

	stats := agg.Stats()
	if stats.TotalSearches != 3 {
		t.Errorf("TotalSearches = %d, want 3", stats.TotalSearches)
	}
	if stats.ZeroResultCount != 1 {
		t.Errorf("ZeroResultCount = %d, want 1", stats.ZeroResultCount)
	}
	if len(stats.TopQueries) == 0 || stats.TopQueries[0].Query != "hello" || stats.TopQueries[0].Count != 2 {
		t.Errorf("TopQueries = %+v, want hello:2 first", stats.TopQueries)
	}
	if len(stats.ZeroResultQueries) != 1 || stats.ZeroResultQueries[0].Query != "nope" {
		t.Errorf("ZeroResultQueries = %+v, want [nope]", stats.ZeroResultQueries)
	}
}

func TestAggregatorRecordsIndexEvent(t *testing.T) {
	agg := NewAggregator(nil)
	agg.recordIndexEvent(IndexEvent{Type: EventIndexDoc, DocumentID: 1})
	agg.recordIndexEvent(IndexEvent{Type: EventIndexDoc, DocumentID: 2})

	stats := agg.Stats()
	if stats.TotalDocIndexed != 2 {
		t.Errorf("TotalDocIndexed = %d, want 2", stats.TotalDocIndexed)
	}
}

func TestPercentileEmptyInput(t *testing.T) {
	if got := percentile(nil, 50); got != 0 {
		t.Errorf("percentile(nil, 50) = %d, want 0", got)
	}
}
