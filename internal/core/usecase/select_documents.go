package usecase

import (
	"sort"
	"strings"

	"github.com/emreakar/regsearch/internal/core/domain"
)

// documentCap bounds answer context size regardless of the requested top_k.
const documentCap = 3

// selectDistinctTitles re-sorts (title, date) pairs by date client-side and
// returns distinct titles in sorted order, capped. The client-side re-sort
// exists because the index's sort contract does not guarantee a total order
// for date ties.
func selectDistinctTitles(refs []domain.DocumentRef, sorting string, cap int) []string {
	if cap <= 0 {
		cap = documentCap
	}

	sorted := make([]domain.DocumentRef, len(refs))
	copy(sorted, refs)
	descending := strings.Contains(sorting, domain.SortDescending)
	sort.SliceStable(sorted, func(i, j int) bool {
		if descending {
			return sorted[i].Date > sorted[j].Date
		}
		return sorted[i].Date < sorted[j].Date
	})

	seen := make(map[string]struct{}, cap)
	titles := make([]string, 0, cap)
	for _, ref := range sorted {
		if len(titles) == cap {
			break
		}
		if _, ok := seen[ref.Title]; ok {
			continue
		}
		seen[ref.Title] = struct{}{}
		titles = append(titles, ref.Title)
	}
	return titles
}
