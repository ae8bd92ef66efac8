package usecase

import (
	"sort"

	"github.com/emreakar/regsearch/internal/core/domain"
)

type fusedContext struct {
	context domain.RetrievalContext
	score   float64
	order   int
}

// fuseContextsRRF merges independently ranked context lists (one per
// paraphrased query) with reciprocal-rank fusion: each parent scores
// sum(1/(k+rank)) over the lists containing it. Each parent is represented by
// the first full record seen for it; score ties keep first-seen input order.
func fuseContextsRRF(lists [][]domain.RetrievalContext, rrfK int) []domain.RetrievalContext {
	if rrfK <= 0 {
		rrfK = 60
	}

	acc := make(map[string]*fusedContext)
	order := 0
	for _, list := range lists {
		for _, context := range list {
			candidate, ok := acc[context.ParentID]
			if !ok {
				candidate = &fusedContext{context: context, order: order}
				acc[context.ParentID] = candidate
				order++
			}
			candidate.score += 1.0 / float64(rrfK+context.Ranking)
		}
	}

	fused := make([]*fusedContext, 0, len(acc))
	for _, candidate := range acc {
		fused = append(fused, candidate)
	}
	sort.SliceStable(fused, func(i, j int) bool {
		if fused[i].score != fused[j].score {
			return fused[i].score > fused[j].score
		}
		return fused[i].order < fused[j].order
	})

	out := make([]domain.RetrievalContext, 0, len(fused))
	for rank, candidate := range fused {
		context := candidate.context
		context.Ranking = rank + 1
		out = append(out, context)
	}
	return out
}
