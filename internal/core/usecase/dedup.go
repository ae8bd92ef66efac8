package usecase

import "github.com/emreakar/regsearch/internal/core/domain"

// removeDuplicateContexts drops every context whose parent has already been
// seen and assigns survivors a contiguous 1-based ranking in first-seen order.
func removeDuplicateContexts(contexts []domain.RetrievalContext) []domain.RetrievalContext {
	seen := make(map[string]struct{}, len(contexts))
	out := make([]domain.RetrievalContext, 0, len(contexts))

	ranking := 1
	for _, context := range contexts {
		if _, ok := seen[context.ParentID]; ok {
			continue
		}
		seen[context.ParentID] = struct{}{}
		context.Ranking = ranking
		ranking++
		out = append(out, context)
	}
	return out
}
