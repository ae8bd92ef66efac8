package azsearch

import (
	"fmt"
	"strings"

	"github.com/emreakar/regsearch/internal/core/ports"
)

// keywordBoost weights extracted keyword terms above plain question words in
// the lexical leg of a hybrid search.
const keywordBoost = 4

// buildSearchText renders the lexical leg of a hybrid search. Extracted
// keywords replace the paraphrased query entirely: the boosted disjunction is
// the whole expression, the raw question text only serves when no keyword
// survived trimming.
func buildSearchText(queryText string, keywords []string) string {
	boosted := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		boosted = append(boosted, fmt.Sprintf(`"%s"^%d`, escapeLucenePhrase(keyword), keywordBoost))
	}
	if len(boosted) > 0 {
		return strings.Join(boosted, " OR ")
	}
	if text := strings.TrimSpace(queryText); text != "" {
		return escapeLucenePhrase(text)
	}
	return "*"
}

// buildFilter renders a SearchFilter as an OData $filter expression. Date
// bounds are DateTimeOffset literals and need no quoting; title values are
// string literals with single quotes doubled.
func buildFilter(filter ports.SearchFilter) string {
	var clauses []string
	if filter.BeginDate != "" {
		clauses = append(clauses, "date ge "+filter.BeginDate)
	}
	if filter.EndDate != "" {
		clauses = append(clauses, "date le "+filter.EndDate)
	}
	if len(filter.Titles) > 0 {
		titleClauses := make([]string, 0, len(filter.Titles))
		for _, title := range filter.Titles {
			titleClauses = append(titleClauses, fmt.Sprintf("title eq '%s'", escapeODataString(title)))
		}
		clause := strings.Join(titleClauses, " or ")
		if len(titleClauses) > 1 {
			clause = "(" + clause + ")"
		}
		clauses = append(clauses, clause)
	}
	return strings.Join(clauses, " and ")
}

func escapeODataString(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}

func escapeLucenePhrase(value string) string {
	return strings.ReplaceAll(value, `"`, `\"`)
}
