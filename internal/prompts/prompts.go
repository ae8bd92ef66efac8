package prompts

import (
	"fmt"
	"strings"
	"time"

	"github.com/emreakar/regsearch/internal/core/domain"
)

// FeatureExtractionSystemMessage instructs the model to turn a user question
// into the structured query descriptor consumed by document selection and
// hybrid retrieval. The response must be a single JSON object.
const FeatureExtractionSystemMessage = `You are a helpful assistant extracting search features from the user's input.
The user asks for information about regulations, possibly with restrictions such
as the time interval in which a regulation was notified. Figure out:
1- the specific date restrictions, if any
2- the required date sorting of results ("desc" means the latest regulation(s),
   "asc" means the earliest one(s)), if the input hints at it
3- the number of regulations to consider (e.g. "the last 3", "the newest one"),
   -1 when unrestricted
4- the language of the input
5- three paraphrased questions built from the input (dates removed)
6- keywords from the input, empty when there are none
Respond with a single JSON object with the keys
begin_date, end_date, queries, keywords, sorting, top_k, language.

Example:
Input: What regulations are notified for the year 2023?
Output: {
  "begin_date": "2023-01-01T00:00:00Z",
  "end_date": "2023-12-31T23:59:59Z",
  "queries": ["What regulations are notified?", "Can you list the regulations?", "What are the regulations that have been formally announced?"],
  "keywords": [],
  "sorting": "",
  "top_k": -1,
  "language": "English"
}

Example:
Input: Does the newest regulation allow glass packaging to be reused for recycling?
Output: {
  "begin_date": "",
  "end_date": "",
  "queries": ["Does the newest regulation allow glass packaging to be reused for recycling?", "Is reuse of glass packaging for recycling permitted under recent regulations?", "Do current regulations permit glass packaging to be used for recycling?"],
  "keywords": ["glass packaging", "recycling"],
  "sorting": "desc",
  "top_k": 1,
  "language": "English"
}`

// AnsweringSystemMessage frames answer composition from retrieved contexts.
const AnsweringSystemMessage = `You are a helpful assistant answering questions about regulations.
Answer only from the provided contexts. When the contexts are insufficient,
say so directly. Reference the regulation titles you relied on.`

// BuildFeatureExtractionPrompt injects today's date so relative ranges like
// "the last 3 days" resolve to absolute bounds.
func BuildFeatureExtractionPrompt(question string, today time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Today's date is %s.\n\n", today.Format("2006-01-02"))
	b.WriteString("Here is the question:\nQuestion:\n")
	b.WriteString(question)
	b.WriteString("\n\nHere are the extracted features in JSON format:\n")
	return b.String()
}

// BuildAnsweringPrompt lays out the retrieved contexts with their references
// ahead of the question.
func BuildAnsweringPrompt(question string, contexts []domain.RetrievalContext, language string) string {
	var b strings.Builder
	b.WriteString("Here are the information contexts:\n")
	for idx, context := range contexts {
		fmt.Fprintf(&b, "\nContext %d:\n", idx)
		fmt.Fprintf(&b, "  Text: `%s`\n", context.ParentChunk)
		fmt.Fprintf(&b, "  Reference: `%s` notified at %s\n", context.Title, context.Date)
		fmt.Fprintf(&b, "  Website: `%s`\n", context.Website)
	}

	b.WriteString("\nHere is the question:\nQuestion:\n")
	b.WriteString(question)
	b.WriteString("\n")
	if language != "" {
		fmt.Fprintf(&b, "Answer in %s.\n", language)
	}
	b.WriteString("\nHere is the answer:\nAnswer:\n")
	return b.String()
}
