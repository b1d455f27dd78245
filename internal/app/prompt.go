package app

import (
	"strings"

	"maindata/internal/model"
)

// ResponseDelimiter separates the explanation from the SQL in a model
// response: a line of exactly sixteen equals signs. The prompt instructs the
// model to emit it, and the generation engine splits on it.
const ResponseDelimiter = "================"

// PromptAssembler renders the full generation prompt. Build is deterministic:
// identical inputs produce identical prompts, so it can be tested without the
// model or the database.
type PromptAssembler struct {
	publicBaseURL string
}

func NewPromptAssembler(publicBaseURL string) *PromptAssembler {
	return &PromptAssembler{
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (a *PromptAssembler) Build(
	question string,
	history []model.ChatMessage,
	datasets []model.DatasetCatalog,
	refs []model.ReferenceQuery,
) string {
	var b strings.Builder

	b.WriteString(`You are an AI data analyst specialized in generating SQL queries for Indonesian government data.
Your task is to translate natural language questions into valid SQL queries in DuckDB dialect.

When generating SQL:
1. Focus on clarity and correctness
2. Include comments to explain your approach
3. Consider the Indonesian context of the data
4. Make use of the example queries if relevant
5. The query runs in an ephemeral DuckDB environment with no pre-existing tables, so always load each dataset from its URL with ` + "`CREATE TABLE local_table_name AS SELECT * FROM read_csv('<CSV_URL>');`" + ` before querying it
6. Answer with a brief explanation first, then a line containing exactly ` + ResponseDelimiter + ` and nothing else, then the SQL query only, without code fences

Conversation history:
`)
	b.WriteString(a.renderHistory(history))

	b.WriteString("\n\nRelevant datasets:\n")
	b.WriteString(a.renderDatasets(datasets))

	b.WriteString("\n\nReference SQL examples:\n")
	b.WriteString(a.renderReferences(refs))

	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nGenerate a SQL query to answer this question, along with a brief explanation of your approach.\n")

	return b.String()
}

func (a *PromptAssembler) renderHistory(history []model.ChatMessage) string {
	if len(history) == 0 {
		return "No previous conversation."
	}
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		lines = append(lines, capitalizeRole(msg.Role)+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}

func (a *PromptAssembler) renderDatasets(datasets []model.DatasetCatalog) string {
	if len(datasets) == 0 {
		return "No specific dataset information available."
	}
	lines := make([]string, 0, len(datasets))
	for _, d := range datasets {
		lines = append(lines, "- "+d.Title+" [url: "+a.accessURL(d)+"]: "+d.Description)
	}
	return strings.Join(lines, "\n")
}

func (a *PromptAssembler) renderReferences(refs []model.ReferenceQuery) string {
	if len(refs) == 0 {
		return "No reference examples available."
	}
	lines := make([]string, 0, len(refs))
	for _, ref := range refs {
		lines = append(lines, "- Title: "+ref.Title+"\n  Description: "+ref.Description+"\n  SQL: "+ref.SQLQuery)
	}
	return strings.Join(lines, "\n")
}

// accessURL is the reference the generated SQL should load data from: the
// source directly when it allows cross-origin fetches, otherwise our proxy
// endpoint keyed by slug.
func (a *PromptAssembler) accessURL(d model.DatasetCatalog) string {
	if d.IsCORSAllowed {
		return d.URL
	}
	return a.publicBaseURL + "/dataset/" + d.Slug
}

func capitalizeRole(role string) string {
	if role == "" {
		return role
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
