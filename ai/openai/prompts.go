package openai

import "fmt"

const summaryPrompt = `Summarize the given text in 2-4 sentences of plain prose.

Rules:
- Capture the main subject and the key claims or findings.
- Do not include a preamble, headings, bullet points, or quotes.
- Do not mention that you are summarizing; state the content directly.
- Write in the same language as the input text.`

const reduceSummaryPrompt = `The following are partial summaries of consecutive sections of one document.
Combine them into a single 2-4 sentence summary of the whole document.

Rules:
- Do not include a preamble, headings, bullet points, or quotes.
- Do not mention sections or partial summaries; describe the document as a whole.`

const keywordResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "keywords": {
      "type": "array",
      "items": {
        "type": "string",
        "pattern": "^[a-z0-9]+([ -][a-z0-9]+)*$"
      }
    }
  },
  "required": ["keywords"],
  "additionalProperties": false
}`

const keywordPromptTemplate = `Extract the most important topical keywords from the given text and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Keywords must be lowercase, 1-3 words each.
- Order keywords by relevance, most relevant first.
- Include only topics the text is actually about. Do not hallucinate.
- Prefer specific terms over generic ones ("vector search" over "technology").
- Return at most 10 keywords.
- If no keywords can be identified, return "keywords": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "BadgerDB is an embeddable key-value store written in Go, built on an LSM tree."
Output:
{
  "keywords": ["badgerdb", "key-value store", "go", "lsm tree", "embedded database"]
}

Example (nothing topical):
Input: "ok thanks see you tomorrow"
Output:
{
  "keywords": []
}`

// buildKeywordPrompt creates the keyword system prompt with the response
// schema embedded.
func buildKeywordPrompt() string {
	return fmt.Sprintf(keywordPromptTemplate, keywordResponseSchema)
}
