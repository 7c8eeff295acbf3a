package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/grievance/ai"
)

const extractResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "Location":   {"type": "array", "items": {"type": "string"}},
    "Issue Type": {"type": "array", "items": {"type": "string"}},
    "Urgency":    {"type": "array", "items": {"type": "string"}},
    "Date":       {"type": "array", "items": {"type": "string"}},
    "Person":     {"type": "array", "items": {"type": "string"}}
  },
  "required": ["Location", "Issue Type", "Urgency", "Date", "Person"],
  "additionalProperties": false
}`

const extractPromptTemplate = `You analyze civic complaints filed by citizens about public infrastructure.
Extract the features of the complaint and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- "Issue Type": the problems reported, using these exact lowercase names when they apply: %s.
  Use a short lowercase phrase for anything else. Put the main problem first.
- "Urgency": phrases from the text that signal urgency or danger, copied lowercase. Known phrases: %s.
- "Location": place names, streets, landmarks and areas mentioned, copied as written.
- "Date": dates, weekdays and durations mentioned, copied as written (e.g. "since last week", "monday", "12/03/2024").
- "Person": names of people mentioned. Never include the complainant's pronouns.
- Include only what the text states. Do not hallucinate. Use [] for a field with nothing to report.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "Huge pothole near Main St, urgent. It's been there since last week."
Output:
{"Location":["Main St"],"Issue Type":["pothole"],"Urgency":["urgent","it's been"],"Date":["since last week"],"Person":[]}

Example (informal, no punctuation):
Input: "street light not working near city park from monday ravi from ward office said he will come"
Output:
{"Location":["city park"],"Issue Type":["street light"],"Urgency":["not working"],"Date":["monday"],"Person":["ravi"]}`

// buildSystemPrompt creates the system prompt with the known vocabulary embedded.
func buildSystemPrompt() string {
	return fmt.Sprintf(extractPromptTemplate,
		extractResponseSchema,
		strings.Join(ai.IssueKeywords, ", "),
		strings.Join(ai.UrgencyKeywords, ", "))
}
