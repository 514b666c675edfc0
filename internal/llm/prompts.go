package llm

import "fmt"

// ExtractionPrompt generates the prompt for distilling a raw decision
// narrative into structured reasoning fields.
func ExtractionPrompt(decision string) string {
	return fmt.Sprintf(`You are a decision analysis system. Distill the decision below into structured reasoning.

DECISION:
%s

Extract:
- summary: one sentence restating the decision
- goal: what the person is ultimately trying to achieve
- reasoning: the rationale behind the decision, in their own terms
- constraints: concrete limits that shaped it (time, money, obligations)
- tags: 2-5 short lowercase topic keywords (e.g. "career", "finance", "health")

Rules:
- Stay faithful to the text, do not invent motives
- Every field must be present; use an empty string or empty array when the text gives nothing
- Return ONLY a JSON object, no other text

Return a JSON object:
{
  "summary": "...",
  "goal": "...",
  "reasoning": "...",
  "constraints": ["..."],
  "tags": ["..."]
}`, decision)
}

// AnswerPrompt generates the prompt for answering a question grounded
// in the user's own past decisions.
func AnswerPrompt(question, contextBlock string) string {
	if contextBlock == "" {
		return fmt.Sprintf(`You are a personal decision advisor. The user has no relevant past decisions on record.

QUESTION:
%s

Answer helpfully and briefly, and note that nothing in their decision history bears on this.`, question)
	}

	return fmt.Sprintf(`You are a personal decision advisor. Ground your answer in the user's own past decisions below. Refer to them explicitly where relevant.

PAST DECISIONS:
%s

QUESTION:
%s

Rules:
- Base the advice on the listed decisions; do not invent history
- If the decisions conflict with the question, say so
- Keep the answer under 200 words`, contextBlock, question)
}
