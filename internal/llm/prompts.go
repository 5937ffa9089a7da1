package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NoteContext is the slice of a note the answer prompt is allowed to see:
// insights, tags and links are withheld.
type NoteContext struct {
	ID      string
	Title   string
	Content string
	Summary string
}

// SummarizePrompt asks for a short summary and tag suggestions for a note.
// The model must respond with JSON only.
func SummarizePrompt(title, content string, insights []string) string {
	note, _ := json.Marshal(map[string]any{
		"title":    title,
		"content":  content,
		"insights": insights,
	})
	return fmt.Sprintf(`Summarize the note and suggest tags. Respond with JSON only: {"summary":"...","tags":["tag"]}.

Note: %s`, note)
}

// AnswerPrompt asks for a synthesized answer to a question, anchored on the
// user's candidate notes but not limited to them.
func AnswerPrompt(question string, notes []NoteContext) string {
	var b strings.Builder
	for i, n := range notes {
		if i > 0 {
			b.WriteString("\n\n")
		}
		summary := n.Summary
		if summary == "" {
			summary = "-"
		}
		fmt.Fprintf(&b, "Note %d:\nTitle: %s\nSummary: %s\nContent: %s", i+1, n.Title, summary, n.Content)
	}

	return fmt.Sprintf(`You are an expert AI knowledge agent with deep domain expertise. Your role is to provide comprehensive, detailed, and insightful answers that go well beyond simple facts.

When answering:
1. Provide a thorough, multi-paragraph explanation with depth and nuance (at least 2 paragraphs).
2. Explain the topic in full sentences; do not just list keywords or bullet points from the notes.
3. Use the user's notes as anchors: expand on each idea with definitions, reasoning, and examples.
4. Include relevant examples, use cases, and real-world applications.
5. Add context, history, or background when helpful.
6. Be conversational yet professional, like an expert mentor.
7. If the notes are insufficient or unrelated, answer fully from your general knowledge instead of saying "not found".
8. For common definitions (e.g., HTML, web development), always provide a complete, standalone explanation.

Respond with JSON only: {"answer":"...","sources":[{"id":"...","title":"..."}]}

Question: %s

User's Knowledge Base (use when relevant, but do not limit the answer to it):
%s`, question, b.String())
}
