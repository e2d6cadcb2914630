package bonus

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are an expert in workplace communication and professional development. " +
	"Generate high-quality quiz questions that help people practice real-world scenarios."

func buildPrompt(req Request, count int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate %d multiple choice questions for a quiz about %q.\n\n", count, req.Title)
	if req.Description != "" {
		fmt.Fprintf(&b, "Context: %s\n\n", req.Description)
	}

	b.WriteString("Requirements:\n")
	b.WriteString("- Focus on workplace scenarios similar to the existing questions\n")
	fmt.Fprintf(&b, "- Each question should have %d options (A, B, C, D)\n", optionsPerQuestion)
	b.WriteString("- Include detailed explanations for the correct answers\n")
	b.WriteString("- Make questions practical and realistic\n")
	b.WriteString("- Vary difficulty levels\n")
	b.WriteString("- Don't repeat concepts from existing questions\n")

	if len(req.Existing) > 0 {
		b.WriteString("\nExisting questions:\n")
		for _, text := range req.Existing {
			fmt.Fprintf(&b, "- %s\n", text)
		}
	}

	b.WriteString(`
Generate questions that test understanding of the core concepts in a fresh way.

Respond with JSON in this exact format:
{
  "questions": [
    {
      "text": "Question text here",
      "options": [
        { "text": "Option A text", "letter": "A" },
        { "text": "Option B text", "letter": "B" },
        { "text": "Option C text", "letter": "C" },
        { "text": "Option D text", "letter": "D" }
      ],
      "correctLetter": "B",
      "explanation": "Detailed explanation of why this is correct"
    }
  ]
}`)
	return b.String()
}
