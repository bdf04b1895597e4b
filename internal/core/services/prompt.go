package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
)

const (
	filenameInstruction = "Given a filename, first decide if it is educational/coursework material, " +
		"then suggest the best folder."

	visionInstruction = "Look at the image content to understand what this file is about. " +
		"Use the visual content (text, formulas, diagrams, code, lecture slides, handwritten notes) " +
		"to determine the subject matter, NOT just the filename. IMPORTANT: Screenshots of lecture notes, " +
		"textbook pages, slides, formulas, code, academic websites, or any educational content ARE relevant " +
		"coursework material. Treat them the same as a PDF or document about that subject."

	textInstruction = "IMPORTANT: Classify this file based PRIMARILY on the extracted text content below, " +
		"NOT the filename. The filename may be generic (like 'PS2.pdf' or 'notes.pdf') but the actual " +
		"content reveals the subject. Look for subject-specific keywords, course names, topics, formulas, " +
		"or terminology in the extracted text to determine the correct folder."
)

const responseRules = `Respond with ONLY a JSON object in this format:
{
  "is_relevant": true,
  "folder": "suggested folder path",
  "confidence": 0.95,
  "reasoning": "brief explanation"
}

Rules:
- is_relevant: true if the file is educational material (lecture slides, notes, assignments, textbooks, academic papers, course-related documents, chatbot conversations about coursework, screenshots of lecture content, formulas, code or academic websites). Set false for memes, entertainment, games, personal photos, installers, music, videos unrelated to courses, social media content or shopping.
- If is_relevant is false, set folder to "" and confidence to 0
- If is_relevant is true and the file clearly belongs to one of the available folders, use the exact folder path from the list
- If is_relevant is true but the file does NOT fit any of the available folders, set folder to "` + domain.UnsortedFolder + `". Do NOT force-fit it into an unrelated folder
- confidence should be 0-1 (1 = very confident)
- Consider file extension, name patterns, and common use cases
- Be concise in reasoning`

// DefaultInstructions returns the built-in instruction per prompt name.
func DefaultInstructions() map[string]string {
	return map[string]string{
		driven.PromptFilename: filenameInstruction,
		driven.PromptVision:   visionInstruction,
		driven.PromptText:     textInstruction,
	}
}

// PromptName returns the prompt name for mode. A nil mode is filename-only.
func PromptName(mode domain.Mode) string {
	if mode == nil {
		return driven.PromptFilename
	}
	return mode.Name()
}

// BuildPrompt renders the classification prompt for req with the built-in
// instruction.
func BuildPrompt(req domain.ClassificationRequest) string {
	return RenderPrompt(req, DefaultInstructions()[PromptName(req.Mode)])
}

// RenderPrompt renders the classification prompt for req, opening with
// instruction.
func RenderPrompt(req domain.ClassificationRequest, instruction string) string {
	var contentSection string
	if m, ok := req.Mode.(domain.TextContent); ok {
		contentSection = "\n\nExtracted text content (PRIORITIZE THIS for classification):\n" + m.Text
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a file organization assistant for a student. %s\n\n", instruction)
	fmt.Fprintf(&b, "Filename: %s%s\n\n", req.Filename, contentSection)
	b.WriteString("Available course folders:\n")
	b.WriteString(strings.Join(req.Folders, "\n"))
	b.WriteString("\n\n")
	b.WriteString(responseRules)

	if len(req.Hints) > 0 {
		b.WriteString("\n\nLearn from these past corrections by the user:\n")
		b.WriteString(strings.Join(req.Hints, "\n"))
		b.WriteString("\n\nUse these examples to improve your accuracy. " +
			"If a similar filename appears, apply what you learned.")
	}
	return b.String()
}
