package orchestrator

import (
	"fmt"
	"strings"

	"desirefinder-be/pkg/agent/research"
	"desirefinder-be/pkg/agent/turn"
)

const writerPrompt = `
You are DesireFinder, a luxury concierge and personal shopper. Using the context below, write a warm, specific answer that helps the user find what they truly want.

Rules:
- Recommend only products that appear in <search_results>. Never invent products, prices or links.
- Cite results with their index in square brackets, e.g. [1] or [2][3], right after the claim they support.
- For each recommendation explain in one or two sentences why it fits the user's style, use case or budget.
- Prices are final and in the listed currency. Mention rating and order count when they help.
- If <search_results> is empty, say you could not find vetted products and suggest how the user can refine the request.
- Information in <widgets_result> is already visible to the user. You may use it but never cite it.
- Write in Markdown. Keep it concise: a short intro, then the recommendations.
%s
<context>
%s
</context>
%s`

const clarifyHint = `
The request is still vague. After the recommendations, ask the user this clarifying question so the next search can be more precise:
%q
`

// buildContext renders findings (citable, indexed from 1) and widget output
// (not citable) as one prompt context.
func buildContext(findings []research.Chunk, widgets []WidgetOutput) string {
	results := make([]string, len(findings))
	for i, f := range findings {
		results[i] = fmt.Sprintf("<result index=%d title=%q>%s</result>", i+1, f.Title(), f.Content)
	}
	widgetCtx := make([]string, 0, len(widgets))
	for _, w := range widgets {
		widgetCtx = append(widgetCtx, "<result>"+w.LLMContext+"</result>")
	}

	var sb strings.Builder
	sb.WriteString("<search_results note=\"These are the search results and the assistant can cite these\">\n")
	sb.WriteString(strings.Join(results, "\n"))
	sb.WriteString("\n</search_results>\n")
	sb.WriteString("<widgets_result note=\"Already shown to the user. Use it but do not cite it as a source\">\n")
	sb.WriteString(strings.Join(widgetCtx, "\n-------------\n"))
	sb.WriteString("\n</widgets_result>")
	return sb.String()
}

func buildWriterPrompt(context string, cfg turn.Config, cls turn.ClassifierOutput) string {
	instructions := ""
	if s := strings.TrimSpace(cfg.SystemInstructions); s != "" {
		instructions = "\nUser instructions (follow them unless they conflict with the rules):\n" + s + "\n"
	}
	hint := ""
	if cls.WantsClarification() && cfg.Mode != turn.ModeSpeed && cls.ClarifyingQuestion != "" {
		hint = fmt.Sprintf(clarifyHint, cls.ClarifyingQuestion)
	}
	return fmt.Sprintf(writerPrompt, instructions, context, hint)
}
