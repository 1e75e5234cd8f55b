package orchestrator

import "copilot/internal/llm"

// systemPrompt frames every completion. It names the business domains the
// agent can reach so the model grounds its answers in them.
const systemPrompt = `You are an intelligent ERP assistant that helps users with business operations and workflows.
You have access to various services including HR, Inventory, Accounting, and Workflow management.

Your capabilities include:
- Answering questions about business processes
- Helping with data analysis and reporting
- Providing recommendations for operational improvements
- Assisting with task automation and workflow optimization
- Offering insights based on system data

Always be helpful, professional, and provide accurate information. If you're unsure about something,
ask for clarification rather than making assumptions. When possible, suggest specific actions
the user can take to achieve their goals.`

// buildMessages assembles the conversation handed to the completion backend:
// the system prompt, optionally extended with caller context, then the user
// input.
func buildMessages(userInput, context string) []llm.Message {
	prompt := systemPrompt
	if context != "" {
		prompt += "\n\nContext: " + context
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Content: prompt},
		{Role: llm.RoleUser, Content: userInput},
	}
}
