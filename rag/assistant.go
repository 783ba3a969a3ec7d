package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/mudler/localnotes/rag/types"
	"github.com/sashabaranov/go-openai"
)

const promptTemplate = `You're a notes assistant. Answer the QUESTION based on the CONTEXT from the notes catalog.
Use only the facts from the CONTEXT when answering the QUESTION.

QUESTION: %s

CONTEXT:
%s`

// BuildPrompt assembles the LLM prompt from the question and the
// search results, one context block per result.
func BuildPrompt(question string, results []types.Result) string {
	var context strings.Builder
	for _, r := range results {
		if topic := r.Topic(); topic != "" {
			fmt.Fprintf(&context, "topic: %s\n", topic)
		}
		if label := r.Label(); label != "" {
			fmt.Fprintf(&context, "command: %s\n", label)
		}
		fmt.Fprintf(&context, "notes: %s\n\n", r.Content)
	}

	return strings.TrimSpace(fmt.Sprintf(promptTemplate, question, context.String()))
}

// Answer is a generated answer together with the results it was
// grounded on.
type Answer struct {
	Answer  string         `json:"answer"`
	Results []types.Result `json:"results"`
}

// Assistant answers questions about a notebook by retrieving relevant
// entries and asking a chat model.
type Assistant struct {
	client *openai.Client
	model  string
	topK   int
}

// NewAssistant creates an assistant using the given chat model.
func NewAssistant(client *openai.Client, model string, topK int) *Assistant {
	if topK <= 0 {
		topK = 5
	}
	return &Assistant{
		client: client,
		model:  model,
		topK:   topK,
	}
}

// Ask searches the notebook and generates an answer grounded on the
// results.
func (a *Assistant) Ask(ctx context.Context, nb *Notebook, question string) (Answer, error) {
	results, err := nb.Search(question, a.topK)
	if err != nil {
		return Answer{}, fmt.Errorf("failed to search notebook: %w", err)
	}

	prompt := BuildPrompt(question, results)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return Answer{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Answer{}, fmt.Errorf("no response from OpenAI API")
	}

	return Answer{
		Answer:  resp.Choices[0].Message.Content,
		Results: results,
	}, nil
}
