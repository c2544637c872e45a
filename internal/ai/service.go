// Package ai generates content drafts and client emails with Gemini.
// Failures surface as a single error; there is no retry or backoff.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

type generator interface {
	generate(ctx context.Context, prompt string) (string, error)
}

type Service struct {
	gen   generator
	model string
}

type geminiGenerator struct {
	client *genai.Client
	model  string
}

func (g *geminiGenerator) generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := result.Text()
	if text == "" {
		return "", errors.New("model returned no text")
	}
	return text, nil
}

// NewService creates a Gemini-backed generation service.
func NewService(ctx context.Context, apiKey, model string) (*Service, error) {
	if apiKey == "" {
		return nil, errors.New("AI API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Service{gen: &geminiGenerator{client: client, model: model}, model: model}, nil
}

// GenerateRequest describes what to draft.
type GenerateRequest struct {
	Prompt        string
	ContentType   string
	Tone          string
	ClientContext string
}

// GenerateText drafts plain text content.
func (s *Service) GenerateText(ctx context.Context, req GenerateRequest) (string, error) {
	if req.Prompt == "" {
		return "", errors.New("prompt is required")
	}
	return s.gen.generate(ctx, buildContentPrompt(req))
}

// Email is a structured generated email.
type Email struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// GenerateEmail drafts a client email as {subject, body}. A response that
// cannot be parsed as JSON falls back to the whole text as the body.
func (s *Service) GenerateEmail(ctx context.Context, req GenerateRequest) (Email, error) {
	if req.Prompt == "" {
		return Email{}, errors.New("prompt is required")
	}

	raw, err := s.gen.generate(ctx, buildEmailPrompt(req))
	if err != nil {
		return Email{}, err
	}

	var email Email
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &email); err != nil || email.Body == "" {
		return Email{Subject: "", Body: strings.TrimSpace(raw)}, nil
	}
	return email, nil
}

func buildContentPrompt(req GenerateRequest) string {
	var b strings.Builder
	b.WriteString("You are a content writer for a marketing agency.\n")
	if req.ContentType != "" {
		fmt.Fprintf(&b, "Content type: %s\n", req.ContentType)
	}
	if req.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", req.Tone)
	}
	if req.ClientContext != "" {
		fmt.Fprintf(&b, "Client context: %s\n", req.ClientContext)
	}
	b.WriteString("\n")
	b.WriteString(req.Prompt)
	return b.String()
}

func buildEmailPrompt(req GenerateRequest) string {
	var b strings.Builder
	b.WriteString("You are an account manager writing a client email.\n")
	if req.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", req.Tone)
	}
	if req.ClientContext != "" {
		fmt.Fprintf(&b, "Client context: %s\n", req.ClientContext)
	}
	b.WriteString("Respond with JSON only: {\"subject\": \"...\", \"body\": \"...\"}\n\n")
	b.WriteString(req.Prompt)
	return b.String()
}

// stripCodeFence unwraps ```json fences models like to add.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
