// Package chat implements the supportive-listener companion: crisis keyword
// detection, helpline resources and the text-generation call.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

// Message roles accepted from clients.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ErrNoUserMessage is returned when a conversation has nothing to answer.
var ErrNoUserMessage = errors.New("conversation has no user message")

// FallbackResponse is sent with crisis resources when generation fails on a flagged message.
const FallbackResponse = "I'm having trouble responding right now, but you don't have to go through this alone. Please reach out to one of these services:"

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator produces a single-turn completion.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, prompt string) (string, error)
}

// Reply is the companion's answer to the latest user message.
type Reply struct {
	Response string    `json:"response"`
	Detected Detection `json:"detected"`
}

// Option configures optional behaviour for the Companion.
type Option func(*Companion)

// WithLogger overrides the logger used to report generation failures.
func WithLogger(logger *log.Logger) Option {
	return func(c *Companion) {
		c.logger = logger
	}
}

// WithSystemPrompt replaces the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(c *Companion) {
		c.systemPrompt = prompt
	}
}

// Companion answers the last user message and appends crisis resources when needed.
type Companion struct {
	generator    Generator
	systemPrompt string
	logger       *log.Logger
}

// NewCompanion constructs a Companion backed by generator.
func NewCompanion(generator Generator, opts ...Option) *Companion {
	c := &Companion{
		generator:    generator,
		systemPrompt: SystemPrompt,
		logger:       log.New(log.Writer(), "[chat] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reply generates a response to the most recent user message. Only that message
// is sent to the generator and scanned for crisis keywords.
func (c *Companion) Reply(ctx context.Context, messages []Message) (*Reply, error) {
	prompt, ok := lastUserMessage(messages)
	if !ok {
		return nil, ErrNoUserMessage
	}

	detected := Detect(prompt)
	recordDetection(detected)

	response, err := c.generator.Generate(ctx, c.systemPrompt, prompt)
	if err != nil {
		c.logger.Printf("generation failed: %v", err)
		if detected.Any() {
			recordRequest("fallback")
			return &Reply{Response: AppendResources(FallbackResponse, detected), Detected: detected}, nil
		}
		recordRequest("error")
		return nil, fmt.Errorf("generate reply: %w", err)
	}

	recordRequest("ok")
	return &Reply{Response: AppendResources(response, detected), Detected: detected}, nil
}

func lastUserMessage(messages []Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != RoleUser {
			continue
		}
		content := strings.TrimSpace(messages[i].Content)
		if content == "" {
			return "", false
		}
		return content, true
	}
	return "", false
}
