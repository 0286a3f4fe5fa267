package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/and161185/ecotour/internal/errs"
	"github.com/and161185/ecotour/internal/httpclient"
	"github.com/and161185/ecotour/internal/validate"
)

// Turn is one prior message sent as conversation context.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Answer is the reply of an AI endpoint: text, structured results, or both.
type Answer struct {
	Response string          `json:"response,omitempty"`
	Results  json.RawMessage `json:"results,omitempty"`
}

func (a *Answer) Validate() error {
	if a.Response == "" && len(a.Results) == 0 {
		return errors.New("answer: empty response")
	}
	return nil
}

// RecommendRequest describes what the tourist is looking for.
type RecommendRequest struct {
	Preferences string  `json:"preferences" validate:"required"`
	Destination string  `json:"destination,omitempty"`
	Budget      float64 `json:"budget,omitempty" validate:"gte=0"`
	Difficulte  string  `json:"difficulte,omitempty" validate:"omitempty,oneof=facile moyen difficile"`
}

// AI forwards questions to the backend assistant endpoints.
type AI struct {
	c *httpclient.Client
}

type askRequest struct {
	Question string `json:"question"`
	History  []Turn `json:"history,omitempty"`
}

type chatRequest struct {
	Message string `json:"message"`
	History []Turn `json:"history,omitempty"`
}

// Ask sends a one-shot question.
func (a *AI) Ask(ctx context.Context, question string, history []Turn) (*Answer, error) {
	if question == "" {
		return nil, errs.NewValidation("question", "required")
	}
	var out Answer
	if err := a.c.Post(ctx, "/ai/ask", askRequest{Question: question, History: history}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Chat sends one message of a conversation kept by the backend.
func (a *AI) Chat(ctx context.Context, message string, history []Turn) (*Answer, error) {
	if message == "" {
		return nil, errs.NewValidation("message", "required")
	}
	var out Answer
	if err := a.c.Post(ctx, "/ai/chat", chatRequest{Message: message, History: history}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecommendActivities asks for activities matching req.
func (a *AI) RecommendActivities(ctx context.Context, req RecommendRequest) (*Answer, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, err
	}
	var out Answer
	if err := a.c.Post(ctx, "/ai/recommend-activities", &req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SPARQL runs query against the backend knowledge graph.
func (a *AI) SPARQL(ctx context.Context, query string) (*Answer, error) {
	if query == "" {
		return nil, errs.NewValidation("query", "required")
	}
	var out Answer
	if err := a.c.Post(ctx, "/ai/sparql", map[string]string{"query": query}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reset drops the conversation context held by the backend.
func (a *AI) Reset(ctx context.Context) error {
	return a.c.Do(ctx, http.MethodPost, "/ai/reset", nil, nil)
}

// AnalyzeVideo uploads a video for analysis, with an optional prompt.
func (a *AI) AnalyzeVideo(ctx context.Context, filename string, video io.Reader, prompt string) (*Answer, error) {
	if video == nil {
		return nil, errs.NewValidation("video", "required")
	}
	body := &httpclient.Multipart{
		Files: []httpclient.FilePart{{Field: "video", Filename: filename, Content: video}},
	}
	if prompt != "" {
		body.Fields = map[string]string{"prompt": prompt}
	}
	var out Answer
	if err := a.c.Post(ctx, "/ai/analyze-video", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
