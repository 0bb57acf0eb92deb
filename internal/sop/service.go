package sop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Generator is the JSON-mode chat surface the service needs. ai.Client
// satisfies it.
type Generator interface {
	Complete(ctx context.Context, system, user string, jsonMode bool) (string, error)
}

const systemPrompt = `You are an expert Standard Operating Procedure (SOP) generator for enterprise businesses.
Your goal is to generate detailed, professional, and actionable SOPs based on user input.

You MUST output strictly in VALID JSON format with the following structure:
{
  "title": "String",
  "id": "String (e.g. SOP-2024-XXX)",
  "version": "String",
  "purpose": "String",
  "scope": "String",
  "procedures": [
    {
      "step": "Step 1: Step Name",
      "details": ["Detail 1", "Detail 2"],
      "time": "String (e.g. 5 mins)"
    }
  ],
  "compliance": ["Compliance Point 1", "Compliance Point 2"],
  "troubleshooting": [
    { "issue": "Issue Name", "solution": "Solution Description" }
  ]
}

Ensure the content is professional, comprehensive, and directly addresses the user's request.`

// Service generates and persists SOPs. With no generator configured it
// returns a fixed demo document so the surface stays usable without a key.
type Service struct {
	store Store
	gen   Generator
	clock func() time.Time
}

func NewService(store Store, gen Generator) *Service {
	return &Service{store: store, gen: gen, clock: time.Now}
}

func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

type GenerateRequest struct {
	WorkspaceID string
	Title       string
	Category    string
	Description string
	CreatedBy   string
}

// Generate produces a structured SOP from a free-text description and stores
// it for the workspace.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (Record, error) {
	if req.WorkspaceID == "" {
		return Record{}, errors.New("sop: workspace id is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		return Record{}, errors.New("sop: description is required")
	}

	var content Content
	if s.gen == nil {
		content = demoContent(req.Title)
	} else {
		user := fmt.Sprintf("Create an SOP for a %q process titled %q. Description: %s", req.Category, req.Title, req.Description)
		raw, err := s.gen.Complete(ctx, systemPrompt, user, true)
		if err != nil {
			return Record{}, fmt.Errorf("generate sop: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &content); err != nil {
			return Record{}, fmt.Errorf("sop: model returned invalid JSON: %w", err)
		}
		if content.Title == "" {
			content.Title = req.Title
		}
	}

	rec := Record{
		ID:          uuid.NewString(),
		WorkspaceID: req.WorkspaceID,
		Category:    req.Category,
		Content:     content,
		CreatedBy:   req.CreatedBy,
		CreatedAt:   s.clock().UTC(),
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, workspaceID, id string) (Record, error) {
	return s.store.Get(ctx, workspaceID, id)
}

func (s *Service) List(ctx context.Context, workspaceID string) ([]Record, error) {
	return s.store.List(ctx, workspaceID)
}

func demoContent(title string) Content {
	if title == "" {
		title = "Generated SOP"
	}
	return Content{
		Title:   title,
		ID:      "SOP-DEMO-001",
		Version: "1.0",
		Purpose: "Demonstration of SOP structure (API Key Missing)",
		Scope:   "Demo Environment",
		Procedures: []Procedure{
			{
				Step:    "Step 1: Configure API Key",
				Details: []string{"Open the platform settings", "Add the OpenAI API key"},
				Time:    "2 mins",
			},
		},
		Compliance:      []string{"System Check"},
		Troubleshooting: []Troubleshooting{},
	}
}
