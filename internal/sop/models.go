package sop

import "time"

// Procedure is one numbered step of an SOP.
type Procedure struct {
	Step    string   `json:"step"`
	Details []string `json:"details"`
	Time    string   `json:"time"`
}

// Troubleshooting pairs a known issue with its resolution.
type Troubleshooting struct {
	Issue    string `json:"issue"`
	Solution string `json:"solution"`
}

// Content is the structured body of a standard operating procedure, in the
// shape the generator model is instructed to emit.
type Content struct {
	Title           string            `json:"title"`
	ID              string            `json:"id"`
	Version         string            `json:"version"`
	Purpose         string            `json:"purpose"`
	Scope           string            `json:"scope"`
	Procedures      []Procedure       `json:"procedures"`
	Compliance      []string          `json:"compliance"`
	Troubleshooting []Troubleshooting `json:"troubleshooting"`
}

// Record is a generated SOP persisted for a workspace.
type Record struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Category    string    `json:"category"`
	Content     Content   `json:"content"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}
