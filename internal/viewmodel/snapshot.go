// Package viewmodel projects stored buckets into the display-ready state
// snapshot that surfaces render verbatim. Building a snapshot never
// mutates anything; all display strings ride along so surfaces stay free
// of copy text.
package viewmodel

import "time"

// Snapshot is the full state a surface needs to render itself.
type Snapshot struct {
	GeneratedAt time.Time             `json:"generatedAt"`
	Global      BucketView            `json:"global"`
	Workspaces  map[string]BucketView `json:"workspaces"`
	Strings     Strings               `json:"strings"`
}

// BucketView is one rendered list.
type BucketView struct {
	Label     string     `json:"label"`
	EmptyText string     `json:"emptyText"`
	Items     []ItemView `json:"items"`
}

// ItemView is a single row, already in display order.
type ItemView struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
