// Package contracts declares the interfaces this module consumes from
// external collaborators (spec §6): PRD parsing, persistent task storage,
// logging, and configuration. None are implemented here beyond the small
// adapters in internal/config and internal/logger that let this repo's own
// ambient stack satisfy Logger/ConfigStore for its own use.
package contracts

import (
	"context"
	"time"

	"taskflow/core/internal/task"
)

// ParsedPRD is the shape returned by a PRD parser. Only Features is consumed
// by the orchestration engine; the remaining metadata is opaque.
type ParsedPRD struct {
	ID          string
	Title       string
	Description string
	Metadata    ParsedPRDMetadata
}

// ParsedPRDMetadata carries the feature list a parser extracts from a PRD.
type ParsedPRDMetadata struct {
	Features []Feature
}

// Feature is a single requirement extracted from a PRD, convertible to a
// task.Task by the caller.
type Feature struct {
	ID             string
	Title          string
	Description    string
	EstimatedHours float64
	Dependencies   []string
}

// PRDParser ingests a PRD document and extracts a structured feature list.
// Implementations (Markdown/HTML/JSON splitters, requirement heuristics) are
// out of scope for this module; only the contract is specified.
type PRDParser interface {
	ParsePRD(ctx context.Context, content []byte, fileType string, options map[string]any) (*ParsedPRD, error)
}

// TaskStore provides CRUD over tasks with atomic save to a backing file or
// database. Implementations are out of scope for this module.
type TaskStore interface {
	Create(ctx context.Context, t *task.Task) error
	Get(ctx context.Context, id string) (*task.Task, error)
	Update(ctx context.Context, t *task.Task) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*task.Task, error)
	Save(ctx context.Context) error
}

// Logger is the structured logging contract consumed by the orchestration
// engine and gateway.
type Logger interface {
	Debug(message string, fields map[string]any)
	Info(message string, fields map[string]any)
	Warn(message string, fields map[string]any)
	Error(message string, fields map[string]any)
}

// ConfigStore is the dotted-key configuration contract consumed by the
// orchestration engine and gateway.
type ConfigStore interface {
	GetString(key, def string) string
	GetInt(key string, def int) int
	GetFloat(key string, def float64) float64
	GetBool(key string, def bool) bool
	GetDuration(key string, def time.Duration) time.Duration
	GetStringMap(key string) map[string]string
}
