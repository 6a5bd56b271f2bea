// Package store persists compile+resolve runs to a gorm-backed relational
// database, so a CLI invocation can look up a prior run's Execution
// Context and diagnostics for the same source, and so a retention policy
// can prune old runs.
package store

import (
	"time"

	"gorm.io/datatypes"
)

// Run is one compile+resolve invocation against a single source file.
type Run struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	SourcePath string `gorm:"type:text;index"`

	Success   bool   `gorm:"not null"`
	RunID     string `gorm:"type:varchar(36);index"` // resolved.ExecutionContext.RunID, empty if resolution never ran
	SourceSHA string `gorm:"type:varchar(64);index"` // sha256 of the compiled source, for cache-hit lookups

	Diagnostics      datatypes.JSON `gorm:"type:jsonb"`
	ExecutionContext datatypes.JSON `gorm:"type:jsonb"` // null when Success is false

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (Run) TableName() string { return "runs" }
