package store

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/esp-lang/espcore/internal/diagnostics"
	"github.com/esp-lang/espcore/internal/resolved"
	"github.com/esp-lang/espcore/internal/util"
)

func newID() string { return uuid.NewString() }

// SaveRun marshals a completed compile+resolve invocation and inserts it.
// ctx may be nil when resolution never ran (success == false).
func SaveRun(db *gorm.DB, sourcePath string, source []byte, success bool, ctx *resolved.ExecutionContext, diags *diagnostics.List) (*Run, error) {
	diagJSON, err := json.Marshal(diags.Items())
	if err != nil {
		return nil, err
	}

	run := &Run{
		ID:          newID(),
		SourcePath:  sourcePath,
		Success:     success,
		SourceSHA:   util.SHA256Hex(source),
		Diagnostics: datatypes.JSON(diagJSON),
		CreatedAt:   time.Time{}, // set by autoCreateTime on insert
	}

	if ctx != nil {
		run.RunID = ctx.RunID
		ctxJSON, err := json.Marshal(ctx)
		if err != nil {
			return nil, err
		}
		run.ExecutionContext = datatypes.JSON(ctxJSON)
	}

	if err := db.Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// LookupBySourceSHA returns the most recent successful run whose source
// digest matches sha, or (nil, gorm.ErrRecordNotFound) if none exists —
// the lookup the CLI runner uses to find the prior run it diffs a fresh
// compile against.
func LookupBySourceSHA(db *gorm.DB, sha string) (*Run, error) {
	var run Run
	err := db.Where("source_sha = ? AND success = ?", sha, true).
		Order("created_at DESC").
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// DecodeExecutionContext unmarshals a Run's stored Execution Context.
func (r *Run) DecodeExecutionContext() (*resolved.ExecutionContext, error) {
	if len(r.ExecutionContext) == 0 {
		return nil, errors.New("store: run has no execution context")
	}
	var ctx resolved.ExecutionContext
	if err := json.Unmarshal(r.ExecutionContext, &ctx); err != nil {
		return nil, err
	}
	return &ctx, nil
}

// PruneOldRuns deletes every run for sourcePath beyond the most recent
// retain runs, the retention policy named by config.Limits.RetentionRuns.
func PruneOldRuns(db *gorm.DB, sourcePath string, retain int) error {
	if retain <= 0 {
		return nil
	}
	var ids []string
	err := db.Model(&Run{}).
		Where("source_path = ?", sourcePath).
		Order("created_at DESC").
		Offset(retain).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return db.Where("id IN ?", ids).Delete(&Run{}).Error
}
