package tasks

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/mrlokans/scribe/internal/covers"
	"github.com/mrlokans/scribe/internal/database/stories"
)

// CoverIndex is the story side of a cover audit.
type CoverIndex interface {
	ListCoverReferences(ctx context.Context) ([]stories.CoverRef, error)
	StoryExists(ctx context.Context, id uint) (bool, error)
	ClearCover(ctx context.Context, id uint) error
}

var _ CoverIndex = (*stories.Repository)(nil)

// CoverAuditReport summarizes one audit pass.
type CoverAuditReport struct {
	Checked       int      // stories with a cover reference
	DanglingRefs  []uint   // stories whose cover file was missing
	OrphanFiles   []string // files with no matching story
	DryRun        bool
	FailedRepairs int
}

func (r *CoverAuditReport) String() string {
	mode := ""
	if r.DryRun {
		mode = " (dry run)"
	}
	return fmt.Sprintf("checked %d covers, %d dangling references, %d orphan files%s",
		r.Checked, len(r.DanglingRefs), len(r.OrphanFiles), mode)
}

// CoverAuditor reconciles story cover references with the files on disk.
// A reference to a missing file is cleared; a file named after a story that
// no longer exists is removed. Files that don't follow the {id}.jpg naming
// are left alone.
type CoverAuditor struct {
	stories CoverIndex
	store   covers.Store
}

func NewCoverAuditor(index CoverIndex, store covers.Store) *CoverAuditor {
	return &CoverAuditor{stories: index, store: store}
}

// Run performs one pass. With dryRun set nothing is modified.
func (a *CoverAuditor) Run(ctx context.Context, dryRun bool) (*CoverAuditReport, error) {
	report := &CoverAuditReport{DryRun: dryRun}

	refs, err := a.stories.ListCoverReferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cover references: %w", err)
	}
	report.Checked = len(refs)

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		name := covers.NameFromStoredPath(ref.CoverImage)
		if name != "" && a.store.Exists(name) {
			continue
		}
		report.DanglingRefs = append(report.DanglingRefs, ref.StoryID)
		if dryRun {
			continue
		}
		if err := a.stories.ClearCover(ctx, ref.StoryID); err != nil {
			log.Printf("Cover audit: failed to clear cover of story %d: %v", ref.StoryID, err)
			report.FailedRepairs++
		}
	}

	names, err := a.store.List()
	if err != nil {
		return report, fmt.Errorf("list cover files: %w", err)
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		id, ok := storyIDFromFileName(name)
		if !ok {
			continue
		}
		exists, err := a.stories.StoryExists(ctx, id)
		if err != nil {
			return report, fmt.Errorf("check story %d: %w", id, err)
		}
		if exists {
			continue
		}
		report.OrphanFiles = append(report.OrphanFiles, name)
		if dryRun {
			continue
		}
		if err := a.store.Remove(name); err != nil {
			log.Printf("Cover audit: failed to remove %s: %v", name, err)
			report.FailedRepairs++
		}
	}

	return report, nil
}

// storyIDFromFileName parses "{id}.jpg".
func storyIDFromFileName(name string) (uint, bool) {
	base, ok := strings.CutSuffix(name, ".jpg")
	if !ok || base == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(base, 10, 64)
	if err != nil || id == 0 || covers.FileName(uint(id)) != name {
		return 0, false
	}
	return uint(id), true
}

// CoverAuditTask requests one audit pass.
type CoverAuditTask struct {
	DryRun bool `json:"dry_run"`
}

// Config returns the queue configuration for cover audits.
func (t CoverAuditTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cover_audit",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CoverAuditProcessor runs the auditor for each queued task.
func CoverAuditProcessor(auditor *CoverAuditor) backlite.QueueProcessor[CoverAuditTask] {
	return func(ctx context.Context, task CoverAuditTask) error {
		if auditor == nil {
			return fmt.Errorf("cover auditor not configured")
		}
		report, err := auditor.Run(ctx, task.DryRun)
		if err != nil {
			return fmt.Errorf("cover audit: %w", err)
		}
		log.Printf("[TASK] Cover audit: %s", report)
		return nil
	}
}

// NewCoverAuditQueue creates the backlite queue for cover audits.
func NewCoverAuditQueue(auditor *CoverAuditor) backlite.Queue {
	return backlite.NewQueue(CoverAuditProcessor(auditor))
}
