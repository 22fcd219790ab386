package watchers

import (
	"sync"
	"time"

	"github.com/vitruvius-tools/ums-hooks/internal/changelog"
	"github.com/vitruvius-tools/ums-hooks/internal/lock"
	"github.com/vitruvius-tools/ums-hooks/internal/logging"
	"github.com/vitruvius-tools/ums-hooks/internal/outcome"
	"github.com/vitruvius-tools/ums-hooks/internal/trigger"
	"github.com/vitruvius-tools/ums-hooks/internal/ums"
	"github.com/vitruvius-tools/ums-hooks/internal/watch"
)

// Merge wraps watch.Base with the post-merge handler (C8): reload (the
// VCS has already mutated working-tree files as part of the merge),
// validate, write the result, and write the permanent merge metadata
// record. Validation here is advisory — the merge commit already exists,
// so a Failure outcome is reported to the developer but never blocks.
type Merge struct {
	base *watch.Base
}

func NewMerge(paths trigger.Paths, pollInterval time.Duration, store ums.Store, umsLock *sync.Mutex, logger *logging.Logger, tickLock *lock.MutexMap) *Merge {
	log := logger.With("merge-watcher")
	tick := func() (bool, error) {
		rec, err := trigger.CheckAndClearMerge(paths)
		if err != nil {
			return handleClearErr(err, paths.TriggerPath(trigger.KindMerge), log)
		}

		umsLock.Lock()
		reloadErr := store.Reload()
		var o outcome.Outcome
		var valErr error
		if reloadErr == nil {
			o, valErr = store.Validate()
		}
		umsLock.Unlock()

		switch {
		case reloadErr != nil:
			o = outcome.FromException("ReloadException", reloadErr)
		case valErr != nil:
			o = outcome.FromException("ValidationException", valErr)
		}

		if err := trigger.WriteResult(paths.MergeResultsDir(), rec.RequestID, o); err != nil {
			log.Error("write merge result for %s failed: %v", rec.RequestID, err)
			return true, err
		}

		if err := changelog.WriteMergeMetadata(paths, changelog.MergeMetadata{
			MergeCommitSha: rec.MergeCommitSha,
			SourceBranch:   rec.SourceBranch,
			TargetBranch:   rec.TargetBranch,
			Valid:          o.IsValid(),
			Timestamp:      time.Now(),
		}); err != nil {
			log.Error("write merge metadata for %s failed: %v", rec.MergeCommitSha, err)
			return true, err
		}

		log.Info("merge trigger %s handled, valid=%v", rec.RequestID, o.IsValid())
		return true, nil
	}

	return &Merge{base: watch.New(trigger.KindMerge, pollInterval, paths.Root(), tick, log, tickLock)}
}

func (m *Merge) Start()            { m.base.Start() }
func (m *Merge) Stop()             { m.base.Stop() }
func (m *Merge) Base() *watch.Base { return m.base }
