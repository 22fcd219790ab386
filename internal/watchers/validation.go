// Package watchers implements the four trigger-specific handlers, each
// wired to a watch.Base instance. Every handler follows the same shape:
// claim the trigger, acquire the coarse UMS lock for the duration of the
// UMS call, convert any failure into a Failure outcome rather than
// letting it escape, and never let a bad trigger take the watcher down.
package watchers

import (
	"errors"
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

// Validation wraps watch.Base with the pre-commit validation handler
// (C5): validate all loaded resources, write the result, and — on
// success — write a provisional changelog keyed by the trigger-provided
// SHA (the real SHA is not yet known at this stage; the Post-Commit
// Watcher supersedes this record once it is).
type Validation struct {
	base *watch.Base
}

// NewValidation constructs the validation watcher. umsLock is the single
// coarse-grained lock shared by every watcher that mutates or reads
// through the store. diff summarizes the difference between the view this
// watcher saw on its previous successful tick and the view it sees now,
// feeding the provisional changelog's FILE CHANGES section. tickLock is
// the Coordinator's shared per-watcher-name mutex map, guarding against a
// manual scan running concurrently with this watcher's own poll loop.
func NewValidation(paths trigger.Paths, pollInterval time.Duration, store ums.Store, umsLock *sync.Mutex, diff ums.DiffProducer, logger *logging.Logger, tickLock *lock.MutexMap) *Validation {
	log := logger.With("validation-watcher")
	var lastView ums.View
	tick := func() (bool, error) {
		rec, err := trigger.CheckAndClearValidation(paths)
		if err != nil {
			return handleClearErr(err, paths.TriggerPath(trigger.KindValidation), log)
		}

		umsLock.Lock()
		o, valErr := store.Validate()
		afterView, viewErr := store.OpenView()
		umsLock.Unlock()

		if valErr != nil {
			o = outcome.FromException("ValidationException", valErr)
		}

		if err := trigger.WriteResult(paths.ResultsDir(), rec.RequestID, o); err != nil {
			log.Error("write result for %s failed: %v", rec.RequestID, err)
			return true, err
		}

		if o.IsValid() {
			fileChanges := fileChangesSince(lastView, afterView, viewErr, diff, log, rec.RequestID)
			if viewErr == nil {
				lastView = afterView
			}

			if err := changelog.Write(paths, changelog.Record{
				CommitSha:   rec.CommitSha,
				Branch:      rec.Branch,
				AuthorDate:  time.Now(),
				FileChanges: fileChanges,
			}); err != nil {
				log.Error("write provisional changelog for %s failed: %v", rec.CommitSha, err)
			}
		}

		log.Info("validation trigger %s handled, valid=%v", rec.RequestID, o.IsValid())
		return true, nil
	}

	return &Validation{base: watch.New(trigger.KindValidation, pollInterval, paths.Root(), tick, log, tickLock)}
}

// fileChangesSince formats the diff between before and after for a
// changelog's FILE CHANGES section. before is nil on a watcher's first
// tick, in which case there is nothing to compare against and the
// sentinel "no changes" rendering is used.
func fileChangesSince(before, after ums.View, viewErr error, diff ums.DiffProducer, log *logging.Logger, requestID string) string {
	if viewErr != nil {
		log.Warn("open view for %s failed: %v", requestID, viewErr)
		return ""
	}
	if before == nil {
		return ""
	}
	changes, err := diff.Summarize(before, after)
	if err != nil {
		log.Warn("summarize file changes for %s failed: %v", requestID, err)
		return ""
	}
	return ums.FormatFileChanges(changes)
}

func (v *Validation) Start() { v.base.Start() }
func (v *Validation) Stop()  { v.base.Stop() }
func (v *Validation) Base() *watch.Base { return v.base }

// handleClearErr is shared by all four watchers: absence of a trigger is
// the normal case (not accepted, not an error to surface); a malformed
// trigger has already been moved into quarantine (or deleted, if that move
// failed) by CheckAndClear and is only logged.
func handleClearErr(err error, path string, log *logging.Logger) (bool, error) {
	switch {
	case errors.Is(err, trigger.ErrTriggerAbsent):
		return false, nil
	case errors.Is(err, trigger.ErrMalformedTrigger):
		log.Warn("malformed trigger at %s moved to quarantine: %v", path, err)
		return false, nil
	default:
		return false, err
	}
}
