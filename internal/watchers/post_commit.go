package watchers

import (
	"context"
	"sync"
	"time"

	"github.com/vitruvius-tools/ums-hooks/internal/changelog"
	"github.com/vitruvius-tools/ums-hooks/internal/lock"
	"github.com/vitruvius-tools/ums-hooks/internal/logging"
	"github.com/vitruvius-tools/ums-hooks/internal/trigger"
	"github.com/vitruvius-tools/ums-hooks/internal/ums"
	"github.com/vitruvius-tools/ums-hooks/internal/vcsutil"
	"github.com/vitruvius-tools/ums-hooks/internal/watch"
)

// PostCommit wraps watch.Base with the post-commit handler (C7): write
// the permanent changelog keyed by the real commit SHA. The provisional
// record the Validation Watcher wrote before the VCS had assigned that SHA
// is keyed by the pre-commit tree SHA, so it stays in place as a separate
// file.
type PostCommit struct {
	base *watch.Base
}

// NewPostCommit constructs the post-commit watcher. store, umsLock, and
// diff mirror the Validation Watcher's use of them: a view of the store
// taken on this tick is diffed against the view taken on this watcher's
// previous tick to populate the permanent changelog's FILE CHANGES
// section.
func NewPostCommit(paths trigger.Paths, pollInterval time.Duration, repoDir string, store ums.Store, umsLock *sync.Mutex, diff ums.DiffProducer, logger *logging.Logger, tickLock *lock.MutexMap) *PostCommit {
	log := logger.With("post-commit-watcher")
	var lastView ums.View
	tick := func() (bool, error) {
		rec, err := trigger.CheckAndClearPostCommit(paths)
		if err != nil {
			return handleClearErr(err, paths.TriggerPath(trigger.KindPostCommit), log)
		}

		author, authorErr := vcsutil.AuthorOf(context.Background(), repoDir, rec.CommitSha)
		if authorErr != nil {
			log.Warn("look up author of %s failed: %v", rec.CommitSha, authorErr)
		}

		umsLock.Lock()
		afterView, viewErr := store.OpenView()
		umsLock.Unlock()

		fileChanges := fileChangesSince(lastView, afterView, viewErr, diff, log, rec.CommitSha)
		if viewErr == nil {
			lastView = afterView
		}

		if err := changelog.Write(paths, changelog.Record{
			CommitSha:   rec.CommitSha,
			Branch:      rec.Branch,
			Author:      author.Name,
			AuthorEmail: author.Email,
			AuthorDate:  author.Date,
			FileChanges: fileChanges,
		}); err != nil {
			log.Error("write permanent changelog for %s failed: %v", rec.CommitSha, err)
			return true, err
		}

		log.Info("permanent changelog written for %s", trigger.ShortSha(rec.CommitSha))
		return true, nil
	}

	return &PostCommit{base: watch.New(trigger.KindPostCommit, pollInterval, paths.Root(), tick, log, tickLock)}
}

func (p *PostCommit) Start()            { p.base.Start() }
func (p *PostCommit) Stop()             { p.base.Stop() }
func (p *PostCommit) Base() *watch.Base { return p.base }
