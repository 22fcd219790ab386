package watchers

import (
	"sync"
	"time"

	"github.com/vitruvius-tools/ums-hooks/internal/lock"
	"github.com/vitruvius-tools/ums-hooks/internal/logging"
	"github.com/vitruvius-tools/ums-hooks/internal/trigger"
	"github.com/vitruvius-tools/ums-hooks/internal/ums"
	"github.com/vitruvius-tools/ums-hooks/internal/watch"
)

// Reload wraps watch.Base with the post-checkout reload handler (C6):
// reload the store and write nothing back. Reload is fire-and-forget —
// the trigger file's eventual absence is the only signal a caller needs.
type Reload struct {
	base *watch.Base
}

func NewReload(paths trigger.Paths, pollInterval time.Duration, store ums.Store, umsLock *sync.Mutex, logger *logging.Logger, tickLock *lock.MutexMap) *Reload {
	log := logger.With("reload-watcher")
	tick := func() (bool, error) {
		rec, err := trigger.CheckAndClearReload(paths)
		if err != nil {
			return handleClearErr(err, paths.TriggerPath(trigger.KindReload), log)
		}

		umsLock.Lock()
		reloadErr := store.Reload()
		umsLock.Unlock()

		if reloadErr != nil {
			log.Error("reload for branch %s failed: %v", rec.Branch, reloadErr)
			return true, reloadErr
		}

		log.Info("reloaded store for branch %s", rec.Branch)
		return true, nil
	}

	return &Reload{base: watch.New(trigger.KindReload, pollInterval, paths.Root(), tick, log, tickLock)}
}

func (r *Reload) Start()            { r.base.Start() }
func (r *Reload) Stop()             { r.base.Stop() }
func (r *Reload) Base() *watch.Base { return r.base }
