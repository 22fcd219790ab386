package coordinator

import "errors"

// ErrCoordinatorAlreadyRunning is returned by Run when the coordinator
// lock at .ums/locks/coordinator.lock is already held by another process.
var ErrCoordinatorAlreadyRunning = errors.New("coordinator: already running")
