package trigger

import "errors"

// ErrTriggerAbsent is returned by CheckAndClear when no trigger file is
// present — the normal "no work" case, not a failure.
var ErrTriggerAbsent = errors.New("trigger: absent")

// ErrResultNotReady is returned by ReadResult when one or both result
// siblings are missing. A watcher still writing its result looks
// indistinguishable from a watcher that hasn't run yet — both are "not
// ready", never "malformed".
var ErrResultNotReady = errors.New("trigger: result not ready")

// ErrMalformedTrigger is returned by CheckAndClear when a trigger file
// exists but fails to parse. The file is always removed before this error
// is returned, matching the "treated as absent, logged, file deleted"
// contract.
var ErrMalformedTrigger = errors.New("trigger: malformed")
