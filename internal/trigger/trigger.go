package trigger

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/vitruvius-tools/ums-hooks/internal/atomicio"
	"github.com/vitruvius-tools/ums-hooks/internal/model"
)

// Create writes rec to path atomically. It is the single write path shared
// by every trigger kind; callers pass the already-populated record (request
// id, if any, filled in by the caller before calling Create).
func Create(path string, rec any) error {
	content, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal trigger: %w", err)
	}
	if err := atomicio.WriteText(path, content); err != nil {
		return fmt.Errorf("write trigger %s: %w", path, err)
	}
	return nil
}

// CreateValidationTrigger generates a fresh request id, writes a
// ValidationTrigger, and returns the id.
func CreateValidationTrigger(paths Paths, sha, branch string) (string, error) {
	id, err := model.NewRequestID()
	if err != nil {
		return "", err
	}
	rec := model.ValidationTrigger{RequestID: id, CommitSha: sha, Branch: branch}
	if err := Create(paths.TriggerPath(KindValidation), rec); err != nil {
		return "", err
	}
	return id, nil
}

// CreateReloadTrigger writes a ReloadTrigger. Reload is fire-and-forget and
// carries no request id.
func CreateReloadTrigger(paths Paths, branch string) error {
	return Create(paths.TriggerPath(KindReload), model.ReloadTrigger{Branch: branch})
}

// CreatePostCommitTrigger writes a PostCommitTrigger once the real commit
// SHA is known.
func CreatePostCommitTrigger(paths Paths, sha, branch string) error {
	return Create(paths.TriggerPath(KindPostCommit), model.PostCommitTrigger{CommitSha: sha, Branch: branch})
}

// CreateMergeTrigger generates a fresh request id, writes a MergeTrigger,
// and returns the id.
func CreateMergeTrigger(paths Paths, mergeSha, sourceBranch, targetBranch string) (string, error) {
	id, err := model.NewRequestID()
	if err != nil {
		return "", err
	}
	rec := model.MergeTrigger{
		RequestID:      id,
		MergeCommitSha: mergeSha,
		SourceBranch:   sourceBranch,
		TargetBranch:   targetBranch,
	}
	if err := Create(paths.TriggerPath(KindMerge), rec); err != nil {
		return "", err
	}
	return id, nil
}

// CheckAndClear atomically claims the trigger file at path, if present, and
// decodes it into out (a pointer). The file is renamed out of the way
// before being read, so a second concurrent caller polling the same path
// can never observe the same trigger twice. Returns ErrTriggerAbsent if no
// trigger is present. A trigger that exists but fails to decode is moved
// into umsDir's quarantine directory for later inspection (falling back to
// outright deletion if the move itself fails) and ErrMalformedTrigger is
// returned; a trigger that decodes cleanly is discarded once claimed.
func CheckAndClear(umsDir, path string, out any) error {
	claimPath := path + fmt.Sprintf(".accepting.%d.%d", os.Getpid(), time.Now().UnixNano())

	if err := os.Rename(path, claimPath); err != nil {
		if os.IsNotExist(err) {
			return ErrTriggerAbsent
		}
		return fmt.Errorf("claim trigger %s: %w", path, err)
	}

	content, err := os.ReadFile(claimPath)
	if err != nil {
		_ = atomicio.DiscardMalformed(claimPath)
		return fmt.Errorf("read claimed trigger %s: %w", claimPath, err)
	}

	if err := json.Unmarshal(content, out); err != nil {
		if _, qerr := atomicio.Quarantine(umsDir, claimPath); qerr != nil {
			_ = atomicio.DiscardMalformed(claimPath)
		}
		return fmt.Errorf("%w: %v", ErrMalformedTrigger, err)
	}

	_ = os.Remove(claimPath)
	return nil
}

// CheckAndClearValidation claims and decodes a pending ValidationTrigger.
func CheckAndClearValidation(paths Paths) (model.ValidationTrigger, error) {
	var rec model.ValidationTrigger
	err := CheckAndClear(paths.Root(), paths.TriggerPath(KindValidation), &rec)
	return rec, err
}

// CheckAndClearReload claims and decodes a pending ReloadTrigger.
func CheckAndClearReload(paths Paths) (model.ReloadTrigger, error) {
	var rec model.ReloadTrigger
	err := CheckAndClear(paths.Root(), paths.TriggerPath(KindReload), &rec)
	return rec, err
}

// CheckAndClearPostCommit claims and decodes a pending PostCommitTrigger.
func CheckAndClearPostCommit(paths Paths) (model.PostCommitTrigger, error) {
	var rec model.PostCommitTrigger
	err := CheckAndClear(paths.Root(), paths.TriggerPath(KindPostCommit), &rec)
	return rec, err
}

// CheckAndClearMerge claims and decodes a pending MergeTrigger.
func CheckAndClearMerge(paths Paths) (model.MergeTrigger, error) {
	var rec model.MergeTrigger
	err := CheckAndClear(paths.Root(), paths.TriggerPath(KindMerge), &rec)
	return rec, err
}

// ShortSha truncates a commit SHA to the 7-character prefix used to key
// changelog file names.
func ShortSha(sha string) string {
	if len(sha) <= 7 {
		return sha
	}
	return sha[:7]
}
