package model

// ValidationTrigger is written by the pre-commit hook. Its presence at
// .ums/validate-trigger signals a pending pre-commit validation request.
type ValidationTrigger struct {
	RequestID string `json:"request_id"`
	CommitSha string `json:"commit_sha"`
	Branch    string `json:"branch"`
}

// ReloadTrigger is written by the post-checkout hook. It carries no request
// id: reload is fire-and-forget, and the only signal a consumer needs is
// the eventual absence of the trigger file.
type ReloadTrigger struct {
	Branch string `json:"branch"`
}

// PostCommitTrigger is written by the post-commit hook once the real commit
// SHA is known, so the changelog can be rewritten under its permanent key.
type PostCommitTrigger struct {
	CommitSha string `json:"commit_sha"`
	Branch    string `json:"branch"`
}

// MergeTrigger is written by the post-merge hook after a merge commit has
// already been created.
type MergeTrigger struct {
	RequestID     string `json:"request_id"`
	MergeCommitSha string `json:"merge_commit_sha"`
	SourceBranch  string `json:"source_branch"`
	TargetBranch  string `json:"target_branch"`
}
