package models

import "strings"

// PushEvent is the subset of a git provider push webhook the build trigger reads
type PushEvent struct {
	Ref        string  `json:"ref"`               // Full git ref, e.g. refs/heads/main
	Before     string  `json:"before,omitempty"`  // Commit the ref pointed at before the push
	After      string  `json:"after,omitempty"`   // Commit the ref points at after the push
	Deleted    bool    `json:"deleted,omitempty"` // True when the push deleted the ref
	HeadCommit *Commit `json:"head_commit"`       // Tip commit, nil for deletions
}

// Commit identifies a single commit in a push event
type Commit struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
	URL     string `json:"url,omitempty"`
}

// CommitID returns the commit the push moved the ref to. The head commit wins;
// After is used when the provider omits head_commit. Returns "" for deletions.
func (e PushEvent) CommitID() string {
	if e.Deleted {
		return ""
	}
	if e.HeadCommit != nil && e.HeadCommit.ID != "" {
		return e.HeadCommit.ID
	}
	if strings.Trim(e.After, "0") == "" {
		return ""
	}
	return e.After
}

// BuildResult is returned to the lambda runtime by the build trigger.
// Skipped is set when the push was for another ref; Branch and Commit otherwise.
type BuildResult struct {
	Skipped string `json:"skipped,omitempty"`
	Branch  string `json:"branch,omitempty"`
	Commit  string `json:"commit,omitempty"`
}
