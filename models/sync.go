package models

// SyncResult reports the outcome of one reconciliation pass. Per-event
// failures are aggregated in Errors rather than aborting the batch.
type SyncResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Pruned  int      `json:"pruned"`
	Errors  []string `json:"errors,omitempty"` // event ids that failed to persist
}
