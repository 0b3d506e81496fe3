package schedule

import "fmt"

// SyncError wraps any download, extraction or persistence failure during a
// sync for one city.
type SyncError struct {
	City string
	Err  error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s: %v", e.City, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// NotSyncedError reports a static-data read for a city with no successful
// prior sync. The read path never substitutes empty structures for it.
type NotSyncedError struct {
	City string
}

func (e *NotSyncedError) Error() string {
	return fmt.Sprintf("static schedule for %s was never synced", e.City)
}
