package bot

import "sync"

// Uploads tracks, per caller, whether the next document should be
// consumed as a mail template. Absent means idle. State lives only in
// process memory; a caller who was mid-upload across a restart just
// reissues /template.
type Uploads struct {
	mu      sync.Mutex
	pending map[string]bool
}

// NewUploads returns an empty upload tracker.
func NewUploads() *Uploads {
	return &Uploads{pending: map[string]bool{}}
}

// Begin marks the caller as awaiting a template document.
func (u *Uploads) Begin(callerID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pending[callerID] = true
}

// Pending reports whether the caller is awaiting a template document.
func (u *Uploads) Pending(callerID string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.pending[callerID]
}

// Consume clears the caller's pending flag and reports whether it was
// set. The flag clears whether or not the upload then succeeds.
func (u *Uploads) Consume(callerID string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	was := u.pending[callerID]
	delete(u.pending, callerID)
	return was
}
