package question

import "sync"

// UsedSet tracks prompts already shown during one game session. It is
// owned by the session and injected into provider operations so separate
// sessions never exclude each other's questions.
type UsedSet struct {
	mu      sync.Mutex
	prompts map[string]struct{}
}

// NewUsedSet returns an empty used-question set.
func NewUsedSet() *UsedSet {
	return &UsedSet{prompts: make(map[string]struct{})}
}

// Has reports whether the prompt was already shown.
func (u *UsedSet) Has(prompt string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, ok := u.prompts[prompt]
	return ok
}

// Mark records a prompt as shown.
func (u *UsedSet) Mark(prompt string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.prompts[prompt] = struct{}{}
}

// Reset clears the set. Called once per new game so earlier questions
// become eligible again.
func (u *UsedSet) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.prompts = make(map[string]struct{})
}

// Len returns the number of tracked prompts.
func (u *UsedSet) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.prompts)
}
