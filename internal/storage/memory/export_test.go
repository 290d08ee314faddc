package memory

// HeldLocks reports how many room locks are currently tracked.
func (r *GameRepository) HeldLocks() int {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()

	return len(r.locks)
}
