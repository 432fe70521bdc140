package reset

// SetState forces the session into step holding token, for testing purposes.
func (w *Wizard) SetState(step Step, token string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.session.Step = step
	w.tokens.Replace(token)
}
