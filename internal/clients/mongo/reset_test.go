package mongo

// reset clears the singleton without going through Shutdown.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	client = nil
	db = nil
	shutDown = false
}
