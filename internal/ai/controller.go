package ai

import "time"

// Controller represents the AI controller contract the TickManager drives
type Controller interface {
	// Start starts the AI controller
	Start()

	// Stop stops the AI controller and silently resets it to idle
	Stop()

	// State returns the current decision state
	State() State

	// Tick performs one AI decision step. now is supplied by the tick
	// manager so every controller in a tick shares a single timestamp.
	Tick(now time.Time)
}
