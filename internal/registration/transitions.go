package registration

// validTransitions contains the permitted workflow transitions. Completed is
// terminal for an instance; a fresh interaction resets to unauthenticated.
var validTransitions = map[State][]State{
	StateUnauthenticated: {
		StateAwaitingContact,
		// Returning-client fast path: a known phone or chat identity skips
		// the name prompt entirely.
		StateCompleted,
	},
	StateAwaitingContact: {
		StateAwaitingName,
		StateCompleted,
	},
	StateAwaitingName: {
		StateCompleted,
	},
	StateCompleted: {},
}

// IsTransitionAllowed reports whether moving from one state to another is valid.
func IsTransitionAllowed(from, to State) bool {
	// Any chat may restart registration from scratch.
	if to == StateUnauthenticated {
		return true
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, state := range allowed {
		if state == to {
			return true
		}
	}

	return false
}
