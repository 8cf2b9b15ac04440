package registration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransitionAllowed(t *testing.T) {
	testCases := []struct {
		name    string
		from    State
		to      State
		allowed bool
	}{
		{name: "start contact capture", from: StateUnauthenticated, to: StateAwaitingContact, allowed: true},
		{name: "returning client fast path", from: StateUnauthenticated, to: StateCompleted, allowed: true},
		{name: "new client enters name window", from: StateAwaitingContact, to: StateAwaitingName, allowed: true},
		{name: "returning client after contact", from: StateAwaitingContact, to: StateCompleted, allowed: true},
		{name: "name accepted or skipped", from: StateAwaitingName, to: StateCompleted, allowed: true},
		{name: "completed is terminal", from: StateCompleted, to: StateAwaitingName, allowed: false},
		{name: "cannot re-enter contact capture from name window", from: StateAwaitingName, to: StateAwaitingContact, allowed: false},
		{name: "cannot skip contact capture into name window", from: StateUnauthenticated, to: StateAwaitingName, allowed: false},
		{name: "any state may reset", from: StateCompleted, to: StateUnauthenticated, allowed: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, IsTransitionAllowed(tc.from, tc.to))
		})
	}
}
