package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWaitlistDecision(t *testing.T) {
	testCases := []struct {
		name     string
		enrolled bool
		copies   int
		wantErr  error
	}{
		{"no copies, not enrolled", false, 0, nil},
		{"copies left, not enrolled", false, 2, ErrBookAvailable},
		{"no copies, enrolled", true, 0, ErrAlreadyWaitlisted},
		// A restock must not turn an enrolled member's duplicate join into
		// an availability advisory.
		{"copies left, enrolled", true, 2, ErrAlreadyWaitlisted},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, waitlistDecision(tt.enrolled, tt.copies))
		})
	}
}
