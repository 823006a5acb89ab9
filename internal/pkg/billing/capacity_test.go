package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitfox/FitFox/app/models"
)

func TestHasCapacity(t *testing.T) {
	plan := &models.Plan{ClientSlots: 10}

	tests := []struct {
		clients int
		want    bool
	}{
		{clients: 0, want: true},
		{clients: 9, want: true},
		{clients: 10, want: true},
		{clients: 11, want: false},
	}

	for _, tt := range tests {
		if got := HasCapacity(tt.clients, plan); got != tt.want {
			t.Fatalf("HasCapacity(%d, slots=10) = %v, want %v", tt.clients, got, tt.want)
		}
	}
}

func TestCheckCapacityError(t *testing.T) {
	plan := &models.Plan{ClientSlots: 2}

	require.NoError(t, CheckCapacity(2, plan))

	err := CheckCapacity(5, plan)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientCapacity)

	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 5, capErr.Clients)
	assert.Equal(t, 2, capErr.Slots)
	assert.Contains(t, err.Error(), "remove 3 clients")
}
