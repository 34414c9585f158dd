package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualAdvanceFiresDueWaiters(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := NewManual(start)

	early := clk.After(time.Hour)
	late := clk.After(3 * time.Hour)
	assert.Equal(t, 2, clk.Waiters())

	clk.Advance(90 * time.Minute)

	select {
	case fired := <-early:
		assert.Equal(t, start.Add(90*time.Minute), fired)
	default:
		t.Fatal("waiter due after one hour did not fire")
	}
	select {
	case <-late:
		t.Fatal("waiter due after three hours fired early")
	default:
	}
	require.Equal(t, 1, clk.Waiters())

	clk.Set(start.Add(3 * time.Hour))
	<-late
	assert.Equal(t, 0, clk.Waiters())
}

func TestManualAfterNonPositiveFiresImmediately(t *testing.T) {
	clk := NewManual(time.Unix(0, 0))
	select {
	case <-clk.After(0):
	default:
		t.Fatal("zero duration should fire immediately")
	}
}
