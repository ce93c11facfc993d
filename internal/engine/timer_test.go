package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebounce_DisarmedChannelIsNil(t *testing.T) {
	d := NewDebounce(10 * time.Millisecond)
	assert.Nil(t, d.C())
}

func TestDebounce_FiresAfterDelay(t *testing.T) {
	d := NewDebounce(10 * time.Millisecond)
	d.Schedule()

	select {
	case <-d.C():
	case <-time.After(time.Second):
		t.Fatal("debounce did not fire")
	}
}

func TestDebounce_ScheduleRestartsDelay(t *testing.T) {
	d := NewDebounce(50 * time.Millisecond)
	d.Schedule()
	time.Sleep(30 * time.Millisecond)
	d.Schedule()

	// The original timer would have fired by now; the restarted one not yet.
	select {
	case <-d.C():
		t.Fatal("debounce fired from the superseded schedule")
	case <-time.After(30 * time.Millisecond):
	}

	select {
	case <-d.C():
	case <-time.After(time.Second):
		t.Fatal("restarted debounce did not fire")
	}
}

func TestDebounce_CancelDisarms(t *testing.T) {
	d := NewDebounce(10 * time.Millisecond)
	d.Schedule()
	d.Cancel()
	assert.Nil(t, d.C())

	// Cancel when already disarmed is a no-op.
	d.Cancel()
}
