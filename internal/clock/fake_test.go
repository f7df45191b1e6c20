package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock_AfterFuncFiresInDeadlineOrder(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := NewFakeClock(start)

	var fired []time.Duration
	clk.AfterFunc(300*time.Millisecond, func() { fired = append(fired, clk.Now().Sub(start)) })
	clk.AfterFunc(100*time.Millisecond, func() { fired = append(fired, clk.Now().Sub(start)) })

	clk.Advance(200 * time.Millisecond)
	assert.Equal(t, []time.Duration{100 * time.Millisecond}, fired)

	clk.Advance(time.Second)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 300 * time.Millisecond}, fired)
	assert.Equal(t, start.Add(1200*time.Millisecond), clk.Now())
}

func TestFakeClock_StoppedTimerDoesNotFire(t *testing.T) {
	clk := NewFakeClock(time.Now())
	called := false
	timer := clk.AfterFunc(time.Second, func() { called = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	clk.Advance(2 * time.Second)
	assert.False(t, called)
	assert.Equal(t, 0, clk.Waiters())
}

func TestFakeClock_TimerScheduledDuringAdvanceUsesFiringTime(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := NewFakeClock(start)

	var second time.Time
	clk.AfterFunc(100*time.Millisecond, func() {
		clk.AfterFunc(100*time.Millisecond, func() { second = clk.Now() })
	})

	clk.Advance(time.Second)
	assert.Equal(t, start.Add(200*time.Millisecond), second)
}

func TestFakeClock_AfterChannel(t *testing.T) {
	clk := NewFakeClock(time.Now())
	ch := clk.After(50 * time.Millisecond)

	select {
	case <-ch:
		t.Fatal("channel fired before advance")
	default:
	}

	clk.Advance(50 * time.Millisecond)
	select {
	case <-ch:
	default:
		t.Fatal("expected channel to fire")
	}
}
