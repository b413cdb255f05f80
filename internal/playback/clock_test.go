package playback

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (f *fakeClock) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestClock(durationMs int64) (*Clock, *fakeClock) {
	fc := newFakeClock()
	c := NewClock(durationMs, testLogger())
	c.now = fc.now
	return c, fc
}

func TestClock_InitialState(t *testing.T) {
	c, _ := newTestClock(5000)
	defer c.Close()

	if c.IsPlaying() {
		t.Fatal("new clock should be stopped")
	}
	if got := c.PositionMs(); got != 0 {
		t.Fatalf("initial position = %d, want 0", got)
	}
}

func TestClock_SeekClamps(t *testing.T) {
	c, _ := newTestClock(5000)
	defer c.Close()

	c.SeekTo(-100)
	if got := c.PositionMs(); got != 0 {
		t.Fatalf("position after negative seek = %d, want 0", got)
	}

	c.SeekTo(99999)
	if got := c.PositionMs(); got != 5000 {
		t.Fatalf("position after overlong seek = %d, want 5000", got)
	}

	c.SeekTo(2500)
	if got := c.PositionMs(); got != 2500 {
		t.Fatalf("position = %d, want 2500", got)
	}
}

func TestClock_PlayAdvancesPosition(t *testing.T) {
	c, fc := newTestClock(5000)
	defer c.Close()

	c.Play()
	if !c.IsPlaying() {
		t.Fatal("clock should be playing")
	}

	fc.advance(750 * time.Millisecond)
	if got := c.PositionMs(); got != 750 {
		t.Fatalf("position after 750ms = %d, want 750", got)
	}
}

func TestClock_PauseFreezesPosition(t *testing.T) {
	c, fc := newTestClock(5000)
	defer c.Close()

	c.Play()
	fc.advance(500 * time.Millisecond)
	c.Pause()

	if c.IsPlaying() {
		t.Fatal("clock should be paused")
	}
	if got := c.PositionMs(); got != 500 {
		t.Fatalf("position after pause = %d, want 500", got)
	}

	fc.advance(time.Second)
	if got := c.PositionMs(); got != 500 {
		t.Fatalf("paused position moved to %d, want 500", got)
	}
}

func TestClock_SeekWhilePlaying(t *testing.T) {
	c, fc := newTestClock(5000)
	defer c.Close()

	c.Play()
	fc.advance(500 * time.Millisecond)
	c.SeekTo(3000)

	if !c.IsPlaying() {
		t.Fatal("seek must not stop playback")
	}
	fc.advance(200 * time.Millisecond)
	if got := c.PositionMs(); got != 3200 {
		t.Fatalf("position after mid-play seek = %d, want 3200", got)
	}
}

func TestClock_PlayFromEndRewinds(t *testing.T) {
	c, _ := newTestClock(5000)
	defer c.Close()

	c.SeekTo(5000)
	c.Play()

	if got := c.PositionMs(); got != 0 {
		t.Fatalf("position after play-from-end = %d, want 0", got)
	}
}

func TestClock_PlayNoopOnEmptyTimeline(t *testing.T) {
	c, _ := newTestClock(0)
	defer c.Close()

	c.Play()
	if c.IsPlaying() {
		t.Fatal("empty timeline must not play")
	}
}

func TestClock_AutoStopAtEnd(t *testing.T) {
	c, fc := newTestClock(200)
	defer c.Close()

	var mu sync.Mutex
	var events []int64
	c.Subscribe(func(positionMs int64, playing bool) {
		mu.Lock()
		events = append(events, positionMs)
		mu.Unlock()
	})

	c.Play()
	fc.advance(400 * time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !c.IsPlaying() && c.PositionMs() == 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if c.IsPlaying() {
		t.Fatal("clock should have stopped at the end")
	}
	if got := c.PositionMs(); got != 0 {
		t.Fatalf("position after overrun = %d, want 0 (rewound)", got)
	}

	mu.Lock()
	defer mu.Unlock()
	// The final frame at the duration is published before the rewind.
	sawEnd := false
	for _, e := range events {
		if e == 200 {
			sawEnd = true
		}
	}
	if !sawEnd {
		t.Fatalf("final frame not published, events = %v", events)
	}
}

func TestClock_TransitionsNotifyObservers(t *testing.T) {
	c, fc := newTestClock(5000)
	defer c.Close()

	type event struct {
		pos     int64
		playing bool
	}
	var mu sync.Mutex
	var events []event
	c.Subscribe(func(positionMs int64, playing bool) {
		mu.Lock()
		events = append(events, event{positionMs, playing})
		mu.Unlock()
	})

	c.Play()
	fc.advance(300 * time.Millisecond)
	c.Pause()

	mu.Lock()
	defer mu.Unlock()
	if len(events) < 2 {
		t.Fatalf("events = %v, want at least play and pause transitions", events)
	}
	if events[0].pos != 0 || !events[0].playing {
		t.Fatalf("first event = %+v, want {0 true}", events[0])
	}
	sawPause := false
	for _, e := range events {
		if e.pos == 300 && !e.playing {
			sawPause = true
		}
	}
	if !sawPause {
		t.Fatalf("pause transition not published, events = %v", events)
	}
}

func TestClock_PublishedPositionsNeverDecrease(t *testing.T) {
	c, fc := newTestClock(10000)
	defer c.Close()

	var mu sync.Mutex
	var positions []int64
	c.Subscribe(func(positionMs int64, playing bool) {
		mu.Lock()
		positions = append(positions, positionMs)
		mu.Unlock()
	})

	c.Play()
	for i := 0; i < 5; i++ {
		fc.advance(100 * time.Millisecond)
		time.Sleep(10 * time.Millisecond)
	}
	c.Pause()

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(positions); i++ {
		if positions[i] < positions[i-1] {
			t.Fatalf("position went backwards: %v", positions)
		}
	}
}

func TestClock_SetDurationClampsPosition(t *testing.T) {
	c, _ := newTestClock(5000)
	defer c.Close()

	c.SeekTo(4000)
	c.SetDuration(2000)
	if got := c.PositionMs(); got != 2000 {
		t.Fatalf("position after shrink = %d, want 2000", got)
	}
}

func TestIsUserSeek(t *testing.T) {
	cases := []struct {
		delta   int64
		playing bool
		want    bool
	}{
		{0, false, false},
		{80, false, false},
		{81, false, true},
		{-500, false, true},
		{500, true, false},
	}
	for _, tc := range cases {
		if got := IsUserSeek(tc.delta, tc.playing); got != tc.want {
			t.Errorf("IsUserSeek(%d, %v) = %v, want %v", tc.delta, tc.playing, got, tc.want)
		}
	}
}
