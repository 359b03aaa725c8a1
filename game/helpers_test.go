package game

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (f *fakeConn) Send(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(b))
	copy(cp, b)
	f.frames = append(f.frames, cp)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) envelopes(t *testing.T) []Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Envelope, 0, len(f.frames))
	for _, b := range f.frames {
		env, err := DecodeEnvelope(b)
		require.NoError(t, err)
		out = append(out, env)
	}
	return out
}

func (f *fakeConn) types(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, env := range f.envelopes(t) {
		out = append(out, env.Type)
	}
	return out
}

func (f *fakeConn) count(t *testing.T, msgType string) int {
	t.Helper()
	n := 0
	for _, env := range f.envelopes(t) {
		if env.Type == msgType {
			n++
		}
	}
	return n
}

// last returns the most recent envelope of msgType, failing if none.
func (f *fakeConn) last(t *testing.T, msgType string) Envelope {
	t.Helper()
	envs := f.envelopes(t)
	for i := len(envs) - 1; i >= 0; i-- {
		if envs[i].Type == msgType {
			return envs[i]
		}
	}
	t.Fatalf("no %q message, got %v", msgType, f.types(t))
	return Envelope{}
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

func lastPayload[T any](t *testing.T, f *fakeConn, msgType string) T {
	t.Helper()
	out, err := DecodePayload[T](f.last(t, msgType))
	require.NoError(t, err)
	return out
}

// manualScheduler records tasks; tests fire them by hand.
type manualScheduler struct {
	tasks []*manualTask
}

type manualTask struct {
	every     bool
	d         time.Duration
	fn        func()
	cancelled bool
	fired     int
}

func (m *manualScheduler) add(every bool, d time.Duration, fn func()) Cancel {
	task := &manualTask{every: every, d: d, fn: fn}
	m.tasks = append(m.tasks, task)
	return func() { task.cancelled = true }
}

func (m *manualScheduler) Every(d time.Duration, fn func()) Cancel { return m.add(true, d, fn) }

func (m *manualScheduler) After(d time.Duration, fn func()) Cancel { return m.add(false, d, fn) }

// fire runs every live task with period d once. One-shot tasks are spent.
func (m *manualScheduler) fire(d time.Duration) {
	for _, task := range append([]*manualTask(nil), m.tasks...) {
		if task.cancelled || task.d != d {
			continue
		}
		if !task.every {
			if task.fired > 0 {
				continue
			}
		}
		task.fired++
		task.fn()
	}
}

func (m *manualScheduler) live(d time.Duration) int {
	n := 0
	for _, task := range m.tasks {
		if task.d == d && task.isLive() {
			n++
		}
	}
	return n
}

// mark returns the current position in the task log, for tasksSince.
func (m *manualScheduler) mark() int { return len(m.tasks) }

// tasksSince returns the tasks with period d scheduled after mark.
func (m *manualScheduler) tasksSince(mark int, d time.Duration) []*manualTask {
	var out []*manualTask
	for _, task := range m.tasks[mark:] {
		if task.d == d {
			out = append(out, task)
		}
	}
	return out
}

func (task *manualTask) isLive() bool {
	return !task.cancelled && (task.every || task.fired == 0)
}

// run fires this task alone, if it is still live.
func (task *manualTask) run() {
	if !task.isLive() {
		return
	}
	task.fired++
	task.fn()
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// scriptedDice replays rolls, then keeps returning fallback.
type scriptedDice struct {
	rolls    []float64
	fallback float64
}

func (d *scriptedDice) roll() float64 {
	if len(d.rolls) == 0 {
		return d.fallback
	}
	r := d.rolls[0]
	d.rolls = d.rolls[1:]
	return r
}

type harness struct {
	t     *testing.T
	svc   *Service
	sched *manualScheduler
	clock *fakeClock
	dice  *scriptedDice
	conns map[string]*fakeConn
}

func newHarness(t *testing.T, opts ...Option) *harness {
	h := &harness{
		t:     t,
		sched: &manualScheduler{},
		clock: &fakeClock{t: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)},
		dice:  &scriptedDice{fallback: 0.99},
		conns: make(map[string]*fakeConn),
	}
	base := []Option{
		WithScheduler(h.sched),
		WithClock(h.clock.now),
		WithDice(h.dice.roll),
		WithLogger(zerolog.Nop()),
	}
	h.svc = NewService(append(base, opts...)...)
	return h
}

func (h *harness) connect(id string) *fakeConn {
	c := &fakeConn{}
	h.conns[id] = c
	h.svc.connect(id, c)
	return c
}

func (h *harness) act(id, action string, payload any) {
	h.t.Helper()
	frame, err := Encode(action, payload)
	require.NoError(h.t, err)
	h.svc.handle(id, frame, h.clock.now())
}

// click sends a click and moves the clock past the gate threshold.
func (h *harness) click(id string) {
	h.act(id, ActClick, nil)
	h.clock.advance(10 * time.Millisecond)
}

// createRoom has owner create a room and returns its code.
func (h *harness) createRoom(owner string, capacity int) string {
	h.t.Helper()
	h.act(owner, ActCreateRoom, CreateRoomPayload{Capacity: capacity})
	return lastPayload[RoomCreatedPayload](h.t, h.conns[owner], MsgRoomCreated).Code
}

// startedRoom connects n players and fills a capacity-n room.
func (h *harness) startedRoom(ids ...string) *Room {
	h.t.Helper()
	for _, id := range ids {
		h.connect(id)
	}
	code := h.createRoom(ids[0], len(ids))
	for _, id := range ids[1:] {
		h.act(id, ActJoinRoom, JoinRoomPayload{Code: code})
	}
	room, ok := h.svc.registry.Get(code)
	require.True(h.t, ok)
	require.True(h.t, room.Started)
	return room
}

func (h *harness) errorMessage(id string) string {
	h.t.Helper()
	return lastPayload[ErrorPayload](h.t, h.conns[id], MsgError).Message
}
