package game

import (
	"fmt"
	"math"
	"time"
)

// Mode routes click and income handling for a room.
type Mode int

const (
	ModeNormal Mode = iota
	ModeEventActive
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeEventActive:
		return "eventActive"
	default:
		return "unknown"
	}
}

// Player is a member of a room. ID is the connection identity.
type Player struct {
	ID       string
	Name     string
	RoomCode string
}

// AutoCursor is a decorative marker spawned by an autoClicker purchase. Its
// animation task is cancelled when the owner leaves.
type AutoCursor struct {
	ID       string
	OwnerID  string
	X, Y     float64
	Rotation int

	stop Cancel
}

const (
	cursorRotationStep = 5
	orbitCenter        = 50.0
	orbitRadius        = 30.0
)

// animate advances the cursor one animation frame.
func (c *AutoCursor) animate(now time.Time) {
	c.Rotation = (c.Rotation + cursorRotationStep) % 360
	phase := float64(now.UnixMilli())/1000 + float64(len(c.ID))
	c.X = orbitCenter + math.Cos(phase)*orbitRadius
	c.Y = orbitCenter + math.Sin(phase)*orbitRadius
}

// Event is the energy-factory event. At most one exists per room.
type Event struct {
	Active       bool
	StartedAt    time.Time
	DefenseSpent int64
	Success      bool

	stop Cancel
}

type roomStats struct {
	clicks     int
	purchases  int
	eventsWon  int
	eventsLost int
	peakScore  int64
}

// Room is one group's shared game state. It is only touched from the
// Service loop.
type Room struct {
	Code     string
	Capacity int
	Score    int64
	Upgrades Upgrades
	Started  bool

	members   []*Player
	cursors   []*AutoCursor
	mode      Mode
	event     *Event
	income    Cancel
	createdAt time.Time
	stats     roomStats
	names     []string
}

func newRoom(code string, capacity int, now time.Time) *Room {
	return &Room{
		Code:      code,
		Capacity:  capacity,
		Upgrades:  newUpgrades(),
		createdAt: now,
	}
}

func (r *Room) MemberCount() int { return len(r.members) }

func (r *Room) IsFull() bool { return len(r.members) >= r.Capacity }

func (r *Room) Mode() Mode { return r.mode }

// ActiveEvent returns the running event or nil.
func (r *Room) ActiveEvent() *Event { return r.event }

func (r *Room) Member(id string) *Player {
	for _, p := range r.members {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Members returns the players in join order.
func (r *Room) Members() []*Player {
	out := make([]*Player, len(r.members))
	copy(out, r.members)
	return out
}

// addMember appends a player named after its join position.
func (r *Room) addMember(id string) (*Player, error) {
	if r.Member(id) != nil {
		return r.Member(id), nil
	}
	if r.IsFull() {
		return nil, ErrRoomFull
	}
	p := &Player{
		ID:       id,
		Name:     fmt.Sprintf("Player%d", len(r.members)+1),
		RoomCode: r.Code,
	}
	r.members = append(r.members, p)
	r.names = append(r.names, p.Name)
	return p, nil
}

func (r *Room) removeMember(id string) bool {
	for i, p := range r.members {
		if p.ID == id {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return true
		}
	}
	return false
}

// markStarted flips Started once. It reports whether this call did it.
func (r *Room) markStarted() bool {
	if r.Started || len(r.members) != r.Capacity {
		return false
	}
	r.Started = true
	return true
}

func (r *Room) Cursors() []*AutoCursor {
	out := make([]*AutoCursor, len(r.cursors))
	copy(out, r.cursors)
	return out
}

func (r *Room) cursor(id string) *AutoCursor {
	for _, c := range r.cursors {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (r *Room) addCursor(ownerID string, now time.Time, x, y float64) *AutoCursor {
	id := fmt.Sprintf("auto-%s-%d", ownerID, now.UnixMilli())
	for n := 1; r.cursor(id) != nil; n++ {
		id = fmt.Sprintf("auto-%s-%d-%d", ownerID, now.UnixMilli(), n)
	}
	c := &AutoCursor{ID: id, OwnerID: ownerID, X: x, Y: y}
	r.cursors = append(r.cursors, c)
	return c
}

// removeCursorsOf drops every cursor owned by ownerID and returns them.
func (r *Room) removeCursorsOf(ownerID string) []*AutoCursor {
	var removed []*AutoCursor
	kept := r.cursors[:0]
	for _, c := range r.cursors {
		if c.OwnerID == ownerID {
			removed = append(removed, c)
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(r.cursors); i++ {
		r.cursors[i] = nil
	}
	r.cursors = kept
	return removed
}

func (r *Room) addScore(n int64) {
	r.Score += n
	if r.Score < 0 {
		r.Score = 0
	}
	if r.Score > r.stats.peakScore {
		r.stats.peakScore = r.Score
	}
}

// spend deducts cost or fails without touching the score.
func (r *Room) spend(cost int64) error {
	if r.Score < cost {
		return ErrInsufficientScore
	}
	r.Score -= cost
	return nil
}

func (r *Room) scoring() scoringMode {
	if r.mode == ModeEventActive {
		return eventScoring{}
	}
	return normalScoring{}
}

// Dice returns a uniform number in [0, 1).
type Dice func() float64

type clickOutcome struct {
	points       int64
	critical     bool
	golden       bool
	critPoints   int64
	goldenPoints int64
}

type scoringMode interface {
	click(u Upgrades, roll Dice) clickOutcome
	// income returns what the income ticker adds and whether it applies.
	income(u Upgrades) (int64, bool)
}

type normalScoring struct{}

func (normalScoring) click(u Upgrades, roll Dice) clickOutcome {
	var out clickOutcome
	points := int64(u.ClickMultiplier)
	if roll()*100 < float64(u.CriticalPercent()) {
		points *= 3
		out.critical = true
		out.critPoints = points
	}
	if roll()*100 < float64(u.GoldenPercent()) {
		points *= 5
		out.golden = true
		out.goldenPoints = points
	}
	points += int64(u.MegaClick * megaClickValue)
	out.points = points
	return out
}

func (normalScoring) income(u Upgrades) (int64, bool) {
	return u.IncomePerTick(), true
}

// eventScoring suppresses clicks and income while the factory event runs.
type eventScoring struct{}

func (eventScoring) click(Upgrades, Dice) clickOutcome { return clickOutcome{} }

func (eventScoring) income(Upgrades) (int64, bool) { return 0, false }

// views

type PlayerView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CursorView struct {
	ID       string  `json:"id"`
	OwnerID  string  `json:"ownerId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation int     `json:"rotation"`
}

type RoomView struct {
	Code     string       `json:"code"`
	Capacity int          `json:"capacity"`
	Players  []PlayerView `json:"players"`
	Score    int64        `json:"score"`
	Upgrades Upgrades     `json:"upgrades"`
	Started  bool         `json:"started"`
	Mode     string       `json:"mode"`
	Cursors  []CursorView `json:"cursors"`
}

func (r *Room) cursorViews() []CursorView {
	out := make([]CursorView, 0, len(r.cursors))
	for _, c := range r.cursors {
		out = append(out, CursorView{ID: c.ID, OwnerID: c.OwnerID, X: c.X, Y: c.Y, Rotation: c.Rotation})
	}
	return out
}

// View is the roomUpdate snapshot.
func (r *Room) View() RoomView {
	players := make([]PlayerView, 0, len(r.members))
	for _, p := range r.members {
		players = append(players, PlayerView{ID: p.ID, Name: p.Name})
	}
	return RoomView{
		Code:     r.Code,
		Capacity: r.Capacity,
		Players:  players,
		Score:    r.Score,
		Upgrades: r.Upgrades,
		Started:  r.Started,
		Mode:     r.mode.String(),
		Cursors:  r.cursorViews(),
	}
}

// RoomInfo is the operator-facing summary of a live room.
type RoomInfo struct {
	Code      string    `json:"code"`
	Capacity  int       `json:"capacity"`
	Players   int       `json:"players"`
	Score     int64     `json:"score"`
	Started   bool      `json:"started"`
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r *Room) Info() RoomInfo {
	return RoomInfo{
		Code:      r.Code,
		Capacity:  r.Capacity,
		Players:   len(r.members),
		Score:     r.Score,
		Started:   r.Started,
		Mode:      r.mode.String(),
		CreatedAt: r.createdAt,
	}
}

// RoomSummary is handed to the archiver once a room is destroyed.
type RoomSummary struct {
	Code        string
	Capacity    int
	PlayerNames []string
	PeakScore   int64
	FinalScore  int64
	Clicks      int
	Purchases   int
	EventsWon   int
	EventsLost  int
	Upgrades    Upgrades
	CreatedAt   time.Time
	ClosedAt    time.Time
}

func (r *Room) summary(closedAt time.Time) RoomSummary {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return RoomSummary{
		Code:        r.Code,
		Capacity:    r.Capacity,
		PlayerNames: names,
		PeakScore:   r.stats.peakScore,
		FinalScore:  r.Score,
		Clicks:      r.stats.clicks,
		Purchases:   r.stats.purchases,
		EventsWon:   r.stats.eventsWon,
		EventsLost:  r.stats.eventsLost,
		Upgrades:    r.Upgrades,
		CreatedAt:   r.createdAt,
		ClosedAt:    closedAt,
	}
}
