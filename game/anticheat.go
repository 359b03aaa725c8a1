package game

import "time"

// MinClickInterval is the smallest gap between two admitted clicks from the
// same player. Anything faster is treated as scripted input.
const MinClickInterval = time.Millisecond

// EjectionGrace is how long an ejected connection stays open so the
// cheatDetected notice can reach the client.
const EjectionGrace = 3 * time.Second

const cheatReason = "clicking too fast, play fair"

// ClickGate remembers the last admitted click per player. It is owned by the
// Service loop and is not safe for concurrent use.
type ClickGate struct {
	last map[string]time.Time
}

func NewClickGate() *ClickGate {
	return &ClickGate{last: make(map[string]time.Time)}
}

// Admit reports whether a click at now is legitimate. A rejected click does
// not move the baseline.
func (g *ClickGate) Admit(playerID string, now time.Time) bool {
	if prev, ok := g.last[playerID]; ok && now.Sub(prev) < MinClickInterval {
		return false
	}
	g.last[playerID] = now
	return true
}

// Forget drops the baseline for a player that left or was ejected.
func (g *ClickGate) Forget(playerID string) {
	delete(g.last, playerID)
}
