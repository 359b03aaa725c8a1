package game

import (
	"crypto/rand"
	"io"
	"math/big"
	mrand "math/rand/v2"
	"sort"
	"time"
)

const (
	codeLength = 6
	codeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Registry owns the rooms by code. Rooms are created by Create and removed
// when their last member leaves. It belongs to the Service loop.
type Registry struct {
	rooms   map[string]*Room
	newCode func() string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:   make(map[string]*Room),
		newCode: func() string { return generateCode(rand.Reader, codeLength) },
	}
}

// Create makes an empty room under a fresh code.
func (reg *Registry) Create(capacity int, now time.Time) *Room {
	code := reg.newCode()
	for _, taken := reg.rooms[code]; taken; _, taken = reg.rooms[code] {
		code = reg.newCode()
	}
	r := newRoom(code, capacity, now)
	reg.rooms[code] = r
	return r
}

func (reg *Registry) Get(code string) (*Room, bool) {
	r, ok := reg.rooms[code]
	return r, ok
}

// Delete removes the room and cancels every task it owns.
func (reg *Registry) Delete(code string) (*Room, bool) {
	r, ok := reg.rooms[code]
	if !ok {
		return nil, false
	}
	delete(reg.rooms, code)
	r.income.cancel()
	for _, c := range r.cursors {
		c.stop.cancel()
	}
	if r.event != nil {
		r.event.stop.cancel()
	}
	return r, true
}

func (reg *Registry) Len() int { return len(reg.rooms) }

// Infos lists live rooms ordered by creation time.
func (reg *Registry) Infos() []RoomInfo {
	out := make([]RoomInfo, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		out = append(out, r.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// generateCode draws n characters from src, falling back to math/rand when
// src fails.
func generateCode(src io.Reader, n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(codeChars)))
	for i := range b {
		idx, err := rand.Int(src, max)
		if err != nil {
			b[i] = codeChars[mrand.IntN(len(codeChars))]
			continue
		}
		b[i] = codeChars[idx.Int64()]
	}
	return string(b)
}
