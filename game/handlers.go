package game

import (
	"strings"
	"time"
)

const (
	incomeInterval = time.Second
	cursorInterval = 100 * time.Millisecond
)

func (s *Service) createRoom(sess *Session, capacity int) error {
	if capacity < 1 || capacity > s.maxCapacity {
		return ErrInvalidCapacity
	}
	s.leaveRoom(sess)

	room := s.registry.Create(capacity, s.now())
	p, err := room.addMember(sess.ID)
	if err != nil {
		return err
	}
	sess.RoomCode, sess.Name = room.Code, p.Name

	s.log.Info().Str("room", room.Code).Int("capacity", capacity).Msg("room created")
	s.send(sess, MsgRoomCreated, RoomCreatedPayload{Code: room.Code})
	s.broadcast(room, MsgRoomUpdate, room.View())
	s.maybeStart(room)
	return nil
}

func (s *Service) joinRoom(sess *Session, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	room, ok := s.registry.Get(code)
	if !ok {
		return ErrRoomNotFound
	}
	if room.Member(sess.ID) != nil {
		s.send(sess, MsgRoomUpdate, room.View())
		return nil
	}
	if room.Started {
		return ErrGameAlreadyStarted
	}
	if room.IsFull() {
		return ErrRoomFull
	}
	s.leaveRoom(sess)

	p, err := room.addMember(sess.ID)
	if err != nil {
		return err
	}
	sess.RoomCode, sess.Name = room.Code, p.Name

	s.log.Info().Str("room", room.Code).Str("player", p.Name).
		Int("players", room.MemberCount()).Msg("player joined")
	s.broadcast(room, MsgRoomUpdate, room.View())
	s.maybeStart(room)
	return nil
}

// maybeStart starts the game once the room is at capacity.
func (s *Service) maybeStart(room *Room) {
	if !room.markStarted() {
		return
	}
	room.income = s.sched.Every(incomeInterval, s.incomeTick(room))
	s.log.Info().Str("room", room.Code).Msg("game started")
	s.broadcast(room, MsgGameStarted, nil)
}

// roomOf resolves the room the session is currently in.
func (s *Service) roomOf(sess *Session) (*Room, error) {
	if sess.RoomCode == "" {
		return nil, ErrNotInRoom
	}
	room, ok := s.registry.Get(sess.RoomCode)
	if !ok || room.Member(sess.ID) == nil {
		sess.RoomCode = ""
		return nil, ErrNotInRoom
	}
	return room, nil
}

// click ignores players outside a started room; only the gate ejects.
func (s *Service) click(sess *Session, at time.Time) error {
	room, err := s.roomOf(sess)
	if err != nil || !room.Started {
		return nil
	}
	if !s.gate.Admit(sess.ID, at) {
		s.eject(sess, room, cheatReason)
		return nil
	}

	out := room.scoring().click(room.Upgrades, s.roll)
	room.addScore(out.points)
	room.stats.clicks++

	if out.critical {
		s.send(sess, MsgCriticalHit, PointsPayload{Points: out.critPoints})
	}
	if out.golden {
		s.send(sess, MsgGoldenClick, PointsPayload{Points: out.goldenPoints})
	}
	s.broadcast(room, MsgScoreUpdate, ScoreUpdatePayload{
		Score:      room.Score,
		ClickerID:  sess.ID,
		Points:     out.points,
		IsCritical: out.critical,
		IsGolden:   out.golden,
	})
	return nil
}

func (s *Service) buyUpgrade(sess *Session, name string) error {
	room, err := s.roomOf(sess)
	if err != nil {
		return err
	}
	if !room.Started {
		return ErrGameNotStarted
	}
	if room.Mode() == ModeEventActive {
		return ErrEventActive
	}
	kind, ok := LookupUpgrade(name)
	if !ok {
		return ErrUnknownUpgrade
	}
	if err := kind.Check(room.Upgrades); err != nil {
		return err
	}
	cost := kind.Cost(room.Upgrades)
	if err := room.spend(cost); err != nil {
		return err
	}
	kind.apply(&room.Upgrades)
	room.stats.purchases++

	s.log.Debug().Str("room", room.Code).Str("upgrade", kind.String()).Int64("cost", cost).Msg("upgrade bought")
	s.broadcast(room, MsgUpgradeBought, UpgradeBoughtPayload{
		UpgradeName: kind.String(),
		Cost:        cost,
		BuyerID:     sess.ID,
		Upgrades:    room.Upgrades,
		Score:       room.Score,
	})
	if kind == UpgradeAutoClicker {
		s.spawnCursor(room, sess.ID)
		s.broadcast(room, MsgCursorsUpdate, CursorsPayload{Cursors: room.cursorViews()})
	}
	if notice := kind.Notice(); notice != "" {
		s.broadcast(room, notice, nil)
	}
	return nil
}

func (s *Service) spawnCursor(room *Room, ownerID string) {
	x := 10 + s.roll()*80
	y := 10 + s.roll()*80
	c := room.addCursor(ownerID, s.now(), x, y)
	c.stop = s.sched.Every(cursorInterval, s.cursorTick(room, c))
}

// eject removes a player caught by the click gate and closes its
// connection after EjectionGrace.
func (s *Service) eject(sess *Session, room *Room, reason string) {
	room.removeMember(sess.ID)
	for _, c := range room.removeCursorsOf(sess.ID) {
		c.stop.cancel()
	}
	s.gate.Forget(sess.ID)
	sess.RoomCode = ""
	sess.ejected = true

	s.log.Warn().Str("room", room.Code).Str("conn", sess.ID).Str("reason", reason).Msg("player ejected")
	s.broadcast(room, MsgRoomUpdate, room.View())
	s.broadcast(room, MsgCursorsUpdate, CursorsPayload{Cursors: room.cursorViews()})
	s.broadcast(room, MsgPlayerKicked, PlayerKickedPayload{PlayerID: sess.ID, Reason: reason})
	s.send(sess, MsgCheatDetected, ReasonPayload{Reason: reason})

	sess.kick = s.sched.After(EjectionGrace, func() {
		if s.sessions.Get(sess.ID) != sess {
			return
		}
		if err := sess.Conn.Close(); err != nil {
			s.log.Debug().Err(err).Str("conn", sess.ID).Msg("close after ejection")
		}
	})

	if room.MemberCount() == 0 {
		s.destroyRoom(room)
	}
}

// leaveRoom takes the session out of its current room, if any.
func (s *Service) leaveRoom(sess *Session) {
	code := sess.RoomCode
	if code == "" {
		return
	}
	sess.RoomCode = ""
	room, ok := s.registry.Get(code)
	if !ok || !room.removeMember(sess.ID) {
		return
	}
	for _, c := range room.removeCursorsOf(sess.ID) {
		c.stop.cancel()
	}

	s.log.Info().Str("room", code).Int("players", room.MemberCount()).Msg("player left")
	s.broadcast(room, MsgRoomUpdate, room.View())
	s.broadcast(room, MsgCursorsUpdate, CursorsPayload{Cursors: room.cursorViews()})

	if room.MemberCount() == 0 {
		s.destroyRoom(room)
	}
}

func (s *Service) destroyRoom(room *Room) {
	if _, ok := s.registry.Delete(room.Code); !ok {
		return
	}
	s.log.Info().Str("room", room.Code).Int64("peakScore", room.stats.peakScore).Msg("room deleted")
	s.archive(room.summary(s.now()))
}
