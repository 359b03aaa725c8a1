package game

import "time"

const (
	// EventPool is the score a room is set to when the factory event starts.
	EventPool int64 = 20000
	// DefenseGoal is the cumulative defense spend that wins the event.
	DefenseGoal int64 = 20000
	// DefenseCost is the price of one defend action.
	DefenseCost int64 = 100
	// EventDuration is how long defenders have.
	EventDuration = 20 * time.Second

	countdownInterval = time.Second
)

// timeLeft is the whole seconds remaining, never negative.
func (ev *Event) timeLeft(now time.Time) int {
	elapsed := int(now.Sub(ev.StartedAt) / time.Second)
	left := int(EventDuration/time.Second) - elapsed
	if left < 0 {
		return 0
	}
	return left
}

func (s *Service) openFactoryStation(sess *Session) error {
	room, err := s.roomOf(sess)
	if err != nil {
		return err
	}
	if !room.Started {
		return ErrGameNotStarted
	}
	if !room.Upgrades.EnergyFactory {
		return ErrFactoryNotBuilt
	}
	if room.event != nil {
		return ErrEventActive
	}
	s.startEvent(room)
	return nil
}

func (s *Service) startEvent(room *Room) {
	ev := &Event{Active: true, StartedAt: s.now()}
	room.event = ev
	room.mode = ModeEventActive
	room.Score = EventPool
	ev.stop = s.sched.Every(countdownInterval, s.countdownTick(room, ev))

	s.log.Info().Str("room", room.Code).Msg("factory event started")
	s.broadcast(room, MsgFactoryEventStarted, FactoryEventPayload{
		TimeLeft:     int(EventDuration / time.Second),
		DefenseSpent: 0,
		Score:        room.Score,
	})
}

func (s *Service) defendFactory(sess *Session) error {
	room, err := s.roomOf(sess)
	if err != nil {
		return err
	}
	ev := room.event
	if ev == nil {
		return ErrNoActiveEvent
	}
	now := s.now()
	if ev.timeLeft(now) == 0 {
		s.resolveEvent(room, false)
		return ErrNoActiveEvent
	}
	if err := room.spend(DefenseCost); err != nil {
		return err
	}
	ev.DefenseSpent += DefenseCost
	if ev.DefenseSpent >= DefenseGoal {
		s.resolveEvent(room, true)
		return nil
	}
	s.broadcast(room, MsgFactoryEventUpdate, FactoryEventPayload{
		TimeLeft:     ev.timeLeft(now),
		DefenseSpent: ev.DefenseSpent,
		Score:        room.Score,
	})
	return nil
}

// resolveEvent ends the active event. Both outcomes consume the factory and
// zero the score.
func (s *Service) resolveEvent(room *Room, success bool) {
	ev := room.event
	if ev == nil {
		return
	}
	ev.stop.cancel()
	ev.Active = false
	ev.Success = success

	room.event = nil
	room.mode = ModeNormal
	room.Upgrades.EnergyFactory = false
	room.Score = 0

	name := MsgFactoryEventFailed
	if success {
		name = MsgFactoryEventSuccess
		room.stats.eventsWon++
	} else {
		room.stats.eventsLost++
	}

	s.log.Info().Str("room", room.Code).Bool("success", success).Int64("defenseSpent", ev.DefenseSpent).
		Msg("factory event finished")
	upgrades := room.Upgrades
	s.broadcast(room, name, FactoryEventPayload{
		TimeLeft:     ev.timeLeft(s.now()),
		DefenseSpent: ev.DefenseSpent,
		Score:        room.Score,
		Upgrades:     &upgrades,
	})
}
