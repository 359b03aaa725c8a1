package game

// Ticker callbacks. Each one re-checks that its target is still the live
// object it was created for and cancels itself otherwise.

func (s *Service) incomeTick(room *Room) func() {
	return func() {
		if r, ok := s.registry.Get(room.Code); !ok || r != room || !room.Started {
			room.income.cancel()
			return
		}
		n, applies := room.scoring().income(room.Upgrades)
		if !applies {
			return
		}
		room.addScore(n)
		s.broadcast(room, MsgAutoUpdate, AutoUpdatePayload{Score: room.Score, Upgrades: room.Upgrades})
	}
}

func (s *Service) cursorTick(room *Room, c *AutoCursor) func() {
	return func() {
		if r, ok := s.registry.Get(room.Code); !ok || r != room || room.cursor(c.ID) != c {
			c.stop.cancel()
			return
		}
		c.animate(s.now())
	}
}

func (s *Service) countdownTick(room *Room, ev *Event) func() {
	return func() {
		if r, ok := s.registry.Get(room.Code); !ok || r != room || room.event != ev {
			ev.stop.cancel()
			return
		}
		left := ev.timeLeft(s.now())
		if left == 0 {
			s.resolveEvent(room, false)
			return
		}
		s.broadcast(room, MsgFactoryEventUpdate, FactoryEventPayload{
			TimeLeft:     left,
			DefenseSpent: ev.DefenseSpent,
			Score:        room.Score,
		})
	}
}
