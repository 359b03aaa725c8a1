package game

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RoomArchiver receives the summary of every destroyed room. It is called
// off the loop and must be safe for concurrent use.
type RoomArchiver interface {
	ArchiveRoom(ctx context.Context, summary RoomSummary) error
}

const (
	DefaultMaxCapacity = 10
	archiveTimeout     = 5 * time.Second
	taskQueueSize      = 1024
)

// Service is the game orchestrator. All state lives on a single loop
// goroutine started by Run; the exported methods only enqueue work.
type Service struct {
	registry *Registry
	sessions *Sessions
	gate     *ClickGate

	sched       Scheduler
	now         func() time.Time
	roll        Dice
	archiver    RoomArchiver
	maxCapacity int
	log         zerolog.Logger

	tasks chan func()
	done  chan struct{}
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithDice(roll Dice) Option { return func(s *Service) { s.roll = roll } }

func WithScheduler(sched Scheduler) Option { return func(s *Service) { s.sched = sched } }

func WithArchiver(a RoomArchiver) Option { return func(s *Service) { s.archiver = a } }

func WithLogger(l zerolog.Logger) Option { return func(s *Service) { s.log = l } }

func WithMaxCapacity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxCapacity = n
		}
	}
}

func WithCodeGenerator(gen func() string) Option {
	return func(s *Service) { s.registry.newCode = gen }
}

func NewService(opts ...Option) *Service {
	s := &Service{
		registry:    NewRegistry(),
		sessions:    NewSessions(),
		gate:        NewClickGate(),
		now:         time.Now,
		roll:        rand.Float64,
		maxCapacity: DefaultMaxCapacity,
		log:         log.With().Str("component", "game").Logger(),
		tasks:       make(chan func(), taskQueueSize),
		done:        make(chan struct{}),
	}
	s.sched = loopScheduler{post: s.post}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes queued work until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	defer close(s.done)
	s.log.Info().Msg("game loop started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Int("rooms", s.registry.Len()).Msg("game loop stopped")
			return ctx.Err()
		case fn := <-s.tasks:
			s.runTask(fn)
		}
	}
}

func (s *Service) post(ctx context.Context, fn func()) bool {
	select {
	case s.tasks <- fn:
		return true
	case <-ctx.Done():
		return false
	case <-s.done:
		return false
	}
}

func (s *Service) runTask(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("task panicked")
		}
	}()
	fn()
}

// Connect registers a new connection and returns its identity.
func (s *Service) Connect(conn Conn) string {
	id := uuid.NewString()
	s.post(context.Background(), func() { s.connect(id, conn) })
	return id
}

// Handle queues one inbound frame. receivedAt is when the frame came off
// the wire and is what the click gate judges.
func (s *Service) Handle(id string, frame []byte, receivedAt time.Time) {
	s.post(context.Background(), func() { s.handle(id, frame, receivedAt) })
}

// Disconnect queues the removal of a connection.
func (s *Service) Disconnect(id string) {
	s.post(context.Background(), func() { s.disconnect(id) })
}

// Rooms lists live rooms. It waits for the loop to answer.
func (s *Service) Rooms(ctx context.Context) ([]RoomInfo, error) {
	resp := make(chan []RoomInfo, 1)
	if !s.post(ctx, func() { resp <- s.registry.Infos() }) {
		return nil, context.Canceled
	}
	select {
	case infos := <-resp:
		return infos, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, context.Canceled
	}
}

func (s *Service) connect(id string, conn Conn) {
	s.sessions.Add(id, conn)
	s.log.Debug().Str("conn", id).Msg("client connected")
}

func (s *Service) disconnect(id string) {
	sess := s.sessions.Remove(id)
	if sess == nil {
		return
	}
	sess.kick.cancel()
	s.leaveRoom(sess)
	s.gate.Forget(id)
	s.log.Debug().Str("conn", id).Msg("client disconnected")
}

func (s *Service) handle(id string, frame []byte, at time.Time) {
	sess := s.sessions.Get(id)
	if sess == nil || sess.ejected {
		return
	}
	env, err := DecodeEnvelope(frame)
	if err != nil {
		s.sendError(sess, ErrBadPayload)
		return
	}
	s.dispatch(sess, env, at)
}

func (s *Service) dispatch(sess *Session, env Envelope, at time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("conn", sess.ID).Str("action", env.Type).
				Msg("handler panicked")
			s.sendError(sess, errInternal)
		}
	}()

	var err error
	switch env.Type {
	case ActCreateRoom:
		var p CreateRoomPayload
		if p, err = DecodePayload[CreateRoomPayload](env); err == nil {
			err = s.createRoom(sess, p.Capacity)
		}
	case ActJoinRoom:
		var p JoinRoomPayload
		if p, err = DecodePayload[JoinRoomPayload](env); err == nil {
			err = s.joinRoom(sess, p.Code)
		}
	case ActClick:
		err = s.click(sess, at)
	case ActBuyUpgrade:
		var p BuyUpgradePayload
		if p, err = DecodePayload[BuyUpgradePayload](env); err == nil {
			err = s.buyUpgrade(sess, p.UpgradeName)
		}
	case ActOpenFactoryStation:
		err = s.openFactoryStation(sess)
	case ActDefendFactory:
		err = s.defendFactory(sess)
	default:
		err = ErrUnknownAction
	}
	if err != nil {
		s.sendError(sess, err)
	}
}

func (s *Service) send(sess *Session, t string, payload any) {
	b, err := Encode(t, payload)
	if err != nil {
		s.log.Error().Err(err).Msg("encode failed")
		return
	}
	if err := sess.Conn.Send(b); err != nil {
		s.log.Debug().Err(err).Str("conn", sess.ID).Str("type", t).Msg("send dropped")
	}
}

func (s *Service) sendError(sess *Session, err error) {
	if isDecodeError(err) {
		err = ErrBadPayload
	}
	s.send(sess, MsgError, ErrorPayload{Message: err.Error()})
}

// broadcast delivers one notification to every member of room.
func (s *Service) broadcast(room *Room, t string, payload any) {
	b, err := Encode(t, payload)
	if err != nil {
		s.log.Error().Err(err).Msg("encode failed")
		return
	}
	for _, p := range room.members {
		sess := s.sessions.Get(p.ID)
		if sess == nil {
			continue
		}
		if err := sess.Conn.Send(b); err != nil {
			s.log.Debug().Err(err).Str("conn", sess.ID).Str("type", t).Msg("send dropped")
		}
	}
}

func (s *Service) archive(summary RoomSummary) {
	if s.archiver == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := s.archiver.ArchiveRoom(ctx, summary); err != nil {
			s.log.Warn().Err(err).Str("room", summary.Code).Msg("archive failed")
		}
	}()
}
