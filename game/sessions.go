package game

// Conn is the outbound side of a client connection. Send must not block.
type Conn interface {
	Send([]byte) error
	Close() error
}

// Session ties a live connection to its current room and display name.
type Session struct {
	ID       string
	Conn     Conn
	Name     string
	RoomCode string

	ejected bool
	kick    Cancel
}

// Sessions is the directory of live connections, keyed by connection id.
type Sessions struct {
	byID map[string]*Session
}

func NewSessions() *Sessions {
	return &Sessions{byID: make(map[string]*Session)}
}

func (d *Sessions) Add(id string, conn Conn) *Session {
	s := &Session{ID: id, Conn: conn}
	d.byID[id] = s
	return s
}

func (d *Sessions) Get(id string) *Session {
	return d.byID[id]
}

func (d *Sessions) Remove(id string) *Session {
	s, ok := d.byID[id]
	if !ok {
		return nil
	}
	delete(d.byID, id)
	return s
}

func (d *Sessions) Len() int { return len(d.byID) }
