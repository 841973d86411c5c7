package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/decred/slog"
	"nhooyr.io/websocket"

	"blackjack/internal/game"
	"blackjack/internal/protocol"
)

// Config tunes a Manager. Zero values disable the timeout and the read limit
// override, and leave reconnecting off.
type Config struct {
	RequestTimeout time.Duration
	ReadLimit      int64
	Backoff        Backoff
	Log            slog.Logger
}

// session is one open event stream.
type session struct {
	conn       *websocket.Conn
	cancel     context.CancelFunc
	done       chan struct{}
	userClosed bool // guarded by Manager.mu
	err        error
}

// Manager owns the event stream and is the only writer of the store.
type Manager struct {
	api   *API
	store *game.Store
	cfg   Config
	log   slog.Logger

	mu      sync.Mutex
	gen     uint64
	pending context.CancelFunc
	sess    *session
	quit    chan struct{}

	afterDial func() // test hook, runs between dial and session install
}

// NewManager creates a manager feeding store from api.
func NewManager(api *API, store *game.Store, cfg Config) *Manager {
	log := cfg.Log
	if log == nil {
		log = slog.Disabled
	}
	return &Manager{
		api:   api,
		store: store,
		cfg:   cfg,
		log:   log,
		quit:  make(chan struct{}),
	}
}

// Connect seeds the store from a snapshot for playerName and then opens the
// event stream. The snapshot is applied before the stream is dialed, so it
// always precedes the first processed frame. Errors before the stream is open
// are returned as *ConnectionError; later stream errors only show up in the
// store's connection status.
func (m *Manager) Connect(ctx context.Context, playerName string) error {
	_, err := m.connect(ctx, playerName)
	return err
}

func (m *Manager) connect(ctx context.Context, playerName string) (*session, error) {
	m.mu.Lock()
	m.stopLocked()
	m.gen++
	gen := m.gen
	hctx, cancel := m.withTimeout(ctx)
	m.pending = cancel
	m.mu.Unlock()
	defer cancel()

	m.store.BeginSync()
	snap, err := m.api.Snapshot(hctx, playerName)
	if err != nil {
		return nil, m.fail(gen, "snapshot", err)
	}
	if !m.active(gen) {
		return nil, &ConnectionError{Op: "snapshot", Err: ErrDisconnected}
	}
	if err := m.store.SeedFromSnapshot(snap); err != nil {
		if !errors.Is(err, game.ErrStaleSnapshot) {
			return nil, m.fail(gen, "snapshot", err)
		}
		m.log.Warnf("Skipping snapshot for %s: %v", playerName, err)
	}
	m.log.Debugf("Seeded table from %s snapshot", snap.Case())

	url := m.api.StreamURL()
	conn, _, err := websocket.Dial(hctx, url, nil)
	if err != nil {
		return nil, m.fail(gen, "dial", err)
	}
	if m.cfg.ReadLimit > 0 {
		conn.SetReadLimit(m.cfg.ReadLimit)
	}
	if m.afterDial != nil {
		m.afterDial()
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		go func() { _ = conn.Close(websocket.StatusNormalClosure, "disconnected") }()
		return nil, &ConnectionError{Op: "dial", Err: ErrDisconnected}
	}
	lctx, lcancel := context.WithCancel(context.Background())
	s := &session{conn: conn, cancel: lcancel, done: make(chan struct{})}
	m.sess = s
	m.pending = nil
	m.store.SetConnectionStatus(true, nil)
	m.mu.Unlock()

	m.log.Infof("Connected to %s as %s", url, playerName)
	go m.read(lctx, gen, s, playerName)
	return s, nil
}

// Disconnect closes the stream if one is open and cancels an in-flight
// Connect. It is safe to call any number of times.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
	m.gen++
	close(m.quit)
	m.quit = make(chan struct{})
	m.store.SetConnectionStatus(false, nil)
}

// SubmitAction sends kind on behalf of playerName. It does not touch the
// store; the outcome arrives later on the event stream.
func (m *Manager) SubmitAction(ctx context.Context, kind, playerName string) error {
	if kind != ActionHit {
		return &ActionError{Kind: kind, Err: ErrUnknownAction}
	}
	actx, cancel := m.withTimeout(ctx)
	defer cancel()
	if err := m.api.Act(actx, kind, playerName); err != nil {
		m.log.Warnf("Action %s for %s failed: %v", kind, playerName, err)
		return &ActionError{Kind: kind, Err: err}
	}
	m.log.Debugf("Action %s submitted for %s", kind, playerName)
	return nil
}

// Run keeps a session alive until ctx ends or Disconnect is called. After a
// failed connect or an unexpected stream end it waits per the backoff policy
// and connects again, which re-fetches a fresh snapshot. It returns the last
// error once retries are exhausted.
func (m *Manager) Run(ctx context.Context, playerName string) error {
	m.mu.Lock()
	quit := m.quit
	m.mu.Unlock()

	policy := m.cfg.Backoff.policy(ctx)
	attempt := 0
	for {
		s, err := m.connect(ctx, playerName)
		switch {
		case err == nil:
			policy.Reset()
			attempt = 0
			select {
			case <-ctx.Done():
				m.Disconnect()
				return ctx.Err()
			case <-quit:
				return nil
			case <-s.done:
			}
			if m.closedByUser(s) {
				return nil
			}
			err = s.err
		case errors.Is(err, ErrDisconnected):
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		delay := policy.NextBackOff()
		if delay == backoff.Stop {
			return err
		}
		attempt++
		m.log.Warnf("Reconnecting in %v (attempt %d/%d): %v", delay, attempt, m.cfg.Backoff.Retries, err)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-quit:
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (m *Manager) read(ctx context.Context, gen uint64, s *session, playerName string) {
	defer close(s.done)
	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			m.streamEnded(gen, s, err)
			return
		}
		if typ != websocket.MessageText {
			m.log.Debugf("Ignoring %v frame", typ)
			continue
		}
		if !m.active(gen) {
			return
		}
		m.dispatch(protocol.Interpret(data), playerName)
	}
}

func (m *Manager) dispatch(ev protocol.Event, playerName string) {
	var err error
	switch ev := ev.(type) {
	case protocol.NewRound:
		err = m.store.ApplyNewRound(ev)
	case protocol.PlayerCards:
		err = m.store.ApplyPlayerCards(ev)
	case protocol.RoundResults:
		err = m.store.ApplyRoundResults(ev, playerName)
	case protocol.Unrecognized:
		m.log.Warnf("Dropping unrecognized frame: %s", ev.Reason)
		return
	}
	if err != nil {
		m.log.Errorf("Dropping %s frame: %v", ev.Kind(), err)
		return
	}
	m.log.Tracef("Applied %s frame", ev.Kind())
}

func (m *Manager) streamEnded(gen uint64, s *session, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.err = err
	if s.userClosed || m.gen != gen {
		return
	}
	m.sess = nil
	s.cancel()
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		m.log.Infof("Stream closed by server")
		m.store.SetConnectionStatus(false, nil)
	default:
		m.log.Errorf("Stream failed: %v", err)
		m.store.SetConnectionStatus(false, err)
	}
}

// stopLocked tears down the in-flight connect and the open session.
func (m *Manager) stopLocked() {
	if m.pending != nil {
		m.pending()
		m.pending = nil
	}
	s := m.sess
	if s == nil {
		return
	}
	s.userClosed = true
	m.sess = nil
	m.store.SetConnectionStatus(false, nil)
	go func() {
		_ = s.conn.Close(websocket.StatusNormalClosure, "client disconnect")
		s.cancel()
	}()
}

func (m *Manager) fail(gen uint64, op string, err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return &ConnectionError{Op: op, Err: ErrDisconnected}
	}
	m.pending = nil
	cerr := &ConnectionError{Op: op, Err: err}
	m.store.SetConnectionStatus(false, cerr)
	m.log.Errorf("Connection failed: %v", cerr)
	return cerr
}

func (m *Manager) active(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen == gen
}

func (m *Manager) closedByUser(s *session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return s.userClosed
}

func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.cfg.RequestTimeout > 0 {
		return context.WithTimeout(ctx, m.cfg.RequestTimeout)
	}
	return context.WithCancel(ctx)
}
