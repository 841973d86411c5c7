package table

import (
	"context"
	"errors"
	"time"

	"github.com/decred/slog"

	"blackjack/internal/client"
	"blackjack/internal/game"
	"blackjack/internal/viewmodel"
	"blackjack/pkg/realtime"
)

// ChangeLocal is published when a client-only flag changes.
const ChangeLocal game.Change = "local"

// ErrActionUnavailable is returned when the table does not allow the action.
var ErrActionUnavailable = errors.New("action not available")

var errUnchanged = errors.New("unchanged")

// Actions submits player actions to the server.
type Actions interface {
	SubmitAction(ctx context.Context, kind, playerName string) error
}

type flags struct {
	standing bool
	inFlight bool
	round    int
	status   game.Status
}

// Controller combines the shared table state with the local player's
// ephemeral flags and issues actions on their behalf.
type Controller struct {
	store   *game.Store
	actions Actions
	player  string
	log     slog.Logger
	r       *realtime.Record[flags, game.Change]
}

// NewController creates a controller for player.
func NewController(store *game.Store, actions Actions, player string, log slog.Logger) *Controller {
	if log == nil {
		log = slog.Disabled
	}
	snap := store.Snapshot()
	return &Controller{
		store:   store,
		actions: actions,
		player:  player,
		log:     log,
		r:       realtime.NewRecord[flags, game.Change](flags{round: snap.Round, status: snap.Status}),
	}
}

// Player returns the local player name.
func (c *Controller) Player() string { return c.player }

// Subscribe returns a channel notified when a local flag changes. Store
// changes are delivered by the store's own subscription.
func (c *Controller) Subscribe() chan game.Change {
	return c.r.Broadcaster().Subscribe()
}

// Unsubscribe removes a channel returned by Subscribe.
func (c *Controller) Unsubscribe(ch chan game.Change) {
	c.r.Broadcaster().Unsubscribe(ch)
}

// View projects the current table at time now.
func (c *Controller) View(now time.Time) viewmodel.Table {
	snap := c.store.Snapshot()
	c.sync(snap)
	var local viewmodel.Local
	c.r.Read(func(f *flags) { local = c.local(f) })
	return viewmodel.Build(snap, local, now)
}

// Hit asks the server for another card. The in-flight flag is held until the
// request completes.
func (c *Controller) Hit(ctx context.Context) error {
	snap := c.store.Snapshot()
	err := c.r.Update(ChangeLocal, func(f *flags) error {
		reset(f, snap)
		if !viewmodel.Build(snap, c.local(f), time.Now()).CanHit {
			return ErrActionUnavailable
		}
		f.inFlight = true
		return nil
	})
	if err != nil {
		return err
	}
	err = c.actions.SubmitAction(ctx, client.ActionHit, c.player)
	_ = c.r.Update(ChangeLocal, func(f *flags) error {
		f.inFlight = false
		return nil
	})
	if err != nil {
		c.log.Warnf("Hit for %s failed: %v", c.player, err)
	}
	return err
}

// Stand stops taking cards for the rest of the round. It is client-only; the
// server has no stand action.
func (c *Controller) Stand() error {
	snap := c.store.Snapshot()
	err := c.r.Update(ChangeLocal, func(f *flags) error {
		reset(f, snap)
		if !viewmodel.Build(snap, c.local(f), time.Now()).CanStand {
			return ErrActionUnavailable
		}
		f.standing = true
		return nil
	})
	if err == nil {
		c.log.Debugf("%s stands in round %d", c.player, snap.Round)
	}
	return err
}

// sync clears the standing flag once a new round has started.
func (c *Controller) sync(snap game.Snapshot) {
	_ = c.r.Update(ChangeLocal, func(f *flags) error {
		was := f.standing
		round, status := f.round, f.status
		reset(f, snap)
		if was == f.standing && round == f.round && status == f.status {
			return errUnchanged
		}
		return nil
	})
}

func (c *Controller) local(f *flags) viewmodel.Local {
	return viewmodel.Local{Player: c.player, Standing: f.standing, InFlight: f.inFlight}
}

func reset(f *flags, snap game.Snapshot) {
	newRound := snap.Round != f.round
	reopened := f.status != game.StatusPlaying && snap.Status == game.StatusPlaying
	if newRound || reopened {
		f.standing = false
	}
	f.round = snap.Round
	f.status = snap.Status
}
