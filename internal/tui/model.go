package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/decred/slog"

	"blackjack/internal/game"
	"blackjack/internal/table"
	"blackjack/internal/viewmodel"
)

type tickMsg time.Time

type changedMsg struct{}

type actionDoneMsg struct {
	kind string
	err  error
}

// Model is the terminal table view.
type Model struct {
	ctx   context.Context
	ctrl  *table.Controller
	store *game.Store
	log   slog.Logger
	now   func() time.Time

	storeCh chan game.Change
	localCh chan game.Change

	table  viewmodel.Table
	notice string
	width  int
}

// New creates a model drawing the table behind ctrl. ctx bounds the action
// requests issued from the keyboard.
func New(ctx context.Context, ctrl *table.Controller, store *game.Store, log slog.Logger) *Model {
	if log == nil {
		log = slog.Disabled
	}
	m := &Model{
		ctx:     ctx,
		ctrl:    ctrl,
		store:   store,
		log:     log,
		now:     time.Now,
		storeCh: store.Subscribe(),
		localCh: ctrl.Subscribe(),
	}
	m.refresh()
	return m
}

// Close releases the model's subscriptions.
func (m *Model) Close() {
	m.store.Unsubscribe(m.storeCh)
	m.ctrl.Unsubscribe(m.localCh)
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForChange(), m.tick())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case changedMsg:
		m.refresh()
		return m, m.waitForChange()
	case tickMsg:
		m.refresh()
		return m, m.tick()
	case actionDoneMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("%s failed: %v", msg.kind, msg.err)
		} else {
			m.notice = ""
		}
		m.refresh()
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "h":
		if !m.table.CanHit {
			m.notice = "You cannot hit right now"
			return m, nil
		}
		m.notice = ""
		return m, m.hit()
	case "s":
		if err := m.ctrl.Stand(); err != nil {
			m.notice = "You cannot stand right now"
		} else {
			m.notice = ""
		}
		m.refresh()
	}
	return m, nil
}

func (m *Model) hit() tea.Cmd {
	return func() tea.Msg {
		err := m.ctrl.Hit(m.ctx)
		if err != nil {
			m.log.Debugf("Hit from keyboard: %v", err)
		}
		return actionDoneMsg{kind: "hit", err: err}
	}
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case _, ok := <-m.storeCh:
			if !ok {
				return nil
			}
		case _, ok := <-m.localCh:
			if !ok {
				return nil
			}
		}
		return changedMsg{}
	}
}

// tick redraws on the next whole second of a running countdown, or once a
// second otherwise.
func (m *Model) tick() tea.Cmd {
	now := m.now()
	delay := time.Second
	if at, ok := m.store.Snapshot().Countdown().NextWake(now); ok {
		delay = at.Sub(now)
	}
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) refresh() {
	m.table = m.ctrl.View(m.now())
}

func (m *Model) View() string {
	t := m.table
	var b strings.Builder

	b.WriteString("Blackjack")
	if t.Countdown != "" {
		b.WriteString("    " + t.Countdown)
	}
	b.WriteString("\n")
	if t.Banner != "" {
		b.WriteString("!! " + t.Banner + "\n")
	}
	b.WriteString("\n")

	writeHand(&b, "Dealer", t.Dealer)
	if t.HasSelf {
		writeHand(&b, "You ("+t.Player+")", t.Self)
	} else {
		b.WriteString(fmt.Sprintf("You (%s): waiting for cards\n", t.Player))
	}
	for _, h := range t.Others {
		writeHand(&b, h.UserID, h)
	}

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Status: %s   Wins: %d", t.StatusText, t.Wins))
	if t.Shoe != "" {
		b.WriteString("   " + t.Shoe)
	}
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(m.notice + "\n")
	}
	b.WriteString("\n")
	b.WriteString(keyHint("h", "hit", t.CanHit) + "  " + keyHint("s", "stand", t.CanStand) + "  [q] quit")
	if t.InFlight {
		b.WriteString("  ...")
	}
	b.WriteString("\n")
	return b.String()
}

func writeHand(b *strings.Builder, title string, h viewmodel.Hand) {
	score := fmt.Sprintf("%d", h.Score)
	if h.Soft {
		score = "soft " + score
	}
	b.WriteString(fmt.Sprintf("%s (Score: %s)", title, score))
	if h.Label != "" {
		b.WriteString("  " + h.Label)
	}
	b.WriteString("\n  ")
	if len(h.Cards) == 0 {
		b.WriteString("-")
	}
	for i, c := range h.Cards {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString("[" + c.Rank + c.Symbol + "]")
	}
	b.WriteString("\n")
}

func keyHint(key, action string, enabled bool) string {
	if enabled {
		return "[" + key + "] " + action
	}
	return "(" + key + ") " + action
}
