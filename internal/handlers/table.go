package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/decred/slog"
	"github.com/go-chi/chi/v5"

	"blackjack/internal/client"
	"blackjack/internal/game"
	"blackjack/internal/table"
	"blackjack/internal/viewmodel"
	"blackjack/views/components"
)

const keepAliveInterval = 25 * time.Second

// TableHandler serves the local web view of the table.
type TableHandler struct {
	ctrl  *table.Controller
	store *game.Store
	log   slog.Logger
	now   func() time.Time
}

func NewTableHandler(ctrl *table.Controller, store *game.Store, log slog.Logger) *TableHandler {
	if log == nil {
		log = slog.Disabled
	}
	return &TableHandler{ctrl: ctrl, store: store, log: log, now: time.Now}
}

// RegisterRoutes mounts the request/response routes.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.page)
	r.Get("/table", h.tableFragment)
	r.Post("/hit", h.hit)
	r.Post("/stand", h.stand)
}

// RegisterStream mounts the SSE route. It must not sit behind a request
// timeout.
func (h *TableHandler) RegisterStream(r chi.Router) {
	r.Get("/stream", h.stream)
}

func (h *TableHandler) page(w http.ResponseWriter, r *http.Request) {
	render(w, r, components.Page(viewmodel.Page{
		Title: "Blackjack",
		Table: h.ctrl.View(h.now()),
	}))
}

func (h *TableHandler) tableFragment(w http.ResponseWriter, r *http.Request) {
	render(w, r, components.TableFragment(h.ctrl.View(h.now())))
}

func (h *TableHandler) hit(w http.ResponseWriter, r *http.Request) {
	err := h.ctrl.Hit(r.Context())
	if err != nil {
		h.log.Infof("hit player=%s err=%v", h.ctrl.Player(), err)
		var aerr *client.ActionError
		switch {
		case errors.Is(err, table.ErrActionUnavailable):
			http.Error(w, "hit not available", http.StatusConflict)
		case errors.As(err, &aerr):
			http.Error(w, "game server rejected the action", http.StatusBadGateway)
		default:
			http.Error(w, "hit failed", http.StatusInternalServerError)
		}
		return
	}
	h.done(w, r)
}

func (h *TableHandler) stand(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Stand(); err != nil {
		http.Error(w, "stand not available", http.StatusConflict)
		return
	}
	h.done(w, r)
}

func (h *TableHandler) done(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Hx-Request") == "true" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *TableHandler) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	storeSub := h.store.Subscribe()
	defer h.store.Unsubscribe(storeSub)
	localSub := h.ctrl.Subscribe()
	defer h.ctrl.Unsubscribe(localSub)

	lastKey := ""
	send := func() {
		view := h.ctrl.View(h.now())
		key := view.Key()
		if key == lastKey {
			return
		}
		html, err := renderToString(r, components.TableFragment(view))
		if err != nil {
			h.log.Errorf("render table: %v", err)
			return
		}
		lastKey = key
		writeSSE(w, "table", html)
		flusher.Flush()
	}

	send()

	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-storeSub:
			send()
		case <-localSub:
			send()
		case <-tick.C:
			send()
		case <-keepAlive.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}
