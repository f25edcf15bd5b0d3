package play

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mpapenbr/lapracer/log"
	"github.com/mpapenbr/lapracer/pkg/model"
	"github.com/mpapenbr/lapracer/pkg/service"
	"github.com/mpapenbr/lapracer/pkg/track"
	"github.com/mpapenbr/lapracer/version"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 90 * time.Second
	pingInterval = 20 * time.Second
	sendQueue    = 64
)

type Handler struct {
	races        *service.RaceService
	defaultTrack string
	upgrader     websocket.Upgrader
	log          *log.Logger
}

type Option func(h *Handler)

// WithDefaultTrack is used when the client does not pass a track parameter.
func WithDefaultTrack(name string) Option {
	return func(h *Handler) {
		h.defaultTrack = name
	}
}

func WithLogger(l *log.Logger) Option {
	return func(h *Handler) {
		h.log = l
	}
}

// WithCheckOrigin replaces the origin check of the websocket upgrade.
// All origins are accepted by default.
func WithCheckOrigin(f func(r *http.Request) bool) Option {
	return func(h *Handler) {
		h.upgrader.CheckOrigin = f
	}
}

func NewHandler(races *service.RaceService, opts ...Option) *Handler {
	h := &Handler{
		races:        races,
		defaultTrack: track.Circle,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log.Default().Named("play"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds the play routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.handleWS)
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/tracks", h.handleTracks)
}

type client struct {
	race *service.Race
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	log  *log.Logger
}

func (h *Handler) handleWS(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("track")
	if name == "" {
		name = h.defaultTrack
	}
	race, err := h.races.CreateRace(name)
	if err != nil {
		if errors.Is(err, track.ErrTrackNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.races.Remove(race.ID)
		h.log.Warn("upgrade failed", log.ErrorField(err))
		return
	}
	c := &client{
		race: race,
		conn: conn,
		send: make(chan []byte, sendQueue),
		done: make(chan struct{}),
		log:  h.log.With(log.String("race", race.ID)),
	}
	c.log.Info("client connected",
		log.String("track", name),
		log.String("remote", r.RemoteAddr))

	snapshots := race.Broadcaster.Subscribe()
	go race.Run(r.Context())

	snap := race.Snapshot()
	c.queue(model.ServerEnvelope{
		Type:     model.MsgWelcome,
		Track:    race.Track.Name,
		State:    &snap,
		ServerMS: time.Now().UnixMilli(),
	})

	go c.forward(snapshots, race.Completion())
	go c.writePump()
	c.readPump()

	close(c.done)
	h.races.Remove(race.ID)
	c.log.Info("client disconnected")
}

// forward turns race output into server envelopes until the race stops or
// the client goes away. State frames may be dropped, the completion record
// is not.
func (c *client) forward(
	snapshots <-chan model.RaceSnapshot,
	completion <-chan model.CompletionRecord,
) {
	for {
		select {
		case <-c.done:
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			c.queue(model.ServerEnvelope{Type: model.MsgState, State: &snap})
		case rec := <-completion:
			c.deliver(model.ServerEnvelope{Type: model.MsgCompletion, Completion: &rec})
			completion = nil
		}
	}
}

func (c *client) readPump() {
	c.conn.SetReadLimit(4096)
	//nolint:errcheck // by design
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("read failed", log.ErrorField(err))
			}
			return
		}
		var env model.ClientEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.sendError("invalid message")
			continue
		}
		c.handle(&env)
	}
}

func (c *client) handle(env *model.ClientEnvelope) {
	switch env.Type {
	case model.MsgKey:
		// unbound keys are ignored, the browser forwards everything
		if env.Down {
			c.race.Input().KeyDown(env.Code)
		} else {
			c.race.Input().KeyUp(env.Code)
		}
	case model.MsgStart:
		if err := c.race.Start(); err != nil {
			c.sendError(err.Error())
		}
	case model.MsgCamera:
		mode, err := model.ParseCameraMode(env.Mode)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		if err := c.race.SetCameraMode(mode); err != nil {
			c.sendError(err.Error())
		}
	case model.MsgPing:
		c.queue(model.ServerEnvelope{Type: model.MsgPong, ServerMS: time.Now().UnixMilli()})
	default:
		c.sendError("unknown message type: " + env.Type)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			//nolint:errcheck // connection is going away anyway
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case msg := <-c.send:
			//nolint:errcheck // by design
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Debug("write failed", log.ErrorField(err))
				return
			}
		case <-ticker.C:
			//nolint:errcheck // by design
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) sendError(msg string) {
	c.queue(model.ServerEnvelope{Type: model.MsgError, Message: msg})
}

// queue drops the message if the client does not keep up.
func (c *client) queue(env model.ServerEnvelope) {
	data, ok := c.marshal(env)
	if !ok {
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	default:
		c.log.Debug("client too slow, dropping message", log.String("type", env.Type))
	}
}

// deliver waits for room in the send queue until the client goes away.
func (c *client) deliver(env model.ServerEnvelope) {
	data, ok := c.marshal(env)
	if !ok {
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
		c.log.Warn("client gone before delivery", log.String("type", env.Type))
	}
}

func (c *client) marshal(env model.ServerEnvelope) ([]byte, bool) {
	data, err := json.Marshal(env)
	if err != nil {
		c.log.Error("could not marshal envelope", log.ErrorField(err))
		return nil, false
	}
	return data, true
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"status":  "ok",
		"races":   h.races.Count(),
		"version": version.Version,
	})
}

func (h *Handler) handleTracks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.races.Catalog().Names())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("could not write response", log.ErrorField(err))
	}
}
