package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/control"
	"github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/game"
	"github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/script"
)

// ---------- message envelope ----------

type Msg struct {
	T string                 `json:"t"`           // type
	M map[string]interface{} `json:"m,omitempty"` // payload
}

// ---------- room / hub ----------

// Room is one puzzle session shared by its members.
type Room struct {
	ID  string
	ctl *control.Controller

	mu      sync.Mutex
	members map[*Client]struct{}

	unsubscribe func()
}

type Option func(*Hub)

func WithLogger(l *slog.Logger) Option { return func(h *Hub) { h.logger = l } }

// WithDefaultDisks sets the size of puzzles created without an explicit count.
func WithDefaultDisks(n int) Option { return func(h *Hub) { h.disks = n } }

// WithPace sets the auto-solve pace used when a request names none.
func WithPace(d time.Duration) Option { return func(h *Hub) { h.pace = d } }

func WithScripts(lib *script.Library) Option { return func(h *Hub) { h.scripts = lib } }

type Hub struct {
	allowOrigins map[string]bool
	clients      map[*Client]struct{}
	mu           sync.RWMutex
	broadcast    chan []byte

	roomsMu sync.RWMutex
	rooms   map[string]*Room

	disks   int
	pace    time.Duration
	scripts *script.Library
	logger  *slog.Logger
}

func NewHub(allow []string, opts ...Option) *Hub {
	m := map[string]bool{}
	for _, a := range allow {
		if a != "" {
			m[a] = true
		}
	}
	h := &Hub{
		allowOrigins: m,
		clients:      map[*Client]struct{}{},
		broadcast:    make(chan []byte, 256),
		rooms:        map[string]*Room{},
		disks:        game.DefaultDisks,
		pace:         control.DefaultPace,
		logger:       slog.Default(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *Hub) Run() {
	for msg := range h.broadcast {
		h.mu.RLock()
		for c := range h.clients {
			c.deliver(msg)
		}
		h.mu.RUnlock()
	}
}

// ---------- websockets ----------

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin != "" && !h.allowOrigins[origin] {
		http.Error(w, "forbidden origin", http.StatusForbidden)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return
	}

	client := newClient()

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("client connected", "client", client.id)

	// writer
	go func() {
		ping := time.NewTicker(15 * time.Second)
		defer func() { ping.Stop(); _ = c.Close(websocket.StatusNormalClosure, "bye") }()
		for {
			select {
			case <-client.done:
				return
			case msg := <-client.send:
				if err := c.Write(r.Context(), websocket.MessageText, msg); err != nil {
					return
				}
			case <-ping.C:
				_ = c.Ping(r.Context())
			}
		}
	}()

	// reader
	for {
		_, data, err := c.Read(r.Context())
		if err != nil {
			break
		}
		var m Msg
		if err := json.Unmarshal(data, &m); err != nil {
			h.sendTo(client, errMsg("BAD_MESSAGE", err))
			continue
		}
		h.handle(client, m)
	}

	// disconnect
	h.mu.Lock()
	delete(h.clients, client)
	close(client.done)
	h.mu.Unlock()

	h.roomsMu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.roomsMu.RUnlock()
	for _, room := range rooms {
		h.leave(client, room)
	}
	h.broadcastRooms()

	h.logger.Info("client disconnected", "client", client.id)
}

func (h *Hub) handle(client *Client, m Msg) {
	switch m.T {

	case "join":
		h.sendTo(client, Msg{T: "joined", M: map[string]interface{}{"id": client.id}})

	// ---- Lobby ----
	case "list_rooms":
		h.sendTo(client, Msg{T: "rooms", M: map[string]interface{}{"list": h.roomsSnapshot()}})

	case "list_scripts":
		var names []string
		if h.scripts != nil {
			names = h.scripts.Names()
		}
		h.sendTo(client, Msg{T: "scripts", M: map[string]interface{}{"list": names}})

	case "create_puzzle":
		disks := h.disks
		if v, ok := intField(m.M, "disks"); ok {
			disks = v
		}
		room, err := h.createRoom(disks)
		if err != nil {
			h.sendTo(client, errMsg(errCode(err), err))
			return
		}
		h.sendTo(client, Msg{T: "created", M: map[string]interface{}{"room": room.ID, "disks": disks}})
		h.broadcastRooms()

	case "join_puzzle":
		room := h.room(m.M)
		if room == nil {
			h.sendTo(client, errMsg("NO_ROOM", nil))
			return
		}
		room.mu.Lock()
		room.members[client] = struct{}{}
		room.mu.Unlock()
		h.logger.Info("room join", "room", room.ID, "client", client.id)
		h.sendTo(client, stateMsg(room.ID, room.ctl.Snapshot()))
		h.broadcastRooms()

	case "leave_puzzle":
		if room := h.room(m.M); room != nil {
			h.leave(client, room)
			h.broadcastRooms()
		}

	// ---- Puzzle commands ----
	case "select", "confirm", "reset", "auto_solve", "activate", "deactivate":
		room := h.memberRoom(client, m.M)
		if room == nil {
			return
		}
		cmd := control.Command{Kind: control.CommandKind(m.T)}
		switch cmd.Kind {
		case control.CmdSelect:
			peg, ok := intField(m.M, "peg")
			if !ok {
				h.sendTo(client, errMsg("BAD_MESSAGE", errors.New("missing peg")))
				return
			}
			cmd.Peg = peg
		case control.CmdReset:
			cmd.Disks, _ = intField(m.M, "disks")
		case control.CmdAutoSolve:
			cmd.Pace = h.pace
			if ms, ok := intField(m.M, "pace_ms"); ok {
				cmd.Pace = time.Duration(ms) * time.Millisecond
			}
		}
		if err := room.ctl.Dispatch(cmd); err != nil && !errors.Is(err, game.ErrIllegalMove) {
			// illegal moves already reached the room as "rejected"
			h.sendTo(client, errMsg(errCode(err), err))
		}

	case "run_script":
		room := h.memberRoom(client, m.M)
		if room == nil {
			return
		}
		name, _ := m.M["name"].(string)
		if h.scripts == nil {
			h.sendTo(client, errMsg("NO_SCRIPT", script.ErrNotFound))
			return
		}
		src, err := h.scripts.Get(name)
		if err != nil {
			h.sendTo(client, errMsg("NO_SCRIPT", err))
			return
		}
		pace := h.pace
		if ms, ok := intField(m.M, "pace_ms"); ok {
			pace = time.Duration(ms) * time.Millisecond
		}
		if _, err := script.Start(room.ctl, name, src, pace); err != nil {
			h.sendTo(client, errMsg(errCode(err), err))
		}

	case "pong":
		// ignore

	default:
		h.sendTo(client, errMsg("UNKNOWN_TYPE", nil))
	}
}

// ---------- rooms ----------

func (h *Hub) createRoom(disks int) (*Room, error) {
	ctl, err := control.New(disks, control.WithLogger(h.logger))
	if err != nil {
		return nil, err
	}
	room := &Room{ID: randID(), ctl: ctl, members: map[*Client]struct{}{}}
	room.unsubscribe = ctl.Subscribe(func(e control.Event) { h.relay(room, e) })

	h.roomsMu.Lock()
	h.rooms[room.ID] = room
	h.roomsMu.Unlock()
	h.logger.Info("room created", "room", room.ID, "disks", disks)
	return room, nil
}

func (h *Hub) room(payload map[string]interface{}) *Room {
	id, _ := payload["room"].(string)
	h.roomsMu.RLock()
	defer h.roomsMu.RUnlock()
	return h.rooms[id]
}

// memberRoom resolves the payload's room and checks the client joined it,
// replying with an error otherwise.
func (h *Hub) memberRoom(client *Client, payload map[string]interface{}) *Room {
	room := h.room(payload)
	if room == nil {
		h.sendTo(client, errMsg("NO_ROOM", nil))
		return nil
	}
	room.mu.Lock()
	_, ok := room.members[client]
	room.mu.Unlock()
	if !ok {
		h.sendTo(client, errMsg("NOT_JOINED", nil))
		return nil
	}
	return room
}

// leave drops client from room and closes the room once it is empty.
func (h *Hub) leave(client *Client, room *Room) {
	room.mu.Lock()
	_, was := room.members[client]
	delete(room.members, client)
	empty := len(room.members) == 0
	room.mu.Unlock()
	if !was || !empty {
		return
	}

	h.roomsMu.Lock()
	delete(h.rooms, room.ID)
	h.roomsMu.Unlock()
	room.ctl.OnDeactivated()
	room.unsubscribe()
	h.logger.Info("room closed", "room", room.ID)
}

// relay runs under the room controller's lock; it must not call back into it.
func (h *Hub) relay(room *Room, e control.Event) {
	var msg Msg
	switch e.Kind {
	case control.EventState:
		msg = stateMsg(room.ID, e.Snapshot)
	case control.EventWon:
		msg = Msg{T: "won", M: map[string]interface{}{
			"room": room.ID, "moves": e.Snapshot.MoveCount,
			"minMoves": e.Snapshot.MinMoves, "optimal": e.Snapshot.Optimal,
		}}
	case control.EventRejected:
		payload := map[string]interface{}{"room": room.ID, "error": e.Err.Error()}
		var ill *game.IllegalMoveError
		if errors.As(e.Err, &ill) {
			payload["reason"] = string(ill.Reason)
		}
		msg = Msg{T: "rejected", M: payload}
	case control.EventTaskDone:
		payload := map[string]interface{}{"room": room.ID, "task": e.Task}
		if e.Err != nil {
			payload["error"] = e.Err.Error()
		}
		msg = Msg{T: "task_done", M: payload}
	default:
		return
	}
	h.sendToRoom(room, msg)
}

// ---------- helpers (send/broadcast/rooms/state) ----------

func (h *Hub) sendTo(c *Client, msg Msg) {
	b, _ := json.Marshal(msg)
	c.deliver(b)
}

func (h *Hub) sendToRoom(room *Room, msg Msg) {
	b, _ := json.Marshal(msg)
	room.mu.Lock()
	for c := range room.members {
		c.deliver(b)
	}
	room.mu.Unlock()
}

func (h *Hub) roomMeta(r *Room) map[string]interface{} {
	r.mu.Lock()
	occ := len(r.members)
	r.mu.Unlock()
	snap := r.ctl.Snapshot()
	return map[string]interface{}{
		"id": r.ID, "disks": snap.DiskCount, "members": occ,
		"moves": snap.MoveCount, "won": snap.Won,
	}
}

func (h *Hub) roomsSnapshot() []map[string]interface{} {
	h.roomsMu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.roomsMu.RUnlock()
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })

	list := make([]map[string]interface{}, 0, len(rooms))
	for _, r := range rooms {
		list = append(list, h.roomMeta(r))
	}
	return list
}

func (h *Hub) broadcastRooms() {
	msg := Msg{T: "rooms", M: map[string]interface{}{"list": h.roomsSnapshot()}}
	b, _ := json.Marshal(msg)
	select {
	case h.broadcast <- b:
	default:
		h.logger.Warn("broadcast queue full, dropping rooms update")
	}
}

func stateMsg(roomID string, snap game.Snapshot) Msg {
	return Msg{T: "state", M: map[string]interface{}{"room": roomID, "state": snap}}
}

func errMsg(code string, err error) Msg {
	payload := map[string]interface{}{"code": code}
	if err != nil {
		payload["error"] = err.Error()
	}
	return Msg{T: "error", M: payload}
}

func errCode(err error) string {
	switch {
	case errors.Is(err, game.ErrInvalidDiskCount):
		return "INVALID_DISKS"
	case errors.Is(err, game.ErrInvalidPeg):
		return "INVALID_PEG"
	case errors.Is(err, game.ErrGameWon):
		return "GAME_WON"
	case errors.Is(err, control.ErrInactive):
		return "INACTIVE"
	case errors.Is(err, control.ErrUnknownCommand):
		return "UNKNOWN_TYPE"
	default:
		return "INTERNAL"
	}
}

// intField reads a JSON number from payload.
func intField(payload map[string]interface{}, key string) (int, bool) {
	v, ok := payload[key].(float64)
	if !ok {
		return 0, false
	}
	return int(v), true
}
