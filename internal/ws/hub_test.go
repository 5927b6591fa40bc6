package ws

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/game"
	"github.com/youngZwiebelandtheGemuseBeat/hanoi/internal/script"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	lib, err := script.NewLibrary("", nil)
	require.NoError(t, err)
	h := NewHub([]string{"http://allowed.test"},
		WithDefaultDisks(3),
		WithScripts(lib),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	go h.Run()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload map[string]interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(Msg{T: typ, M: payload}))
}

// readUntil skips messages until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) Msg {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var m Msg
		require.NoError(t, conn.ReadJSON(&m), "waiting for %q", typ)
		if m.T == typ {
			return m
		}
	}
}

// readState waits for a state message matching want.
func readState(t *testing.T, conn *websocket.Conn, want func(game.Snapshot) bool) game.Snapshot {
	t.Helper()
	for {
		m := readUntil(t, conn, "state")
		b, err := json.Marshal(m.M["state"])
		require.NoError(t, err)
		var snap game.Snapshot
		require.NoError(t, json.Unmarshal(b, &snap))
		if want(snap) {
			return snap
		}
	}
}

func createAndJoin(t *testing.T, conn *websocket.Conn, disks int) string {
	t.Helper()
	send(t, conn, "create_puzzle", map[string]interface{}{"disks": disks})
	created := readUntil(t, conn, "created")
	room, _ := created.M["room"].(string)
	require.NotEmpty(t, room)
	send(t, conn, "join_puzzle", map[string]interface{}{"room": room})
	readState(t, conn, func(s game.Snapshot) bool { return s.MoveCount == 0 })
	return room
}

func TestJoinAssignsID(t *testing.T) {
	conn := dial(t, newTestServer(t))
	send(t, conn, "join", nil)
	m := readUntil(t, conn, "joined")
	assert.NotEmpty(t, m.M["id"])
}

func TestForbiddenOrigin(t *testing.T) {
	srv := newTestServer(t)
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), http.Header{"Origin": {"http://evil.test"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPlayMoveAndWin(t *testing.T) {
	conn := dial(t, newTestServer(t))
	room := createAndJoin(t, conn, 2)

	for _, mv := range []game.Move{{From: 0, To: 1}, {From: 0, To: 2}, {From: 1, To: 2}} {
		send(t, conn, "select", map[string]interface{}{"room": room, "peg": mv.From})
		send(t, conn, "confirm", map[string]interface{}{"room": room})
		send(t, conn, "select", map[string]interface{}{"room": room, "peg": mv.To})
	}
	won := readUntil(t, conn, "won")
	assert.Equal(t, true, won.M["optimal"])
	assert.Equal(t, float64(3), won.M["moves"])

	snap := readState(t, conn, func(s game.Snapshot) bool { return s.Won })
	assert.Equal(t, []int{2, 1}, snap.Pegs[2])
	assert.Equal(t, 3, snap.MoveCount)

	send(t, conn, "confirm", map[string]interface{}{"room": room})
	e := readUntil(t, conn, "error")
	assert.Equal(t, "GAME_WON", e.M["code"])
}

func TestRejectedMoveReachesRoom(t *testing.T) {
	conn := dial(t, newTestServer(t))
	room := createAndJoin(t, conn, 3)

	send(t, conn, "confirm", map[string]interface{}{"room": room})
	send(t, conn, "select", map[string]interface{}{"room": room, "peg": 0})
	m := readUntil(t, conn, "rejected")
	assert.Equal(t, string(game.ReasonSamePeg), m.M["reason"])
}

func TestResetAndErrors(t *testing.T) {
	conn := dial(t, newTestServer(t))
	room := createAndJoin(t, conn, 3)

	send(t, conn, "reset", map[string]interface{}{"room": room, "disks": 12})
	e := readUntil(t, conn, "error")
	assert.Equal(t, "INVALID_DISKS", e.M["code"])

	send(t, conn, "reset", map[string]interface{}{"room": room, "disks": 6})
	snap := readState(t, conn, func(s game.Snapshot) bool { return s.DiskCount == 6 })
	assert.Equal(t, []int{6, 5, 4, 3, 2, 1}, snap.Pegs[0])

	send(t, conn, "select", map[string]interface{}{"room": room, "peg": 7})
	e = readUntil(t, conn, "error")
	assert.Equal(t, "INVALID_PEG", e.M["code"])

	send(t, conn, "select", map[string]interface{}{"room": "nope", "peg": 1})
	e = readUntil(t, conn, "error")
	assert.Equal(t, "NO_ROOM", e.M["code"])

	send(t, conn, "create_puzzle", map[string]interface{}{"disks": 1})
	e = readUntil(t, conn, "error")
	assert.Equal(t, "INVALID_DISKS", e.M["code"])
}

func TestCommandsRequireMembership(t *testing.T) {
	srv := newTestServer(t)
	owner := dial(t, srv)
	room := createAndJoin(t, owner, 3)

	other := dial(t, srv)
	send(t, other, "confirm", map[string]interface{}{"room": room})
	e := readUntil(t, other, "error")
	assert.Equal(t, "NOT_JOINED", e.M["code"])
}

func TestAutoSolveBroadcastsToMembers(t *testing.T) {
	srv := newTestServer(t)
	a := dial(t, srv)
	room := createAndJoin(t, a, 3)
	b := dial(t, srv)
	send(t, b, "join_puzzle", map[string]interface{}{"room": room})
	readState(t, b, func(s game.Snapshot) bool { return s.MoveCount == 0 })

	send(t, a, "auto_solve", map[string]interface{}{"room": room, "pace_ms": 1})
	for _, conn := range []*websocket.Conn{a, b} {
		won := readUntil(t, conn, "won")
		assert.Equal(t, float64(7), won.M["moves"])
		done := readUntil(t, conn, "task_done")
		assert.Equal(t, "auto_solve", done.M["task"])
	}
}

func TestRunScript(t *testing.T) {
	conn := dial(t, newTestServer(t))
	room := createAndJoin(t, conn, 4)

	send(t, conn, "list_scripts", nil)
	m := readUntil(t, conn, "scripts")
	assert.Contains(t, m.M["list"], "iterative")

	send(t, conn, "run_script", map[string]interface{}{"room": room, "name": "iterative", "pace_ms": 0})
	won := readUntil(t, conn, "won")
	assert.Equal(t, float64(15), won.M["moves"])

	send(t, conn, "run_script", map[string]interface{}{"room": room, "name": "missing"})
	e := readUntil(t, conn, "error")
	assert.Equal(t, "NO_SCRIPT", e.M["code"])
}

func TestDeactivatedRoom(t *testing.T) {
	conn := dial(t, newTestServer(t))
	room := createAndJoin(t, conn, 3)

	send(t, conn, "deactivate", map[string]interface{}{"room": room})
	send(t, conn, "confirm", map[string]interface{}{"room": room})
	e := readUntil(t, conn, "error")
	assert.Equal(t, "INACTIVE", e.M["code"])

	send(t, conn, "activate", map[string]interface{}{"room": room})
	send(t, conn, "confirm", map[string]interface{}{"room": room})
	readState(t, conn, func(s game.Snapshot) bool { return s.HasSelection })
}

// readRooms waits for a rooms listing matching want.
func readRooms(t *testing.T, conn *websocket.Conn, want func([]interface{}) bool) []interface{} {
	t.Helper()
	for {
		m := readUntil(t, conn, "rooms")
		list, _ := m.M["list"].([]interface{})
		if want(list) {
			return list
		}
	}
}

func TestRoomsListingAndClose(t *testing.T) {
	conn := dial(t, newTestServer(t))
	room := createAndJoin(t, conn, 3)

	send(t, conn, "list_rooms", nil)
	list := readRooms(t, conn, func(l []interface{}) bool {
		if len(l) != 1 {
			return false
		}
		entry, _ := l[0].(map[string]interface{})
		return entry["members"] == float64(1)
	})
	entry, _ := list[0].(map[string]interface{})
	assert.Equal(t, room, entry["id"])
	assert.Equal(t, float64(3), entry["disks"])

	send(t, conn, "leave_puzzle", map[string]interface{}{"room": room})
	readRooms(t, conn, func(l []interface{}) bool { return len(l) == 0 })

	send(t, conn, "confirm", map[string]interface{}{"room": room})
	e := readUntil(t, conn, "error")
	assert.Equal(t, "NO_ROOM", e.M["code"])
}

func TestBadMessage(t *testing.T) {
	conn := dial(t, newTestServer(t))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	e := readUntil(t, conn, "error")
	assert.Equal(t, "BAD_MESSAGE", e.M["code"])

	send(t, conn, "fly", nil)
	e = readUntil(t, conn, "error")
	assert.Equal(t, "UNKNOWN_TYPE", e.M["code"])
}
