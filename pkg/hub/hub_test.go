package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-dancepad/pkg/protocol"
)

// serve runs a hub behind a plain net/http websocket endpoint.
func serve(t *testing.T, h *Hub) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(h, conn).Run()
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) *protocol.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	msg, err := protocol.ParseMessage(data)
	require.NoError(t, err)
	return msg
}

func running(t *testing.T, name string) (*Hub, context.CancelFunc) {
	t.Helper()
	h := New(name)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h, cancel
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	h, _ := running(t, "test")
	url := serve(t, h)
	a, b := dial(t, url), dial(t, url)

	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	msg, err := protocol.NewScoreMessage(30, 10)
	require.NoError(t, err)
	require.NoError(t, h.BroadcastMessage(msg))

	for _, conn := range []*websocket.Conn{a, b} {
		got := read(t, conn)
		assert.Equal(t, protocol.TypeScore, got.Type)
	}
}

func TestHub_AnswersPing(t *testing.T) {
	h, _ := running(t, "test")
	conn := dial(t, serve(t, h))

	ping, err := protocol.NewPingMessage("p1")
	require.NoError(t, err)
	data, err := ping.Bytes()
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))

	got := read(t, conn)
	require.Equal(t, protocol.TypePong, got.Type)
	pong, err := got.GetPongData()
	require.NoError(t, err)
	assert.Equal(t, "p1", pong.ID)
}

func TestHub_HandlerReplies(t *testing.T) {
	h, _ := running(t, "test")

	updates := make(chan protocol.ConfigUpdate, 1)
	h.SetHandler(func(msg *protocol.Message) *protocol.Message {
		u, err := msg.GetConfigUpdate()
		if err != nil {
			return nil
		}
		updates <- *u
		reply, _ := protocol.NewStateMessage(protocol.StateData{Enabled: *u.Enabled})
		return reply
	})
	conn := dial(t, serve(t, h))

	off := false
	update, err := protocol.NewConfigMessage(protocol.ConfigUpdate{Enabled: &off})
	require.NoError(t, err)
	data, err := update.Bytes()
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))

	reply := read(t, conn)
	require.Equal(t, protocol.TypeState, reply.Type)
	state, err := reply.GetStateData()
	require.NoError(t, err)
	assert.False(t, state.Enabled)

	got := <-updates
	require.NotNil(t, got.Enabled)
	assert.False(t, *got.Enabled)
}

func TestHub_IgnoresGarbage(t *testing.T) {
	h, _ := running(t, "test")
	conn := dial(t, serve(t, h))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	// The connection survives and still receives broadcasts.
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	msg, err := protocol.NewScoreMessage(1, 1)
	require.NoError(t, err)
	require.NoError(t, h.BroadcastMessage(msg))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	got, err := protocol.ParseMessage(data)
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeScore, got.Type)
}

func TestHub_CancelClosesClients(t *testing.T) {
	h, cancel := running(t, "test")
	conn := dial(t, serve(t, h))
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-h.Done()
	assert.Zero(t, h.ClientCount())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "hub shutdown closes the connection")
}

func TestFromProtocol(t *testing.T) {
	msg, err := protocol.NewScoreMessage(5, 5)
	require.NoError(t, err)

	out, err := FromProtocol(msg)
	require.NoError(t, err)

	back, err := protocol.ParseMessage(out.Data)
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeScore, back.Type)
}
