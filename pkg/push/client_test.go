package push

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testServer is a minimal websocket endpoint for driving the client.
type testServer struct {
	server   *httptest.Server
	upgrader websocket.Upgrader

	lock     sync.Mutex
	upgrades int
	active   int
	conns    []*websocket.Conn
	received []Message
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.lock.Lock()
		s.upgrades++
		s.active++
		s.conns = append(s.conns, conn)
		s.lock.Unlock()
		go s.read(conn)
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *testServer) read(conn *websocket.Conn) {
	defer func() {
		s.lock.Lock()
		s.active--
		s.lock.Unlock()
	}()
	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg := Message{}
		if err := json.Unmarshal(b, &msg); err != nil {
			continue
		}
		s.lock.Lock()
		s.received = append(s.received, msg)
		s.lock.Unlock()
	}
}

func (s *testServer) url() string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http")
}

func (s *testServer) upgradeCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.upgrades
}

func (s *testServer) openConns() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.active
}

func (s *testServer) receivedEvents() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	var events []string
	for _, msg := range s.received {
		events = append(events, msg.Event)
	}
	return events
}

// push sends a message to every connected client.
func (s *testServer) push(t *testing.T, event string, payload interface{}) {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	msg, err := json.Marshal(&Message{Event: event, Payload: b})
	require.NoError(t, err)

	s.lock.Lock()
	defer s.lock.Unlock()
	for _, conn := range s.conns {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, msg))
	}
}

func (s *testServer) closeConns() {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, conn := range s.conns {
		conn.Close()
	}
	s.conns = nil
}

func TestClient_ConnectIsIdempotent(t *testing.T) {
	server := newTestServer(t)
	client := NewClient(NewClientOptions{URL: server.url()})
	defer client.Disconnect()

	require.NoError(t, client.Connect(context.Background()))
	require.NoError(t, client.Connect(context.Background()))

	assert.True(t, client.IsConnected())
	assert.Equal(t, 1, server.upgradeCount())
}

func TestClient_ConcurrentConnectsCoalesce(t *testing.T) {
	server := newTestServer(t)
	client := NewClient(NewClientOptions{URL: server.url()})
	defer client.Disconnect()

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = client.Connect(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, server.upgradeCount())
}

func TestClient_ConnectFailure(t *testing.T) {
	client := NewClient(NewClientOptions{URL: "ws://127.0.0.1:1"})

	err := client.Connect(context.Background())

	connErr := &ConnectionError{}
	require.ErrorAs(t, err, &connErr)
	assert.False(t, client.IsConnected())
}

func TestClient_DispatchInRegistrationOrder(t *testing.T) {
	server := newTestServer(t)
	client := NewClient(NewClientOptions{URL: server.url()})
	defer client.Disconnect()

	var lock sync.Mutex
	var order []string
	client.On("state.update", func(payload json.RawMessage) {
		lock.Lock()
		order = append(order, "first")
		lock.Unlock()
	})
	client.On("state.update", func(payload json.RawMessage) {
		lock.Lock()
		order = append(order, "second")
		lock.Unlock()
	})

	require.NoError(t, client.Connect(context.Background()))
	server.push(t, "state.update", map[string]int{"round": 1})

	assert.Eventually(t, func() bool {
		lock.Lock()
		defer lock.Unlock()
		return len(order) == 2
	}, time.Second, 5*time.Millisecond)

	lock.Lock()
	defer lock.Unlock()
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestClient_OnUnregister(t *testing.T) {
	server := newTestServer(t)
	client := NewClient(NewClientOptions{URL: server.url()})
	defer client.Disconnect()

	var lock sync.Mutex
	var calls int
	unregister := client.On("state.update", func(payload json.RawMessage) {
		lock.Lock()
		calls++
		lock.Unlock()
	})
	var kept int
	client.On("state.update", func(payload json.RawMessage) {
		lock.Lock()
		kept++
		lock.Unlock()
	})
	unregister()
	unregister()

	require.NoError(t, client.Connect(context.Background()))
	server.push(t, "state.update", nil)

	assert.Eventually(t, func() bool {
		lock.Lock()
		defer lock.Unlock()
		return kept == 1
	}, time.Second, 5*time.Millisecond)

	lock.Lock()
	defer lock.Unlock()
	assert.Equal(t, 0, calls)
}

func TestClient_SendWhenNotConnectedIsDropped(t *testing.T) {
	client := NewClient(NewClientOptions{URL: "ws://127.0.0.1:1"})

	assert.NotPanics(t, func() {
		client.Send("state.update", map[string]int{"score": 1})
	})
}

func TestClient_JoinRoomSendsSubscription(t *testing.T) {
	server := newTestServer(t)
	client := NewClient(NewClientOptions{URL: server.url()})
	defer client.Disconnect()

	require.NoError(t, client.Connect(context.Background()))
	client.JoinRoom("s1")

	assert.Eventually(t, func() bool {
		events := server.receivedEvents()
		return len(events) == 1 && events[0] == "room.join"
	}, time.Second, 5*time.Millisecond)

	client.LeaveRoom()
	assert.Eventually(t, func() bool {
		events := server.receivedEvents()
		return len(events) == 2 && events[1] == "room.leave"
	}, time.Second, 5*time.Millisecond)
}

func TestClient_ReconnectsAfterUnexpectedClose(t *testing.T) {
	server := newTestServer(t)
	client := NewClient(NewClientOptions{URL: server.url()})
	defer client.Disconnect()

	require.NoError(t, client.Connect(context.Background()))
	client.JoinRoom("s1")

	// make sure the server has seen the join before severing the socket
	require.Eventually(t, func() bool {
		events := server.receivedEvents()
		return len(events) == 1 && events[0] == "room.join"
	}, time.Second, 5*time.Millisecond)

	server.closeConns()

	// the client reconnects with backoff and re-joins its room
	assert.Eventually(t, func() bool {
		return server.upgradeCount() == 2
	}, 5*time.Second, 50*time.Millisecond)
	assert.Eventually(t, func() bool {
		events := server.receivedEvents()
		return len(events) == 2 && events[1] == "room.join"
	}, time.Second, 5*time.Millisecond)
}

func TestClient_DisconnectDuringDialDiscardsConnection(t *testing.T) {
	server := newTestServer(t)

	// gate the underlying dial so Disconnect can land while it is in flight
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	dialer := &websocket.Dialer{
		NetDial: func(network, addr string) (net.Conn, error) {
			once.Do(func() { close(entered) })
			<-release
			return net.Dial(network, addr)
		},
	}
	client := NewClient(NewClientOptions{URL: server.url(), Dialer: dialer})

	done := make(chan error, 1)
	go func() { done <- client.Connect(context.Background()) }()

	<-entered
	client.Disconnect()
	close(release)

	require.NoError(t, <-done)
	assert.False(t, client.IsConnected())

	// the discarded socket must not linger on the server either
	assert.Eventually(t, func() bool {
		return server.openConns() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestClient_DisconnectSuppressesReconnect(t *testing.T) {
	server := newTestServer(t)
	client := NewClient(NewClientOptions{URL: server.url()})

	require.NoError(t, client.Connect(context.Background()))
	client.Disconnect()

	// longer than the initial reconnect wait
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, 1, server.upgradeCount())
	assert.False(t, client.IsConnected())
}
