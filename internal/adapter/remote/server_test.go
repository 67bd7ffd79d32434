package remote

import (
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

	"github.com/tejashwikalptaru/govis/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/logger"
	"github.com/tejashwikalptaru/govis/internal/service"
	"github.com/tejashwikalptaru/govis/internal/testutil"
)

// fakePlayback records transport commands and publishes like the real service.
type fakePlayback struct {
	mu    sync.Mutex
	bus   *eventbus.SyncEventBus
	calls []string
	err   error
}

func (p *fakePlayback) record(name string, status domain.PlaybackStatus) error {
	p.mu.Lock()
	p.calls = append(p.calls, name)
	err := p.err
	p.mu.Unlock()
	if err != nil {
		return err
	}
	p.bus.Publish(domain.NewPlaybackChangedEvent(status, 1500*time.Millisecond))
	return nil
}

func (p *fakePlayback) Play() error   { return p.record("play", domain.StatusPlaying) }
func (p *fakePlayback) Pause() error  { return p.record("pause", domain.StatusPaused) }
func (p *fakePlayback) Toggle() error { return p.record("toggle", domain.StatusPlaying) }

func (p *fakePlayback) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

type fixture struct {
	bus      *eventbus.SyncEventBus
	settings *service.SettingsService
	playback *fakePlayback
	server   *Server
	http     *httptest.Server
}

func newFixture(t *testing.T, withPlayback bool) *fixture {
	t.Helper()
	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	settings := service.NewSettingsService(log, nil, bus)

	f := &fixture{bus: bus, settings: settings}
	var pc PlaybackController
	if withPlayback {
		f.playback = &fakePlayback{bus: bus}
		pc = f.playback
	}
	f.server = NewServer(log, settings, pc, bus)
	f.http = httptest.NewServer(f.server.Handler())

	t.Cleanup(func() {
		assert.NoError(t, f.server.Close())
		f.http.Close()
		_ = bus.Close()
	})
	return f
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + Path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) outbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg outbound
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func send(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func TestServer_SendsCurrentSettingsOnConnect(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t, testutil.IgnoreHTTPGoroutines()...) })
	f := newFixture(t, false)

	conn := f.dial(t)
	msg := read(t, conn)
	assert.Equal(t, MessageSettings, msg.Type)
	require.NotNil(t, msg.Settings)
	assert.Equal(t, domain.DefaultSettings(), *msg.Settings)

	send(t, conn, `{"type":"get"}`)
	msg = read(t, conn)
	assert.Equal(t, MessageSettings, msg.Type)
}

func TestServer_UpdateBroadcastsToEveryClient(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t, testutil.IgnoreHTTPGoroutines()...) })
	f := newFixture(t, false)

	a, b := f.dial(t), f.dial(t)
	read(t, a)
	read(t, b)
	require.Eventually(t, func() bool { return f.server.Clients() == 2 }, time.Second, 5*time.Millisecond)

	send(t, a, `{"type":"update","settings":{"mode":"particles","sensitivity":3}}`)

	for _, conn := range []*websocket.Conn{a, b} {
		msg := read(t, conn)
		assert.Equal(t, MessageSettings, msg.Type)
		require.NotNil(t, msg.Settings)
		assert.Equal(t, domain.ModeParticles, msg.Settings.Mode)
		assert.Equal(t, 3, msg.Settings.Sensitivity)
	}
	assert.Equal(t, 3, f.settings.Current().Sensitivity)
}

func TestServer_LocalChangesReachClients(t *testing.T) {
	f := newFixture(t, false)
	conn := f.dial(t)
	read(t, conn)

	mode := domain.ModeCircular
	_, err := f.settings.Update(domain.SettingsPatch{Mode: &mode})
	require.NoError(t, err)

	msg := read(t, conn)
	require.NotNil(t, msg.Settings)
	assert.Equal(t, domain.ModeCircular, msg.Settings.Mode)

	f.bus.Publish(domain.NewLoopStateChangedEvent(domain.ModeCircular, true))
	msg = read(t, conn)
	assert.Equal(t, MessageLoop, msg.Type)
	assert.Equal(t, domain.ModeCircular, msg.Mode)
	require.NotNil(t, msg.Running)
	assert.True(t, *msg.Running)
}

func TestServer_RejectedCommands(t *testing.T) {
	f := newFixture(t, false)
	conn := f.dial(t)
	read(t, conn)

	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"out of range", `{"type":"update","settings":{"sensitivity":20}}`, "sensitivity"},
		{"bad color", `{"type":"update","settings":{"customColors":["red"]}}`, "customColors"},
		{"unknown command", `{"type":"explode"}`, "type"},
		{"malformed", `{"type":`, "message"},
		{"playback unavailable", `{"type":"play"}`, "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send(t, conn, tt.raw)
			msg := read(t, conn)
			assert.Equal(t, MessageError, msg.Type)
			assert.Equal(t, tt.field, msg.Field)
			assert.NotEmpty(t, msg.Error)
		})
	}

	assert.Equal(t, domain.DefaultSettings(), f.settings.Current(), "rejected updates change nothing")
}

func TestServer_EmptyUpdateRepliesWithCurrent(t *testing.T) {
	f := newFixture(t, false)
	conn := f.dial(t)
	read(t, conn)

	send(t, conn, `{"type":"update","settings":{}}`)
	msg := read(t, conn)
	assert.Equal(t, MessageSettings, msg.Type)
	assert.Equal(t, domain.DefaultSettings(), *msg.Settings)
}

func TestServer_Reset(t *testing.T) {
	f := newFixture(t, false)
	sensitivity := 2
	_, err := f.settings.Update(domain.SettingsPatch{Sensitivity: &sensitivity})
	require.NoError(t, err)

	conn := f.dial(t)
	assert.Equal(t, 2, read(t, conn).Settings.Sensitivity)

	send(t, conn, `{"type":"reset"}`)
	msg := read(t, conn)
	assert.Equal(t, domain.DefaultSettings(), *msg.Settings)
}

func TestServer_PlaybackCommands(t *testing.T) {
	f := newFixture(t, true)
	conn := f.dial(t)
	read(t, conn)

	send(t, conn, `{"type":"play"}`)
	msg := read(t, conn)
	assert.Equal(t, MessagePlayback, msg.Type)
	assert.Equal(t, domain.StatusPlaying.String(), msg.Status)
	assert.InDelta(t, 1.5, msg.Position, 1e-9)

	send(t, conn, `{"type":"pause"}`)
	assert.Equal(t, domain.StatusPaused.String(), read(t, conn).Status)

	send(t, conn, `{"type":"toggle"}`)
	read(t, conn)
	assert.Equal(t, []string{"play", "pause", "toggle"}, f.playback.Calls())

	f.playback.mu.Lock()
	f.playback.err = domain.ErrNoTrackLoaded
	f.playback.mu.Unlock()
	send(t, conn, `{"type":"play"}`)
	msg = read(t, conn)
	assert.Equal(t, MessageError, msg.Type)
	assert.Contains(t, msg.Error, domain.ErrNoTrackLoaded.Error())
}

func TestServer_ClientDisconnect(t *testing.T) {
	f := newFixture(t, false)
	conn := f.dial(t)
	read(t, conn)
	require.Eventually(t, func() bool { return f.server.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return f.server.Clients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestServer_CloseDisconnectsClients(t *testing.T) {
	t.Cleanup(func() { testutil.VerifyNoLeaks(t, testutil.IgnoreHTTPGoroutines()...) })
	f := newFixture(t, false)
	conn := f.dial(t)
	read(t, conn)

	require.NoError(t, f.server.Close())
	assert.Zero(t, f.server.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	// Events after Close go nowhere.
	f.bus.Publish(domain.NewLoopStateChangedEvent(domain.ModeWaveform, false))
	assert.NoError(t, f.server.Close())
}

func TestServer_ServeListener(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreHTTPGoroutines()...)
	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	defer bus.Close()
	server := NewServer(log, service.NewSettingsService(log, nil, bus), nil, bus)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- server.Serve(l) }()

	url := "ws://" + l.Addr().String() + Path
	var conn *websocket.Conn
	require.Eventually(t, func() bool {
		c, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			return false
		}
		conn = c
		return true
	}, 2*time.Second, 10*time.Millisecond)
	defer conn.Close()
	assert.Equal(t, MessageSettings, read(t, conn).Type)

	require.NoError(t, server.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Close")
	}

	assert.ErrorIs(t, server.Serve(l), http.ErrServerClosed)
}
