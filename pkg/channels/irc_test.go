package channels

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sorcix/irc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soban-bot/soban/pkg/commands"
	"github.com/soban-bot/soban/pkg/config"
)

// pongDispatcher answers "!ping" with two lines and records what it saw.
type pongDispatcher struct {
	mu      sync.Mutex
	texts   []string
	origins []commands.Origin
}

func (d *pongDispatcher) Dispatch(ctx context.Context, origin commands.Origin, text string) commands.Result {
	d.mu.Lock()
	d.texts = append(d.texts, text)
	d.origins = append(d.origins, origin)
	d.mu.Unlock()

	if text == "!ping" {
		_ = origin.Send(ctx, "pong!\nsecond line")
		return commands.Result{Outcome: commands.OutcomeHandled, Command: "ping"}
	}
	return commands.Result{Outcome: commands.OutcomeIgnored}
}

func (d *pongDispatcher) seen() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.texts...)
}

type fakeIRCServer struct {
	t     *testing.T
	conn  net.Conn
	lines chan string
}

func newFakeIRCServer(t *testing.T, conn net.Conn) *fakeIRCServer {
	s := &fakeIRCServer{t: t, conn: conn, lines: make(chan string, 64)}
	go func() {
		defer close(s.lines)
		sc := bufio.NewScanner(conn)
		for sc.Scan() {
			s.lines <- sc.Text()
		}
	}()
	return s
}

func (s *fakeIRCServer) send(line string) {
	s.t.Helper()
	_, err := io.WriteString(s.conn, line+"\r\n")
	require.NoError(s.t, err)
}

func (s *fakeIRCServer) expect(want string) {
	s.t.Helper()
	select {
	case got, ok := <-s.lines:
		require.True(s.t, ok, "connection closed while waiting for %q", want)
		assert.Equal(s.t, want, got)
	case <-time.After(2 * time.Second):
		s.t.Fatalf("timed out waiting for %q", want)
	}
}

func startIRC(t *testing.T, cfg config.IRCConfig, d Dispatcher) (*IRCChannel, *fakeIRCServer, func() error) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { server.Close() })

	c := NewIRCChannel(cfg, d)
	c.dial = func(context.Context) (io.ReadWriteCloser, error) { return client, nil }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	stop := func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after cancel")
			return nil
		}
	}
	return c, newFakeIRCServer(t, server), stop
}

func TestIRC_RegistersJoinsAndAnswers(t *testing.T) {
	d := &pongDispatcher{}
	c, srv, stop := startIRC(t, config.IRCConfig{
		Nickname: "soban",
		Password: "hunter2",
		Channels: []string{"#general", "#osu"},
	}, d)

	srv.expect("PASS hunter2")
	srv.expect("NICK soban")
	srv.expect("USER soban 0 * :soban")
	assert.False(t, c.IsRunning())

	srv.send(":irc.test 001 soban :Welcome to the network")
	srv.expect("JOIN #general")
	srv.expect("JOIN #osu")
	assert.Eventually(t, c.IsRunning, time.Second, 10*time.Millisecond)

	srv.send("PING :irc.test")
	srv.expect("PONG :irc.test")

	srv.send(":alice!a@host PRIVMSG #osu :!ping")
	srv.expect("PRIVMSG #osu :pong!")
	srv.expect("PRIVMSG #osu :second line")

	// Private messages are answered to the sender.
	srv.send(":alice!a@host PRIVMSG soban :!ping")
	srv.expect("PRIVMSG alice :pong!")
	srv.expect("PRIVMSG alice :second line")

	require.NoError(t, stop())
	assert.False(t, c.IsRunning())
	assert.Equal(t, []string{"!ping", "!ping"}, d.seen())
}

func TestIRC_IgnoresOwnMessagesAndKeepsReading(t *testing.T) {
	d := &pongDispatcher{}
	_, srv, stop := startIRC(t, config.IRCConfig{Nickname: "soban"}, d)

	srv.expect("NICK soban")
	srv.expect("USER soban 0 * :soban")

	srv.send(":soban!s@host PRIVMSG #osu :!ping")
	srv.send(":bob!b@host PRIVMSG #osu :just chatting")
	srv.send("PING :1")
	srv.expect("PONG :1")

	require.NoError(t, stop())
	assert.Equal(t, []string{"just chatting"}, d.seen())
}

func TestIRC_NicknameInUse(t *testing.T) {
	_, srv, stop := startIRC(t, config.IRCConfig{Nickname: "soban"}, &pongDispatcher{})

	srv.expect("NICK soban")
	srv.expect("USER soban 0 * :soban")
	srv.send(":irc.test 433 * soban :Nickname is already in use")
	srv.expect("NICK soban_")

	require.NoError(t, stop())
}

func TestIRC_ServerErrorEndsRun(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	c := NewIRCChannel(config.IRCConfig{Nickname: "soban"}, &pongDispatcher{})
	c.dial = func(context.Context) (io.ReadWriteCloser, error) { return client, nil }

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	srv := newFakeIRCServer(t, server)
	srv.expect("NICK soban")
	srv.expect("USER soban 0 * :soban")
	srv.send("ERROR :Closing Link: soban (K-lined)")

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "K-lined")
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestIRCOrigin_SplitsLongReplies(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	defer client.Close()

	c := NewIRCChannel(config.IRCConfig{Nickname: "soban"}, &pongDispatcher{})
	c.conn = irc.NewConn(client)
	srv := newFakeIRCServer(t, server)

	long := strings.Repeat("word ", 200)
	origin := &ircOrigin{ch: c, target: "#osu"}
	assert.Equal(t, "irc", origin.Backend())
	assert.Equal(t, "#osu", origin.Target())

	require.NoError(t, origin.Send(context.Background(), long))

	var payloads []string
	for done := false; !done; {
		select {
		case line := <-srv.lines:
			require.True(t, strings.HasPrefix(line, "PRIVMSG #osu :"), line)
			payload := strings.TrimPrefix(line, "PRIVMSG #osu :")
			assert.LessOrEqual(t, len(payload), maxLineBytes-len("#osu"))
			payloads = append(payloads, payload)
		case <-time.After(200 * time.Millisecond):
			done = true
		}
	}
	assert.Greater(t, len(payloads), 1)
	assert.Equal(t, strings.TrimSpace(long), strings.Join(payloads, " "))
}
