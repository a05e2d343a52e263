package channels

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/sorcix/irc"
	"golang.org/x/time/rate"

	"github.com/soban-bot/soban/pkg/config"
	"github.com/soban-bot/soban/pkg/logger"
)

// maxLineBytes is what a PRIVMSG may carry after the command, target and the
// prefix the server prepends when relaying it; RFC 1459 caps the whole line
// at 512 bytes.
const maxLineBytes = 400

type IRCChannel struct {
	*BaseChannel
	cfg     config.IRCConfig
	dial    func(ctx context.Context) (io.ReadWriteCloser, error)
	limiter *rate.Limiter

	writeMu sync.Mutex
	conn    *irc.Conn

	mu   sync.Mutex
	nick string
}

func NewIRCChannel(cfg config.IRCConfig, dispatcher Dispatcher) *IRCChannel {
	limit := rate.Inf
	if cfg.MessagesPerSecond > 0 {
		limit = rate.Limit(cfg.MessagesPerSecond)
	}

	c := &IRCChannel{
		BaseChannel: NewBaseChannel("irc", dispatcher),
		cfg:         cfg,
		limiter:     rate.NewLimiter(limit, max(cfg.Burst, 1)),
		nick:        cfg.Nickname,
	}
	c.dial = c.dialServer
	return c
}

func (c *IRCChannel) dialServer(ctx context.Context) (io.ReadWriteCloser, error) {
	d := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: time.Minute}
	if !c.cfg.TLS {
		return d.DialContext(ctx, "tcp", c.cfg.Server)
	}

	host, _, err := net.SplitHostPort(c.cfg.Server)
	if err != nil {
		return nil, err
	}
	td := &tls.Dialer{
		NetDialer: d,
		Config:    &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12},
	}
	return td.DialContext(ctx, "tcp", c.cfg.Server)
}

func (c *IRCChannel) Run(ctx context.Context) error {
	logger.InfoCF("irc", "Connecting to IRC server", map[string]any{
		"server": c.cfg.Server,
		"tls":    c.cfg.TLS,
	})

	rwc, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("irc: connecting to %s: %w", c.cfg.Server, err)
	}
	conn := irc.NewConn(rwc)

	c.writeMu.Lock()
	c.conn = conn
	c.writeMu.Unlock()
	c.mu.Lock()
	c.nick = c.cfg.Nickname
	c.mu.Unlock()

	// In-flight dispatches are cancelled first, then waited for.
	defer c.waitInflight()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	defer c.setRunning(false)

	if err := c.register(); err != nil {
		return fmt.Errorf("irc: registering: %w", err)
	}

	for {
		msg, err := conn.Decode()
		if err != nil {
			if ctx.Err() != nil {
				logger.InfoC("irc", "IRC connection closed")
				return nil
			}
			return fmt.Errorf("irc: reading: %w", err)
		}
		if msg == nil {
			continue
		}
		if err := c.handle(ctx, msg); err != nil {
			return err
		}
	}
}

func (c *IRCChannel) register() error {
	if c.cfg.Password != "" {
		if err := c.write(&irc.Message{Command: irc.PASS, Params: []string{c.cfg.Password}}); err != nil {
			return err
		}
	}
	if err := c.write(&irc.Message{Command: irc.NICK, Params: []string{c.cfg.Nickname}}); err != nil {
		return err
	}
	return c.write(&irc.Message{
		Command:  irc.USER,
		Params:   []string{c.cfg.Nickname, "0", "*"},
		Trailing: c.cfg.Nickname,
	})
}

func (c *IRCChannel) handle(ctx context.Context, msg *irc.Message) error {
	switch msg.Command {
	case irc.PING:
		return c.write(&irc.Message{
			Command:       irc.PONG,
			Params:        msg.Params,
			Trailing:      msg.Trailing,
			EmptyTrailing: msg.EmptyTrailing,
		})

	case irc.RPL_WELCOME:
		logger.InfoCF("irc", "Registered with IRC server", map[string]any{
			"nick":     c.currentNick(),
			"channels": c.cfg.Channels,
		})
		for _, ch := range c.cfg.Channels {
			if err := c.write(&irc.Message{Command: irc.JOIN, Params: []string{ch}}); err != nil {
				return err
			}
		}
		c.setRunning(true)

	case irc.ERR_NICKNAMEINUSE:
		c.mu.Lock()
		c.nick += "_"
		nick := c.nick
		c.mu.Unlock()
		logger.WarnCF("irc", "Nickname in use, retrying", map[string]any{"nick": nick})
		return c.write(&irc.Message{Command: irc.NICK, Params: []string{nick}})

	case irc.PRIVMSG:
		if len(msg.Params) == 0 || msg.Prefix == nil {
			return nil
		}
		sender := msg.Prefix.Name
		if sender == c.currentNick() {
			return nil
		}
		target := msg.Params[0]
		if !isChannelName(target) {
			// Private message: answer the sender, not ourselves.
			target = sender
		}
		c.HandleMessage(ctx, &ircOrigin{ch: c, target: target}, msg.Trailing)

	case irc.ERROR:
		return fmt.Errorf("irc: server closed the link: %s", msg.Trailing)
	}
	return nil
}

func (c *IRCChannel) write(m *irc.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return errors.New("irc: not connected")
	}
	return c.conn.Encode(m)
}

func (c *IRCChannel) currentNick() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nick
}

func isChannelName(target string) bool {
	return strings.HasPrefix(target, "#") || strings.HasPrefix(target, "&")
}

// ircOrigin replies with one PRIVMSG per line, throttled by the channel's
// shared limiter.
type ircOrigin struct {
	ch     *IRCChannel
	target string
}

func (o *ircOrigin) Send(ctx context.Context, text string) error {
	for _, line := range splitLines(text, maxLineBytes-len(o.target)) {
		if err := o.ch.limiter.Wait(ctx); err != nil {
			return err
		}
		err := o.ch.write(&irc.Message{
			Command:  irc.PRIVMSG,
			Params:   []string{o.target},
			Trailing: line,
		})
		if err != nil {
			return fmt.Errorf("irc: sending to %s: %w", o.target, err)
		}
	}
	return nil
}

func (o *ircOrigin) Backend() string { return "irc" }
func (o *ircOrigin) Target() string  { return o.target }
