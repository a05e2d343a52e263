package channels

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/soban-bot/soban/pkg/config"
	"github.com/soban-bot/soban/pkg/logger"
)

type Manager struct {
	channels map[string]Channel
	mu       sync.RWMutex
}

// NewManager creates every backend enabled in cfg. Incoming messages from
// all of them go to dispatcher.
func NewManager(cfg *config.Config, dispatcher Dispatcher) (*Manager, error) {
	m := &Manager{channels: make(map[string]Channel)}

	logger.InfoC("channels", "Initializing channel manager")

	if cfg.IRC.Enabled {
		m.channels["irc"] = NewIRCChannel(cfg.IRC, dispatcher)
	}

	if cfg.Matrix.Enabled {
		ch, err := NewMatrixChannel(cfg.Matrix, dispatcher)
		if err != nil {
			return nil, err
		}
		m.channels["matrix"] = ch
	}

	logger.InfoCF("channels", "Channel initialization completed", map[string]any{
		"enabled_channels": m.GetEnabledChannels(),
	})
	return m, nil
}

func (m *Manager) RegisterChannel(name string, channel Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[name] = channel
}

// Run runs every channel concurrently until ctx is cancelled. If one channel
// fails the others are stopped and its error is returned.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.RLock()
	channels := make(map[string]Channel, len(m.channels))
	for name, ch := range m.channels {
		channels[name] = ch
	}
	m.mu.RUnlock()

	if len(channels) == 0 {
		return errors.New("no channels enabled")
	}

	g, ctx := errgroup.WithContext(ctx)
	for name, ch := range channels {
		logger.InfoCF("channels", "Starting channel", map[string]any{"channel": name})
		g.Go(func() error {
			if err := ch.Run(ctx); err != nil {
				logger.ErrorCF("channels", "Channel stopped with error", map[string]any{
					"channel": name,
					"error":   err.Error(),
				})
				return fmt.Errorf("%s: %w", name, err)
			}
			logger.InfoCF("channels", "Channel stopped", map[string]any{"channel": name})
			return nil
		})
	}
	return g.Wait()
}

func (m *Manager) GetChannel(name string) (Channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	channel, ok := m.channels[name]
	return channel, ok
}

func (m *Manager) GetStatus() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := make(map[string]any)
	for name, channel := range m.channels {
		status[name] = map[string]any{
			"enabled": true,
			"running": channel.IsRunning(),
		}
	}
	return status
}

func (m *Manager) GetEnabledChannels() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
