package beatmap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/soban-bot/soban/pkg/config"
	"github.com/soban-bot/soban/pkg/logger"
)

// Source returns beatmaps by id.
type Source interface {
	Get(ctx context.Context, id uint32) (*Beatmap, error)
}

// Cache keeps .osu files on disk, downloading the ones it does not have yet.
// Concurrent requests for the same missing map share a single download.
type Cache struct {
	dir         string
	downloadURL string
	httpClient  *http.Client
	group       singleflight.Group
}

var _ Source = (*Cache)(nil)

func NewCache(cfg config.BeatmapsConfig) *Cache {
	return &Cache{
		dir:         cfg.CacheDir,
		downloadURL: strings.TrimRight(cfg.DownloadURL, "/"),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Cache) Path(id uint32) string {
	return filepath.Join(c.dir, strconv.FormatUint(uint64(id), 10)+".osu")
}

func (c *Cache) Get(ctx context.Context, id uint32) (*Beatmap, error) {
	data, err := os.ReadFile(c.Path(id))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading cached beatmap %d: %w", id, err)
		}
		if data, err = c.fetch(ctx, id); err != nil {
			return nil, err
		}
	}

	bm, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("beatmap %d: %w", id, err)
	}
	if bm.ID == 0 {
		bm.ID = id
	}
	return bm, nil
}

func (c *Cache) fetch(ctx context.Context, id uint32) ([]byte, error) {
	key := strconv.FormatUint(uint64(id), 10)
	// The download outlives a single caller so others waiting on it are not
	// failed by the first caller's cancellation.
	ch := c.group.DoChan(key, func() (any, error) {
		return c.download(context.WithoutCancel(ctx), id)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) download(ctx context.Context, id uint32) ([]byte, error) {
	url := c.downloadURL + "/" + strconv.FormatUint(uint64(id), 10)
	logger.InfoCF("beatmap", "Downloading beatmap", map[string]any{
		"beatmap_id": id,
		"url":        url,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading beatmap %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading beatmap %d: status %d", id, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("downloading beatmap %d: %w", id, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("downloading beatmap %d: empty response", id)
	}

	if err := c.store(id, data); err != nil {
		// The map is still usable for this request.
		logger.WarnCF("beatmap", "Failed to cache beatmap", map[string]any{
			"beatmap_id": id,
			"error":      err.Error(),
		})
	}
	return data, nil
}

// store writes through a temp file so readers never see a partial map.
func (c *Cache) store(id uint32, data []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.dir, ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.Path(id))
}
