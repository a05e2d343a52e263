package beatmap

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var errNotBeatmap = errors.New("not a beatmap file")

// Beatmap holds the parts of a .osu file the commands display.
type Beatmap struct {
	ID      uint32
	Artist  string
	Title   string
	Version string
	Creator string

	HP float64
	CS float64
	OD float64
	AR float64
}

// Parse reads the [Metadata] and [Difficulty] sections of a .osu file.
// Files older than format v8 carry no ApproachRate; AR then equals OD.
func Parse(r io.Reader) (*Beatmap, error) {
	var (
		bm      Beatmap
		section string
		header  bool
		hasAR   bool
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !header {
			line = strings.TrimPrefix(line, "\ufeff")
			if line == "" {
				continue
			}
			if !strings.HasPrefix(line, "osu file format") {
				return nil, errNotBeatmap
			}
			header = true
			continue
		}

		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = line[1 : len(line)-1]
			if section == "Events" {
				// Nothing after [Difficulty] is needed.
				break
			}
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		switch section {
		case "Metadata":
			switch key {
			case "Artist":
				bm.Artist = value
			case "Title":
				bm.Title = value
			case "Version":
				bm.Version = value
			case "Creator":
				bm.Creator = value
			case "BeatmapID":
				if id, err := strconv.ParseUint(value, 10, 32); err == nil {
					bm.ID = uint32(id)
				}
			}
		case "Difficulty":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				continue
			}
			switch key {
			case "HPDrainRate":
				bm.HP = f
			case "CircleSize":
				bm.CS = f
			case "OverallDifficulty":
				bm.OD = f
			case "ApproachRate":
				bm.AR = f
				hasAR = true
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading beatmap: %w", err)
	}
	if !header {
		return nil, errNotBeatmap
	}
	if !hasAR {
		bm.AR = bm.OD
	}

	return &bm, nil
}
