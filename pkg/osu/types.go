package osu

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// UserID is either a numeric osu! id or a username.
type UserID struct {
	ID   uint32
	Name string
}

func (u UserID) IsName() bool {
	return u.Name != ""
}

func (u UserID) String() string {
	if u.IsName() {
		return u.Name
	}
	return strconv.FormatUint(uint64(u.ID), 10)
}

// ParseUserID interprets command arguments as a user. A numeric first word is
// an id; anything else makes the whole input a username, since names may
// contain spaces. Empty input yields false.
func ParseUserID(input string) (UserID, bool) {
	if input == "" {
		return UserID{}, false
	}
	if fields := strings.Fields(input); len(fields) > 0 {
		if id, err := strconv.ParseUint(fields[0], 10, 32); err == nil {
			return UserID{ID: uint32(id)}, true
		}
	}
	return UserID{Name: input}, true
}

type User struct {
	ID          uint32          `json:"id"`
	Username    string          `json:"username"`
	CountryCode string          `json:"country_code"`
	Statistics  *UserStatistics `json:"statistics"`
}

type UserStatistics struct {
	PP          float64 `json:"pp"`
	GlobalRank  *uint32 `json:"global_rank"`
	CountryRank *uint32 `json:"country_rank"`
	RankedScore uint64  `json:"ranked_score"`
	PlayCount   uint32  `json:"play_count"`
}

// Mods are acronyms such as "HD" or "DT" in the order the API returns them.
type Mods []string

func (m Mods) Has(acronym string) bool {
	return slices.Contains(m, acronym)
}

func (m Mods) String() string {
	if len(m) == 0 {
		return "NM"
	}
	return strings.Join(m, "")
}

type Score struct {
	ID         uint64          `json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	Rank       string          `json:"rank"`
	Mods       Mods            `json:"mods"`
	Perfect    bool            `json:"perfect"`
	Passed     bool            `json:"passed"`
	Accuracy   float64         `json:"accuracy"`
	MaxCombo   uint32          `json:"max_combo"`
	PP         *float64        `json:"pp"`
	Statistics ScoreStatistics `json:"statistics"`
	Beatmap    ScoreBeatmap    `json:"beatmap"`
}

type ScoreStatistics struct {
	Count300  uint32 `json:"count_300"`
	Count100  uint32 `json:"count_100"`
	Count50   uint32 `json:"count_50"`
	CountMiss uint32 `json:"count_miss"`
}

type ScoreBeatmap struct {
	ID      uint32 `json:"id"`
	Version string `json:"version"`
}

// RecentOptions selects one page of a user's recent plays. Offset is
// zero-based.
type RecentOptions struct {
	IncludeFails bool
	Offset       uint32
	Limit        uint32
}

// DifficultyAttributes are the mod-adjusted values for a beatmap.
type DifficultyAttributes struct {
	StarRating        float64 `json:"star_rating"`
	MaxCombo          uint32  `json:"max_combo"`
	ApproachRate      float64 `json:"approach_rate"`
	OverallDifficulty float64 `json:"overall_difficulty"`
}
