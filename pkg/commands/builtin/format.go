package builtin

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	osuapi "github.com/soban-bot/soban/pkg/osu"
)

var now = time.Now

func formatUser(u *osuapi.User) string {
	stats := u.Statistics
	if stats == nil {
		stats = &osuapi.UserStatistics{}
	}

	return fmt.Sprintf("%s - %spp (#%s) (%s#%s)\nRanked Score: %s",
		u.Username,
		humanize.CommafWithDigits(stats.PP, 2),
		formatRank(stats.GlobalRank),
		u.CountryCode,
		formatRank(stats.CountryRank),
		humanize.Comma(int64(stats.RankedScore)),
	)
}

func formatRank(rank *uint32) string {
	if rank == nil {
		return "-"
	}
	return humanize.Comma(int64(*rank))
}

// formatScore renders one play, e.g.
//
//	https://osu.ppy.sh/b/129891 A +HDHR 95.12% 3m CS5.20 AR10.00 OD10.00 ★8.12 512.34pp - 2 hours ago
func formatScore(s *osuapi.Score, attrs *osuapi.DifficultyAttributes, cs float64, hasCS bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "https://osu.ppy.sh/b/%d %s +%s %.2f%% ", s.Beatmap.ID, s.Rank, s.Mods, s.Accuracy*100)
	if s.Perfect {
		b.WriteString("FC ")
	} else {
		fmt.Fprintf(&b, "%dm ", s.Statistics.CountMiss)
	}

	if hasCS {
		fmt.Fprintf(&b, "CS%.2f ", cs)
	}
	fmt.Fprintf(&b, "AR%.2f OD%.2f ★%.2f", attrs.ApproachRate, attrs.OverallDifficulty, attrs.StarRating)

	if s.PP != nil {
		fmt.Fprintf(&b, " %.2fpp", *s.PP)
	}

	fmt.Fprintf(&b, " - %s", humanize.RelTime(s.CreatedAt, now(), "ago", "from now"))
	return b.String()
}
