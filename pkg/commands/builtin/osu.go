package builtin

import (
	"context"
	"errors"
	"fmt"

	"github.com/soban-bot/soban/pkg/commands"
	"github.com/soban-bot/soban/pkg/logger"
	osuapi "github.com/soban-bot/soban/pkg/osu"
)

func init() {
	commands.RegisterFunc(osu)
	commands.RegisterFunc(recent, "rs")
	commands.RegisterFunc(recentpass, "rp")
}

func osu(ctx context.Context, svc *commands.Services, origin commands.Origin, args commands.Args) error {
	user, ok := osuapi.ParseUserID(args.Rest)
	if !ok {
		return origin.Send(ctx, "missing username")
	}

	u, err := svc.Osu.User(ctx, user)
	if err != nil {
		return replyAPIError(ctx, origin, err)
	}
	return origin.Send(ctx, formatUser(u))
}

// recent shows the n-th latest play, failed ones included.
func recent(ctx context.Context, svc *commands.Services, origin commands.Origin, args commands.Args) error {
	return showRecent(ctx, svc, origin, args, true)
}

// recentpass is recent restricted to passed plays.
func recentpass(ctx context.Context, svc *commands.Services, origin commands.Origin, args commands.Args) error {
	return showRecent(ctx, svc, origin, args, false)
}

func showRecent(ctx context.Context, svc *commands.Services, origin commands.Origin, args commands.Args, includeFails bool) error {
	user, ok := osuapi.ParseUserID(args.Rest)
	if !ok {
		return origin.Send(ctx, "missing username")
	}

	// The suffix is 1-based; !rs and !rs1 both mean the latest play.
	offset := args.IndexOr(1)
	if offset > 0 {
		offset--
	}

	scores, err := svc.Osu.RecentScores(ctx, user, osuapi.RecentOptions{
		IncludeFails: includeFails,
		Offset:       offset,
		Limit:        1,
	})
	if err != nil {
		return replyAPIError(ctx, origin, err)
	}
	if len(scores) == 0 {
		return origin.Send(ctx, "no recent scores found")
	}

	score := &scores[0]
	attrs, err := svc.Osu.BeatmapAttributes(ctx, score.Beatmap.ID, score.Mods)
	if err != nil {
		return replyAPIError(ctx, origin, err)
	}

	cs, hasCS := circleSize(ctx, svc, score)
	return origin.Send(ctx, formatScore(score, attrs, cs, hasCS))
}

// circleSize reads CS from the cached map file, adjusted for HR and EZ. The
// reply leaves CS out rather than failing when the map cannot be fetched.
func circleSize(ctx context.Context, svc *commands.Services, score *osuapi.Score) (float64, bool) {
	if svc.Beatmaps == nil {
		return 0, false
	}
	bm, err := svc.Beatmaps.Get(ctx, score.Beatmap.ID)
	if err != nil {
		logger.WarnCF("commands", "Beatmap unavailable", map[string]any{
			"beatmap_id": score.Beatmap.ID,
			"error":      err.Error(),
		})
		return 0, false
	}
	return adjustCS(bm.CS, score.Mods), true
}

func adjustCS(cs float64, mods osuapi.Mods) float64 {
	switch {
	case mods.Has("HR"):
		return min(cs*1.3, 10)
	case mods.Has("EZ"):
		return cs * 0.5
	default:
		return cs
	}
}

// replyAPIError tells the user what went wrong. Only unexpected failures are
// returned, so the dispatcher logs them.
func replyAPIError(ctx context.Context, origin commands.Origin, err error) error {
	if errors.Is(err, osuapi.ErrNotFound) {
		return origin.Send(ctx, "couldn't find user")
	}
	sendErr := origin.Send(ctx, "couldn't reach osu!api")
	return errors.Join(fmt.Errorf("osu!api: %w", err), sendErr)
}
