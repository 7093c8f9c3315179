package signal

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/anonchat/internal/app/stats"
	"github.com/dkeye/anonchat/internal/core"
)

// RelayStats pushes stats_update to every connection each time changes
// fires. Bursts of changes collapse into one update.
func (ctl *SignalWSController) RelayStats(ctx context.Context, changes <-chan struct{}, started time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			totals := stats.Aggregate(ctl.Orch.RoomList(), started)
			frame, err := core.EncodeEvent(core.EvStatsUpdate, totals)
			if err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("stats encode")
				continue
			}
			sent := 0
			for _, conn := range ctl.Orch.Registry.Conns() {
				if conn.TrySend(frame) == nil {
					sent++
				}
			}
			log.Debug().Str("module", "signal").Int("sent_to", sent).Msg("stats_update")
		}
	}
}
