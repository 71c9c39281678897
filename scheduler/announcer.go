package scheduler

import (
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ri-erusk/texas-dps-scheduler/models"
)

// announcer logs each candidate slot the first time it is observed, bounded
// by an LRU seen-set so steady-state rounds stay quiet. Logging only; it
// never influences which slot gets booked.
type announcer struct {
	seen *lru.Cache[string, struct{}]
}

func newAnnouncer(size int) (*announcer, error) {
	seen, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, err
	}
	return &announcer{seen: seen}, nil
}

// Announce logs every slot in dates not seen before under its
// (location, slot-start) signature.
func (a *announcer) Announce(loc models.Location, dates []models.AvailabilityDate) {
	for _, d := range dates {
		for _, s := range d.Slots {
			sig := fmt.Sprintf("%d|%s", loc.ID, s.StartAt.Format("2006-01-02T15:04:05"))
			if found, _ := a.seen.ContainsOrAdd(sig, struct{}{}); found {
				continue
			}
			slog.Info("new availability",
				slog.String("location", loc.Name),
				slog.Time("start", s.StartAt),
				slog.Int("slot_id", s.SlotID),
			)
		}
	}
}
