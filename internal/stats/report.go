// Package stats contains statistics calculations and reporting.
package stats

import (
	"context"

	"github.com/verte-zerg/tuimath/internal/model"
	"github.com/verte-zerg/tuimath/internal/store"
)

// Report contains precomputed data for history rendering.
type Report struct {
	Sessions []model.SessionRecord
	History  History
	Heatmap  Heatmap
}

// BuildReport loads stored sessions, applies filters and aggregates them.
func BuildReport(ctx context.Context, st store.Store, cfg model.StatsConfig) (Report, error) {
	sessions, err := st.ReadAllSessions(ctx)
	if err != nil {
		return Report{}, err
	}
	return NewReport(FilterSessions(sessions, cfg)), nil
}

// NewReport aggregates already-loaded sessions.
func NewReport(sessions []model.SessionRecord) Report {
	return Report{
		Sessions: sessions,
		History:  AggregateAcrossSessions(sessions),
		Heatmap:  BuildHeatmap(AllEvents(sessions)),
	}
}

// FilterSessions keeps sessions started on or after cfg.Since, then the last cfg.Last.
func FilterSessions(sessions []model.SessionRecord, cfg model.StatsConfig) []model.SessionRecord {
	out := make([]model.SessionRecord, 0, len(sessions))
	for _, s := range sessions {
		if cfg.Since != nil && s.StartedAt.Before(*cfg.Since) {
			continue
		}
		out = append(out, s)
	}
	if cfg.Last > 0 && len(out) > cfg.Last {
		out = out[len(out)-cfg.Last:]
	}
	return out
}
