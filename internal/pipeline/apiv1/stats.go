package apiv1

import "github.com/SpaceInvaderTech/AppleCollector/pkg/model"

// RunStats is the per-run aggregate logged at the end of a fetch (spec
// §4.E step 6, supplemented per the original's inline device_service
// logging).
type RunStats struct {
	NamesWithReports    []string
	NamesWithoutReports []string
	MinTimestamp        int64
	MaxTimestamp        int64
}

// WithReports is the count of trackers with reports.
func (s *RunStats) WithReports() int {
	return len(s.NamesWithReports)
}

// Aggregate summarizes trackers into a RunStats.
func Aggregate(trackers map[string]*model.Tracker) *RunStats {
	stats := &RunStats{}

	first := true
	for _, t := range trackers {
		if t.Report == nil {
			stats.NamesWithoutReports = append(stats.NamesWithoutReports, t.Name)
			continue
		}

		stats.NamesWithReports = append(stats.NamesWithReports, t.Name)
		if first || t.Report.Timestamp < stats.MinTimestamp {
			stats.MinTimestamp = t.Report.Timestamp
		}
		if first || t.Report.Timestamp > stats.MaxTimestamp {
			stats.MaxTimestamp = t.Report.Timestamp
		}
		first = false
	}

	return stats
}
