// Package applefetch is component D: turns a set of tracker identifiers and
// a lookback window into a batch plan of Apple acsnservice requests, and
// dispatches that plan with bounded per-payload retry and credential
// refresh.
package applefetch

// dayWindow is the width, in seconds, of a single time-window batch once the
// lookback exceeds shortWindowThreshold.
const dayWindow = 86_400

// shortWindowThreshold is the lookback, in seconds, under which the whole
// range is issued as a single time window rather than split into day-sized
// chunks.
const shortWindowThreshold = 1_200

// idGroupSize is the maximum number of hashed tracker identifiers per
// Apple request.
const idGroupSize = 10

// PlanEntry is one Apple acsnservice request: an id group crossed with a
// time window.
type PlanEntry struct {
	IDs         []string
	WindowStart int64
	WindowEnd   int64
}

// Plan builds the batch plan for ids over [now-lookbackSeconds, now),
// enumerated id-group-major (spec §4.D.1).
func Plan(ids []string, lookbackSeconds, now int64) []PlanEntry {
	start := now - lookbackSeconds
	windows := timeWindows(start, now)
	groups := idGroups(ids)

	plan := make([]PlanEntry, 0, len(groups)*len(windows))
	for _, g := range groups {
		for _, w := range windows {
			plan = append(plan, PlanEntry{IDs: g, WindowStart: w[0], WindowEnd: w[1]})
		}
	}
	return plan
}

func timeWindows(start, end int64) [][2]int64 {
	if end-start < shortWindowThreshold {
		return [][2]int64{{start, end}}
	}

	var windows [][2]int64
	for cur := start; cur < end; cur += dayWindow {
		winEnd := cur + dayWindow
		if winEnd > end {
			winEnd = end
		}
		windows = append(windows, [2]int64{cur, winEnd})
	}
	return windows
}

func idGroups(ids []string) [][]string {
	if len(ids) == 0 {
		return nil
	}

	var groups [][]string
	for i := 0; i < len(ids); i += idGroupSize {
		end := i + idGroupSize
		if end > len(ids) {
			end = len(ids)
		}
		groups = append(groups, ids[i:end])
	}
	return groups
}

// appleSearchBody is the JSON body of a single Apple acsnservice request.
type appleSearchBody struct {
	Search []appleSearch `json:"search"`
}

type appleSearch struct {
	StartDate int64    `json:"startDate"`
	EndDate   int64    `json:"endDate"`
	IDs       []string `json:"ids"`
}

// body renders e as the JSON request body Apple expects: timestamps in
// milliseconds since Unix epoch (spec §4.D.1 — not seconds, and not the
// in-payload 2001 epoch).
func (e PlanEntry) body() appleSearchBody {
	return appleSearchBody{Search: []appleSearch{{
		StartDate: e.WindowStart * 1000,
		EndDate:   e.WindowEnd * 1000,
		IDs:       e.IDs,
	}}}
}
