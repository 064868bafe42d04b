// Package apiv1 is component E: the report pipeline that joins the device
// catalog, the Apple fetch engine and the ingestion service into the single
// operation the fetch-locations command drives.
package apiv1

import (
	"context"
	"time"

	"github.com/SpaceInvaderTech/AppleCollector/pkg/applefetch"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/credentialstore"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/dedupcache"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/deviceclient"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/helpers"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/ingestclient"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/logger"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/model"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/payloadcodec"
)

// chunkSize is how many enriched reports are sent per ingestion POST (spec
// §4.E step 7).
const chunkSize = 100

// chunkPacingDelay is the pause between consecutive ingestion chunk POSTs.
const chunkPacingDelay = 500 * time.Millisecond

// Client wires the device catalog, Apple fetch engine and ingestion service
// into the report pipeline.
type Client struct {
	devices     *deviceclient.Client
	credentials *credentialstore.Client
	ingest      *ingestclient.Client
	dedup       *dedupcache.Cache
	log         *logger.Log

	appleEndpoint string // overridden in tests; empty means the real acsnservice URL
}

// New constructs a Client from already-built service clients.
func New(devices *deviceclient.Client, credentials *credentialstore.Client, ingest *ingestclient.Client, dedup *dedupcache.Cache, log *logger.Log) *Client {
	return &Client{devices: devices, credentials: credentials, ingest: ingest, dedup: dedup, log: log}
}

// FetchOptions parameterizes a single pipeline run.
type FetchOptions struct {
	Page         int
	Limit        int
	MinutesAgo   int64
	SendReports  bool
	TrackerNames map[string]bool // nil or empty means "no filter"
}

// FetchLocations runs the full pipeline (spec §4.E): page the device
// catalog, fetch Apple sightings, decrypt and enrich, then (if requested)
// forward reduced reports to the ingestion endpoint in chunks.
func (c *Client) FetchLocations(ctx context.Context, opts FetchOptions) (*RunStats, error) {
	trackers, err := c.buildTrackerMap(ctx, opts)
	if err != nil {
		return nil, err
	}
	if len(trackers) == 0 {
		return &RunStats{}, nil
	}

	if err := c.fetchAndEnrich(ctx, trackers, opts.MinutesAgo); err != nil {
		return nil, err
	}

	stats := Aggregate(trackers)
	c.log.Info("fetch run complete",
		"with_reports", stats.WithReports(),
		"without_reports", len(stats.NamesWithoutReports),
		"min_timestamp", stats.MinTimestamp,
		"max_timestamp", stats.MaxTimestamp,
	)

	if opts.SendReports {
		c.sendReports(ctx, trackers)
	}

	return stats, nil
}

// FetchForTrackers runs the fetch-and-enrich steps only, for a fixed set of
// tracker names, without ever POSTing to the ingestion endpoint. It is
// grounded on the original's limited, no-send report generation path: a
// caller (e.g. an interactive "show me this tracker's last fix" command)
// that wants enriched Trackers back directly rather than as a side effect.
func (c *Client) FetchForTrackers(ctx context.Context, names []string, opts FetchOptions) ([]*model.Tracker, error) {
	filter := make(map[string]bool, len(names))
	for _, n := range names {
		filter[n] = true
	}
	opts.TrackerNames = filter
	opts.SendReports = false

	trackers, err := c.buildTrackerMap(ctx, opts)
	if err != nil {
		return nil, err
	}
	if len(trackers) == 0 {
		return nil, nil
	}

	if err := c.fetchAndEnrich(ctx, trackers, opts.MinutesAgo); err != nil {
		return nil, err
	}

	out := make([]*model.Tracker, 0, len(trackers))
	for _, t := range trackers {
		out = append(out, t)
	}
	return out, nil
}

// buildTrackerMap pages the device catalog once, applies the optional name
// filter, and derives each tracker's hashed_public_key_b64, keyed by that
// identifier for later lookup against Apple's response (spec §4.E steps
// 1-3).
func (c *Client) buildTrackerMap(ctx context.Context, opts FetchOptions) (map[string]*model.Tracker, error) {
	page, err := c.devices.FetchPage(ctx, opts.Limit, opts.Page)
	if err != nil {
		return nil, err
	}
	if len(page.Devices) == 0 {
		c.log.Info("no devices found for page", "page", opts.Page)
		return nil, nil
	}

	trackers := make(map[string]*model.Tracker, len(page.Devices))
	for _, d := range page.Devices {
		if len(opts.TrackerNames) > 0 && !opts.TrackerNames[d.Name] {
			continue
		}

		var priv [model.PrivateKeyLength]byte
		if len(d.PrivateKey) != model.PrivateKeyLength {
			c.log.Error(helpers.ErrValidationFailure, "device private key has unexpected length", "name", d.Name, "length", len(d.PrivateKey))
			continue
		}
		copy(priv[:], d.PrivateKey)

		tracker, err := payloadcodec.NewTracker(d.ID, d.Name, priv)
		if err != nil {
			c.log.Error(err, "failed to derive tracker identifier", "name", d.Name)
			continue
		}

		if existing, ok := trackers[tracker.HashedPublicKeyB64]; ok {
			c.log.Error(helpers.ErrDuplicateTracker, "two trackers share a private key", "name", d.Name, "other", existing.Name)
			continue
		}
		trackers[tracker.HashedPublicKeyB64] = tracker
	}

	return trackers, nil
}

// fetchAndEnrich invokes the Apple fetch engine for trackers and attaches a
// decoded EnrichedReport to each one it can decrypt (spec §4.E steps 4-5).
func (c *Client) fetchAndEnrich(ctx context.Context, trackers map[string]*model.Tracker, minutesAgo int64) error {
	ids := make([]string, 0, len(trackers))
	for id := range trackers {
		ids = append(ids, id)
	}

	now := time.Now().Unix()
	lookbackSeconds := minutesAgo * 60
	plan := applefetch.Plan(ids, lookbackSeconds, now)

	engine := applefetch.NewEngine(c.credentials)
	engine.SetLogger(c.log.New("applefetch"))
	if c.appleEndpoint != "" {
		engine.SetEndpoint(c.appleEndpoint)
	}
	result, err := engine.Dispatch(ctx, plan)
	if err != nil && result == nil {
		return err
	}
	if err != nil {
		c.log.Error(err, "fetch engine returned partial results")
	}

	enrich(trackers, result.Locations, c.log)
	return nil
}

// sendReports partitions trackers with reports into chunks of chunkSize and
// posts each chunk to the ingestion endpoint, pacing between chunks. A
// failed chunk is logged and skipped; the pipeline continues (spec §4.E
// step 7). Reports already forwarded by a previous run are skipped when the
// dedup cache is enabled; this is an optimization only, since ingestion
// already tolerates duplicates.
func (c *Client) sendReports(ctx context.Context, trackers map[string]*model.Tracker) {
	reports := make([]ingestclient.Report, 0, len(trackers))
	for _, t := range trackers {
		if t.Report == nil {
			continue
		}

		if seen, err := c.dedup.Seen(ctx, t.ID, t.Report.Timestamp); err != nil {
			c.log.Error(err, "dedup cache lookup failed, forwarding anyway", "tracker", t.Name)
		} else if seen {
			continue
		}

		reports = append(reports, ingestclient.Report{
			ID:        t.ID,
			Name:      t.Name,
			Timestamp: t.Report.Timestamp,
			Lat:       t.Report.Lat,
			Lon:       t.Report.Lon,
			Conf:      t.Report.Conf,
		})
	}

	chunks := helpers.Chunks(reports, chunkSize)
	for i, chunk := range chunks {
		if err := c.ingest.Send(ctx, chunk); err != nil {
			c.log.Error(err, "failed to send report chunk", "chunk", i, "size", len(chunk))
			continue
		}
		for _, r := range chunk {
			if err := c.dedup.Mark(ctx, r.ID, r.Timestamp); err != nil {
				c.log.Error(err, "dedup cache mark failed", "tracker", r.Name)
			}
		}
		if i < len(chunks)-1 {
			time.Sleep(chunkPacingDelay)
		}
	}
}
