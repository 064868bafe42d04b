package apiv1

import (
	"encoding/base64"

	"github.com/SpaceInvaderTech/AppleCollector/pkg/helpers"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/logger"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/model"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/payloadcodec"
)

// enrich decrypts each location against its tracker and attaches the
// resulting EnrichedReport (spec §4.E step 5). A location whose id does not
// match any tracker, or that fails to decrypt, is logged and skipped; it
// never aborts the pipeline.
func enrich(trackers map[string]*model.Tracker, locations []model.RawLocation, log *logger.Log) {
	for _, loc := range locations {
		tracker, ok := trackers[loc.ID]
		if !ok {
			log.Info("no tracker matches location id, skipping", "id", loc.ID)
			continue
		}

		payload, err := base64.StdEncoding.DecodeString(loc.Payload)
		if err != nil {
			log.Error(helpers.ErrCryptoFailure, "malformed base64 payload", "tracker", tracker.Name)
			continue
		}

		report, err := payloadcodec.DecodeRecord(tracker.PrivateKey, payload)
		if err != nil {
			log.Error(err, "failed to decrypt payload", "tracker", tracker.Name, "raw_payload", loc.Payload)
			continue
		}

		timestamp, err := payloadcodec.DecodeTimestamp(payload)
		if err != nil {
			log.Error(err, "failed to decode payload timestamp", "tracker", tracker.Name)
			continue
		}

		tracker.Report = &model.EnrichedReport{
			Report:        *report,
			DeviceID:      tracker.ID,
			Timestamp:     timestamp,
			DatePublished: loc.DatePublished,
			Description:   loc.Description,
		}
	}
}
