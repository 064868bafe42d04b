package main

import (
	"context"
	"flag"
	"os"
	"strings"

	apiv1 "github.com/SpaceInvaderTech/AppleCollector/internal/pipeline/apiv1"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/configuration"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/credentialstore"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/dedupcache"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/deviceclient"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/ingestclient"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/logger"
)

func main() {
	trackers := flag.String("trackers", "", "comma-separated tracker names to restrict the run to")
	limit := flag.Int("limit", 10, "device catalog page size")
	page := flag.Int("page", 0, "device catalog page offset")
	minutesAgo := flag.Int("minutes-ago", 15, "lookback window in minutes")
	sendReports := flag.Bool("send-reports", false, "forward enriched reports to the ingestion endpoint")
	flag.Parse()

	ctx := context.Background()
	log, err := logger.New("fetch-locations", "", false)
	if err != nil {
		panic(err)
	}

	cfg, err := configuration.New()
	if err != nil {
		log.Error(err, "failed to load configuration")
		os.Exit(1)
	}
	if cfg.Log.FolderPath != "" || cfg.Log.Production {
		log, err = logger.New("fetch-locations", cfg.Log.FolderPath, cfg.Log.Production)
		if err != nil {
			panic(err)
		}
	}

	devices, err := deviceclient.New(&deviceclient.Config{
		BaseURL:      cfg.DeviceService.BaseURL,
		HaystackPath: cfg.DeviceService.HaystackPath,
		APIKey:       cfg.DeviceService.APIKey,
	})
	if err != nil {
		log.Error(err, "failed to construct device client")
		os.Exit(1)
	}

	creds, err := credentialstore.New(&credentialstore.Config{
		BaseURL:  cfg.CredentialStore.BaseURL,
		APIKey:   cfg.CredentialStore.APIKey,
		ClientID: cfg.CredentialStore.ClientID,
	})
	if err != nil {
		log.Error(err, "failed to construct credential store client")
		os.Exit(1)
	}

	ingest, err := ingestclient.New(&ingestclient.Config{
		BaseURL:      cfg.DeviceService.BaseURL,
		HaystackPath: cfg.DeviceService.HaystackPath,
		APIKey:       cfg.DeviceService.APIKey,
	})
	if err != nil {
		log.Error(err, "failed to construct ingestion client")
		os.Exit(1)
	}

	dedup := dedupcache.New(cfg.DedupCache)

	pipeline := apiv1.New(devices, creds, ingest, dedup, log.New("pipeline"))

	opts := apiv1.FetchOptions{
		Page:        *page,
		Limit:       *limit,
		MinutesAgo:  int64(*minutesAgo),
		SendReports: *sendReports,
	}
	if *trackers != "" {
		opts.TrackerNames = make(map[string]bool)
		for _, name := range strings.Split(*trackers, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				opts.TrackerNames[name] = true
			}
		}
	}

	stats, err := pipeline.FetchLocations(ctx, opts)
	if err != nil {
		log.Error(err, "fetch run failed")
		os.Exit(1)
	}

	log.Info("fetch run finished",
		"with_reports", stats.WithReports(),
		"without_reports", len(stats.NamesWithoutReports),
	)
}
