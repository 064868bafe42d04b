package main

import (
	"context"
	"flag"
	"os"

	"github.com/SpaceInvaderTech/AppleCollector/pkg/configuration"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/credentialstore"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/logger"
)

func main() {
	scheduleLocationFetching := flag.Bool("schedule-location-fetching", false, "ask the store to schedule its own background refresh once this blob expires")
	flag.Parse()

	ctx := context.Background()
	log := logger.NewSimple("refresh-credentials")

	cfg, err := configuration.New()
	if err != nil {
		log.Error(err, "failed to load configuration")
		os.Exit(1)
	}

	store, err := credentialstore.New(&credentialstore.Config{
		BaseURL:  cfg.CredentialStore.BaseURL,
		APIKey:   cfg.CredentialStore.APIKey,
		ClientID: cfg.CredentialStore.ClientID,
	})
	if err != nil {
		log.Error(err, "failed to construct credential store client")
		os.Exit(1)
	}

	var minter credentialstore.Minter = credentialstore.UnsupportedMinter{}

	blob, err := minter.Mint(ctx)
	if err != nil {
		log.Error(err, "failed to mint credentials")
		os.Exit(1)
	}

	if err := store.Put(ctx, *blob, *scheduleLocationFetching); err != nil {
		log.Error(err, "failed to store refreshed credentials")
		os.Exit(1)
	}

	log.Info("credentials refreshed successfully")
}
