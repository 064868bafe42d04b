// Package configuration builds the root configuration from environment
// variables (spec §6); unlike a YAML-file-driven service there is no config
// file to read, so defaults are seeded directly onto the struct before
// envconfig overlays whatever the environment sets.
package configuration

import (
	"github.com/creasty/defaults"
	"github.com/kelseyhightower/envconfig"

	"github.com/SpaceInvaderTech/AppleCollector/pkg/helpers"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/logger"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/model"
)

// New loads Cfg from the process environment.
func New() (*model.Cfg, error) {
	log := logger.NewSimple("configuration")
	log.Info("reading environment variables")

	cfg := &model.Cfg{}

	if err := defaults.Set(cfg); err != nil {
		return nil, err
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}

	if err := helpers.Check(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
