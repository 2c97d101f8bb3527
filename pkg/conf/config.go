// Copyright 2025 European Digital Reading Lab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// The conf package manages the tap station configuration.
package conf

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Tap Station configuration
type Config struct {
	LogLevel      string `yaml:"log_level" envconfig:"log_level"` // "debug", "info", "warn", "error"
	PublicBaseUrl string `yaml:"public_base_url" envconfig:"public_base_url"`
	Port          int    `yaml:"port" envconfig:"port"`
	Dsn           string `yaml:"dsn" envconfig:"dsn"`
	DeviceID      string `yaml:"device_id" envconfig:"device_id"`
	Stage         string `yaml:"stage" envconfig:"stage"`
	SessionID     string `yaml:"session_id" envconfig:"session_id"`
	JWT           `yaml:"jwt"`
	Status        `yaml:"status"`
	Queue         `yaml:"queue"`
}

type JWT struct {
	SecretKey string            `yaml:"secret_key" envconfig:"jwt_secret_key"`
	Admin     map[string]string `yaml:"admin" envconfig:"jwt_admin"`
}

type Status struct {
	// CheckLink is a URI template expanded with {token_id}; the resulting
	// URL is returned by the status API and written onto cards.
	CheckLink string `yaml:"check_link" envconfig:"check_link"`
}

// Queue groups the tuning values of the queue engine.
type Queue struct {
	AvgWindow       int `yaml:"avg_window"`       // completed journeys averaged for the dashboard
	EstimateWindow  int `yaml:"estimate_window"`  // completed journeys averaged for wait estimation
	PerHeadMinutes  int `yaml:"per_head_minutes"` // throughput assumption per person in queue
	DefaultEstimate int `yaml:"default_estimate"` // estimate returned before any journey completes
	MaxPerHour      int `yaml:"max_per_hour"`     // rated throughput of the checkpoint
	ModerateQueue   int `yaml:"moderate_queue"`
	WarningQueue    int `yaml:"warning_queue"`
	CriticalQueue   int `yaml:"critical_queue"`
	ModerateWait    int `yaml:"moderate_wait"`
	WarningWait     int `yaml:"warning_wait"`
	CriticalWait    int `yaml:"critical_wait"`
}

func Init(configFile string) (*Config, error) {

	var c Config

	if configFile != "" {
		f, _ := filepath.Abs(configFile)
		yamlData, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		err = yaml.Unmarshal(yamlData, &c)
		if err != nil {
			return nil, err
		}

	} else {
		return nil, errors.New("failed to find the configuration file")
	}

	// environment variables override the config file
	err := envconfig.Process("tapstation", &c)
	if err != nil {
		return nil, err
	}

	c.setDefaults()

	return &c, nil
}

func (c *Config) setDefaults() {
	if c.Port == 0 {
		c.Port = 8081
	}
	if c.SessionID == "" {
		c.SessionID = "UNKNOWN"
	}
	q := &c.Queue
	if q.AvgWindow == 0 {
		q.AvgWindow = 20
	}
	if q.EstimateWindow == 0 {
		q.EstimateWindow = 10
	}
	if q.PerHeadMinutes == 0 {
		q.PerHeadMinutes = 2
	}
	if q.DefaultEstimate == 0 {
		q.DefaultEstimate = 20
	}
	if q.MaxPerHour == 0 {
		q.MaxPerHour = 12
	}
	if q.ModerateQueue == 0 {
		q.ModerateQueue = 5
	}
	if q.WarningQueue == 0 {
		q.WarningQueue = 10
	}
	if q.CriticalQueue == 0 {
		q.CriticalQueue = 20
	}
	if q.ModerateWait == 0 {
		q.ModerateWait = 30
	}
	if q.WarningWait == 0 {
		q.WarningWait = 45
	}
	if q.CriticalWait == 0 {
		q.CriticalWait = 90
	}
}
