package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/brickingsoft/uring"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Entries   uint32 `yaml:"entries"`
	CQEntries uint32 `yaml:"cq-entries"`
	Rounds    int    `yaml:"rounds"`
	Payload   int    `yaml:"payload"`
	Listen    string `yaml:"listen"`
	Level     string `yaml:"level"`
	Statsd    struct {
		Address string   `yaml:"address"`
		Prefix  string   `yaml:"prefix"`
		Tags    []string `yaml:"tags"`
	} `yaml:"statsd"`
}

func defaultConfig() Config {
	conf := Config{
		Entries: 8,
		Rounds:  100,
		Payload: 64,
		Listen:  "127.0.0.1:0",
		Level:   "info",
	}
	conf.Statsd.Prefix = "ringcheck."
	return conf
}

func parseConfig(b []byte) (*Config, error) {
	conf := defaultConfig()
	if err := yaml.Unmarshal(b, &conf); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return &conf, nil
}

func loadConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	fConfig := fs.String("config", "", "path to config YAML file")
	fEntries := fs.Uint("n", 0, "submission queue entries")
	fCQEntries := fs.Uint("c", 0, "completion queue entries")
	fRounds := fs.Int("r", 0, "rounds")
	fPayload := fs.Int("p", 0, "payload bytes per round")
	fListen := fs.String("l", "", "listen address")
	fLevel := fs.String("level", "", "log level")
	fStatsd := fs.String("statsd", "", "statsd address")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var conf *Config
	if *fConfig != "" {
		b, err := os.ReadFile(*fConfig)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if conf, err = parseConfig(b); err != nil {
			return nil, err
		}
	} else {
		d := defaultConfig()
		conf = &d
	}

	// CLI overrides.
	if *fEntries != 0 {
		conf.Entries = uint32(*fEntries)
	}
	if *fCQEntries != 0 {
		conf.CQEntries = uint32(*fCQEntries)
	}
	if *fRounds != 0 {
		conf.Rounds = *fRounds
	}
	if *fPayload != 0 {
		conf.Payload = *fPayload
	}
	if *fListen != "" {
		conf.Listen = *fListen
	}
	if *fLevel != "" {
		conf.Level = *fLevel
	}
	if *fStatsd != "" {
		conf.Statsd.Address = *fStatsd
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (conf *Config) validate() error {
	if conf.Entries == 0 || conf.Entries > uring.MaxEntries {
		return fmt.Errorf("entries must be in [1, %d]", uring.MaxEntries)
	}
	if conf.CQEntries != 0 && conf.CQEntries < conf.Entries {
		return errors.New("cq-entries must not be less than entries")
	}
	if conf.Rounds <= 0 {
		return errors.New("rounds must be positive")
	}
	if conf.Payload <= 0 {
		return errors.New("payload must be positive")
	}
	if conf.Listen == "" {
		return errors.New("listen must be set (or use -l)")
	}
	if _, err := zerolog.ParseLevel(conf.Level); err != nil {
		return fmt.Errorf("level: %w", err)
	}
	return nil
}
