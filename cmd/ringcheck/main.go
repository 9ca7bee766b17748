// Command ringcheck exercises an io_uring instance with accept, connect,
// send, recv and close rounds over loopback TCP and prints a report.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	conf, err := loadConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	level, _ := zerolog.ParseLevel(conf.Level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).Level(level)

	m, err := newMetrics(conf)
	fatalIf(err, "creating statsd client for %q", conf.Statsd.Address)
	defer m.close()

	stats, err := run(conf, m)
	fatalIf(err, "running rounds")
	stats.print(os.Stdout)
}

func fatalIf(err error, msgf string, a ...any) {
	if err != nil {
		log.Fatal().Err(err).Msgf(msgf, a...)
	}
}

type metrics struct {
	client *statsd.Client
}

func newMetrics(conf *Config) (*metrics, error) {
	if conf.Statsd.Address == "" {
		return &metrics{}, nil
	}
	client, err := statsd.New(
		conf.Statsd.Address,
		statsd.WithNamespace(conf.Statsd.Prefix),
		statsd.WithTags(conf.Statsd.Tags),
	)
	if err != nil {
		return nil, err
	}
	return &metrics{client: client}, nil
}

func (m *metrics) timing(name string, d time.Duration, tags ...string) {
	if m.client == nil {
		return
	}
	if err := m.client.Timing(name, d, tags, 1); err != nil {
		log.Debug().Err(err).Str("metric", name).Msg("statsd timing failed")
	}
}

func (m *metrics) incr(name string, tags ...string) {
	if m.client == nil {
		return
	}
	if err := m.client.Incr(name, tags, 1); err != nil {
		log.Debug().Err(err).Str("metric", name).Msg("statsd incr failed")
	}
}

func (m *metrics) close() {
	if m.client == nil {
		return
	}
	_ = m.client.Flush()
	_ = m.client.Close()
}
