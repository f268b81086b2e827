package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"marketcast/internal/cfg"
	"marketcast/internal/forecast"
	"marketcast/internal/gamma"
	"marketcast/internal/market"
	"marketcast/internal/metrics"
	"marketcast/internal/ml"
	"marketcast/internal/storage"
)

func main() {
	_ = godotenv.Load()

	marketID := flag.String("market", "", "fetch the snapshot by market ID from the Gamma API instead of stdin")
	flag.Parse()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	setupLogger(c.LogLevel)

	m := metrics.New()

	snap, err := readSnapshot(c, m, *marketID)
	if err != nil {
		// No forecast body is possible without a snapshot; emit a minimal
		// error record and signal failure through the exit status.
		emitParseFailure(err)
		os.Exit(1)
	}

	store := openStorage(c)
	if store != nil {
		defer store.Close()
		maintainHistory(store, snap, c.HistoryWindow, m)
	}

	predictor := ml.NewWithMetrics(c.ModelPath, m)
	engine := forecast.NewEngineWithMetrics(predictor, m)

	rec := engine.Forecast(snap)

	enc := json.NewEncoder(os.Stdout)
	if err := enc.Encode(rec); err != nil {
		log.Fatal().Err(err).Msg("failed to write forecast")
	}
}

func setupLogger(level string) {
	// stdout carries the forecast record; all logging goes to stderr.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
}

func readSnapshot(c cfg.Settings, m *metrics.Metrics, marketID string) (*market.Snapshot, error) {
	if marketID != "" {
		client := gamma.NewClient(c.GammaBaseURL, c.RESTTimeout)
		snap, err := client.FetchSnapshot(marketID)
		if err != nil {
			return nil, fmt.Errorf("fetch market %s: %w", marketID, err)
		}
		m.SnapshotsFetchedInc()
		return snap, nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	snap, err := market.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("invalid market snapshot: %w", err)
	}
	return snap, nil
}

func openStorage(c cfg.Settings) *storage.Store {
	if c.DataPath == "" {
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without history persistence")
		return nil
	}
	return store
}

// maintainHistory backfills an empty history from local storage and records
// the current price vector for future calls. Both are best-effort.
func maintainHistory(store *storage.Store, snap *market.Snapshot, window int, m *metrics.Metrics) {
	if snap.ID == "" {
		return
	}

	if len(snap.History) == 0 {
		points, err := store.RecentPrices(snap.ID, window)
		if err != nil {
			log.Warn().Err(err).Str("market", snap.ID).Msg("history lookup failed")
		} else if len(points) > 0 {
			for _, p := range points {
				hp := market.HistoryPoint{Prices: make([]market.Scalar, len(p.Prices))}
				for i, v := range p.Prices {
					hp.Prices[i] = market.Num(v)
				}
				snap.History = append(snap.History, hp)
			}
			m.HistoryBackfillsInc()
			log.Debug().Str("market", snap.ID).Int("points", len(points)).Msg("history backfilled from storage")
		}
	}

	if vals, ok := snap.PriceValues(); ok {
		if err := store.AppendPrices(snap.ID, vals, time.Now()); err != nil {
			log.Warn().Err(err).Str("market", snap.ID).Msg("failed to record price history")
		}
	}
}

// emitParseFailure writes the minimal record used when the input itself
// could not be parsed into a snapshot.
func emitParseFailure(err error) {
	log.Error().Err(err).Msg("no forecast possible")
	rec := forecast.Record{
		Forecast:   []forecast.Entry{},
		Confidence: 0,
		Timestamp:  time.Now().Format(time.RFC3339),
		Error:      err.Error(),
	}
	_ = json.NewEncoder(os.Stdout).Encode(rec)
}
