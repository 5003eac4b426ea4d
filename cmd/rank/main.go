// Command rank builds one recommendation snapshot from the demo fixtures and
// writes it as JSON. Freezing the clock makes the output reproducible, which
// is how the fixture consumed by cmd/validate is produced.
//
// Usage:
//
//	go run ./cmd/rank \
//	  -at 2025-07-01T09:00:00Z \
//	  -party-types surf \
//	  -out data/snapshot.json
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/beachhub-recommender/internal/adapter/memory"
	"github.com/couchcryptid/beachhub-recommender/internal/domain"
	"github.com/couchcryptid/beachhub-recommender/internal/observability"
	"github.com/couchcryptid/beachhub-recommender/internal/pipeline"
	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
)

type snapshotMeta struct {
	Count       int       `json:"count"`
	GeneratedAt time.Time `json:"generatedAt"`
}

type snapshot struct {
	Data []domain.RecommendationItem `json:"data"`
	Meta snapshotMeta                `json:"meta"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	at := flag.String("at", "", "freeze the clock at this RFC3339 instant (default: now)")
	out := flag.String("out", "", "output path (default: stdout)")
	waveMax := flag.Float64("wave-max", -1, "maximum wave height in m (negative: default)")
	tempMin := flag.Float64("temp-min", -100, "minimum water temperature in °C (below -10: default)")
	distance := flag.Float64("distance-km", -1, "travel distance in km (negative: default)")
	parties := flag.String("party-types", "", "comma-separated party types")
	flag.Parse()

	var clock clockwork.Clock = clockwork.NewRealClock()
	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return fmt.Errorf("parse -at: %w", err)
		}
		clock = clockwork.NewFakeClockAt(t.UTC())
	}
	domain.SetClock(clock)
	defer domain.SetClock(nil)

	prefs := &domain.UserPreferences{}
	if *waveMax >= 0 {
		prefs.MaxWaveHeight = waveMax
	}
	if *tempMin >= -10 {
		prefs.MinTemp = tempMin
	}
	if *distance >= 0 {
		prefs.MaxDistanceKm = distance
	}
	for _, p := range strings.Split(*parties, ",") {
		if p = strings.TrimSpace(p); p != "" {
			prefs.PartyTypes = append(prefs.PartyTypes, p)
		}
	}

	store := memory.NewSeededStore(clock)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	orch := pipeline.NewOrchestrator(store, store, store, logger, observability.NewMetrics())

	ctx := context.Background()
	beaches, err := store.ListBeaches(ctx)
	if err != nil {
		return err
	}
	items, err := orch.BuildRecommendations(ctx, beaches, prefs)
	if err != nil {
		return err
	}

	snap := snapshot{Data: items, Meta: snapshotMeta{Count: len(items), GeneratedAt: clock.Now().UTC()}}
	if snap.Data == nil {
		snap.Data = []domain.RecommendationItem{}
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	log.Printf("ranked %d of %d beaches", len(items), len(beaches))
	return nil
}
