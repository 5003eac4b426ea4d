// Command validate checks a recommendation snapshot file, as written by
// cmd/rank or captured from GET /recommendations, against the invariants of
// the scoring engine.
//
// Usage:
//
//	go run ./cmd/validate -snapshot data/snapshot.json
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/couchcryptid/beachhub-recommender/internal/domain"
	"github.com/goccy/go-json"
)

type snapshot struct {
	Data []domain.RecommendationItem `json:"data"`
	Meta struct {
		Count       int       `json:"count"`
		GeneratedAt time.Time `json:"generatedAt"`
	} `json:"meta"`
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

var reasonPattern = regexp.MustCompile(`^safety score (\d{1,3}), events (present|absent)$`)

func main() {
	path := flag.String("snapshot", "", "path to a recommendation snapshot JSON file")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}
	os.Exit(run(*path))
}

func run(path string) int {
	fmt.Println("=== Recommendation Snapshot Validation ===")
	fmt.Println()

	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read snapshot: %v\n", err)
		return 1
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse snapshot: %v\n", err)
		return 1
	}

	phases := validate(snap)

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-32s %s\n", p.name, status)
	}
	fmt.Printf("\nItems: %d\n", len(snap.Data))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validate(snap snapshot) []*phase {
	return []*phase{
		validateEnvelope(snap),
		validateScores(snap.Data),
		validateReasons(snap.Data),
		validateMetadata(snap.Data),
	}
}

func validateEnvelope(snap snapshot) *phase {
	p := &phase{name: "Envelope"}
	if snap.Meta.Count != len(snap.Data) {
		p.errorf("meta.count=%d but %d items", snap.Meta.Count, len(snap.Data))
	}
	if snap.Meta.GeneratedAt.IsZero() {
		p.errorf("meta.generatedAt missing")
	}
	seen := make(map[string]bool, len(snap.Data))
	for i, item := range snap.Data {
		if item.Beach.ID == "" {
			p.errorf("item %d: empty beach id", i)
			continue
		}
		if seen[item.Beach.ID] {
			p.errorf("item %d: duplicate beach %q", i, item.Beach.ID)
		}
		seen[item.Beach.ID] = true
	}
	return p
}

func validateScores(items []domain.RecommendationItem) *phase {
	p := &phase{name: "Score bounds and precision"}
	for _, item := range items {
		if item.Score < 0 || item.Score > 1 {
			p.errorf("%s: score %v outside [0,1]", item.Beach.ID, item.Score)
		}
		if scaled := item.Score * 1000; math.Abs(scaled-math.Round(scaled)) > 1e-6 {
			p.errorf("%s: score %v has more than 3 decimals", item.Beach.ID, item.Score)
		}
		if item.Safety < 0 || item.Safety > 100 {
			p.errorf("%s: safety score %d outside [0,100]", item.Beach.ID, item.Safety)
		}
	}
	return p
}

func validateReasons(items []domain.RecommendationItem) *phase {
	p := &phase{name: "Reason encoding"}
	for _, item := range items {
		m := reasonPattern.FindStringSubmatch(item.Reason)
		if m == nil {
			p.errorf("%s: malformed reason %q", item.Beach.ID, item.Reason)
			continue
		}
		safety, _ := strconv.Atoi(m[1])
		if safety > 100 || safety != int(item.Safety) {
			p.errorf("%s: reason safety %d disagrees with safetyScore %d", item.Beach.ID, safety, item.Safety)
		}
		if (m[2] == "present") != item.HasEvents {
			p.errorf("%s: reason says events %s but hasEvents=%t", item.Beach.ID, m[2], item.HasEvents)
		}
	}
	return p
}

func validateMetadata(items []domain.RecommendationItem) *phase {
	p := &phase{name: "Reconciled metadata"}
	for _, item := range items {
		if item.Meta.Source != domain.CompositeSource {
			p.errorf("%s: meta.source %q, want %q", item.Beach.ID, item.Meta.Source, domain.CompositeSource)
		}
		if err := item.Meta.Validate(); err != nil {
			p.errorf("%s: %v", item.Beach.ID, err)
		}
		if item.Meta.UpdatedAt.IsZero() {
			p.errorf("%s: meta.updatedAt missing", item.Beach.ID)
		}
	}
	return p
}
