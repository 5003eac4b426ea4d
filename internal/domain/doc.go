// Package domain models beach conditions and the scoring rules that turn them
// into recommendations.
//
// # Signals
//
// Each beach has three independently updated inputs, each reached through a
// port interface so the backing store can be swapped per environment:
//
//	ObservationSource  latest sea reading (temperature, waves, wind, tide)
//	AlertSource        currently active safety notices
//	EventSource        scheduled events in the beach's region
//
// Observations and alerts come with a Metadata record: source tag, last
// update time, and a reliability tier (0 least reliable, 2 most).
//
// # Safety score
//
// [SafetyPolicy.Score] starts at 100 and subtracts independent penalties:
//
//	waves:        (height − threshold) × 20 above threshold (user max, else 1.2 m)
//	temperature:  20 below the user minimum, or 15 below 20 °C when no minimum is set
//	alerts:       40 if any is high, else 15 if any exist
//	wind:         (speed − 6) × 5 above 6 m/s, capped at 25
//
// The sum is subtracted once and the result floored and clamped at 0.
//
// # Ranking
//
// [RankScore] blends the safety score with an exponential distance decay
// (80 km scale), a fixed event boost and a popularity baseline, capped at 1
// and rounded to three decimals.
//
// # Metadata reconciliation
//
// [Reconcile] merges per-source metadata using worst-case semantics: the
// newest timestamp and the lowest reliability. A recommendation is only as
// trustworthy as its weakest input.
package domain
