package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_WorstCase(t *testing.T) {
	t1 := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	t2 := t1.Add(30 * time.Minute)
	t3 := t1.Add(-2 * time.Hour)

	records := []Metadata{
		{Source: "mock-marine", UpdatedAt: t1, Reliability: ReliabilityHigh},
		{Source: "mock-safety", UpdatedAt: t2, Reliability: ReliabilityMedium},
		{Source: ScorerSource, UpdatedAt: t3, Reliability: ReliabilityLow},
	}

	got, err := Reconcile(records...)
	require.NoError(t, err)

	want := Metadata{Source: CompositeSource, UpdatedAt: t2, Reliability: ReliabilityLow}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("composite mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcile_OrderDoesNotMatter(t *testing.T) {
	base := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	a := Metadata{Source: "a", UpdatedAt: base, Reliability: ReliabilityMedium}
	b := Metadata{Source: "b", UpdatedAt: base.Add(time.Minute), Reliability: ReliabilityHigh}
	c := Metadata{Source: "c", UpdatedAt: base.Add(-time.Minute), Reliability: ReliabilityLow}

	first, err := Reconcile(a, b, c)
	require.NoError(t, err)
	second, err := Reconcile(c, a, b)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestReconcile_SingleRecord(t *testing.T) {
	ts := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	in := Metadata{Source: "mock-marine", UpdatedAt: ts, Reliability: ReliabilityHigh}

	got, err := Reconcile(in)
	require.NoError(t, err)

	assert.Equal(t, CompositeSource, got.Source)
	assert.Equal(t, ts, got.UpdatedAt)
	assert.Equal(t, ReliabilityHigh, got.Reliability)
}

func TestReconcile_IdenticalRecords(t *testing.T) {
	ts := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	in := Metadata{Source: "x", UpdatedAt: ts, Reliability: ReliabilityMedium}

	got, err := Reconcile(in, in, in)
	require.NoError(t, err)

	assert.Equal(t, Metadata{Source: CompositeSource, UpdatedAt: ts, Reliability: ReliabilityMedium}, got)
}

func TestReconcile_Empty(t *testing.T) {
	_, err := Reconcile()
	require.ErrorIs(t, err, ErrNoMetadata)
}
