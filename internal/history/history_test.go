package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Connection {
	t.Helper()
	conn, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestRecordAndGet(t *testing.T) {
	ctx := context.Background()
	runs := NewRuns(openTemp(t))

	started := time.Date(2022, 5, 1, 9, 0, 0, 0, time.UTC)
	run := Run{
		RunID:      "run-1",
		Kind:       "vouchers",
		PeriodFrom: "2022-04-01",
		PeriodTo:   "2022-04-30",
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Total:      3,
		Succeeded:  2,
		Failed:     1,
		Warnings:   4,
		OutputFile: "output/tally_vouchers.xml",
		Status:     StatusOf(1, false),
		Failures: []Failure{
			{Position: 2, VoucherDate: "2022-04-02", VoucherNo: "S-2", Kind: "UnknownAccountType", Message: "leg 1: unknown account type"},
		},
	}
	require.NoError(t, runs.Record(ctx, run))

	got, err := runs.Get(ctx, "run-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, StatusPartial, got.Status)
	assert.Equal(t, "2022-04-01", got.PeriodFrom)
	assert.True(t, got.StartedAt.Equal(started))
	assert.Equal(t, 3*time.Second, got.FinishedAt.Sub(got.StartedAt))
	assert.Equal(t, 4, got.Warnings)
	assert.Equal(t, run.Failures, got.Failures)

	missing, err := runs.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.Error(t, runs.Record(ctx, run), "run ids are unique")
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	runs := NewRuns(openTemp(t))

	base := time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, runs.Record(ctx, Run{
			RunID:      id,
			Kind:       "vouchers",
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i) * time.Hour),
			Status:     StatusCompleted,
		}))
	}

	list, err := runs.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].RunID)
	assert.Equal(t, "b", list[1].RunID)
	assert.Empty(t, list[0].Failures)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusCompleted, StatusOf(0, false))
	assert.Equal(t, StatusPartial, StatusOf(1, false))
	assert.Equal(t, StatusFailed, StatusOf(1, true))
}
