package workers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/adapters/storage"
	"github.com/ammerola/stockledger/test/helpers"
)

func TestCleanupProcessor_CleanupImports(t *testing.T) {
	ctx := context.Background()
	objects, err := storage.NewLocalStorage(t.TempDir(), helpers.TestLogger())
	require.NoError(t, err)

	oldJob := NewImportJobID()
	keys := []string{
		ImportObjectKey(oldJob, "po.xlsx"),
		ImportObjectKey(uuid.NewString(), "legacy.json"),
		"snapshots/items.json",
	}
	for _, key := range keys {
		_, err := objects.Upload(ctx, key, strings.NewReader("x"), "")
		require.NoError(t, err)
	}

	p := NewCleanupProcessor(objects, helpers.TestLogger())

	task, err := NewCleanupTask(time.Hour)
	require.NoError(t, err)

	// nothing is old enough yet
	require.NoError(t, p.CleanupImports(ctx, task))
	remaining, err := objects.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, remaining, 3)

	p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	require.NoError(t, p.CleanupImports(ctx, task))

	remaining, err = objects.List(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, keys[1:], remaining)
}

func TestUploadTime(t *testing.T) {
	v7, err := uuid.NewV7()
	require.NoError(t, err)

	tests := []struct {
		name string
		key  string
		ok   bool
	}{
		{name: "time_ordered_job", key: "imports/" + v7.String() + "/po.pdf", ok: true},
		{name: "random_job_id", key: "imports/" + uuid.NewString() + "/po.pdf"},
		{name: "not_a_uuid", key: "imports/job-1/po.pdf"},
		{name: "outside_imports", key: "exports/" + v7.String() + "/po.pdf"},
		{name: "no_file", key: "imports/" + v7.String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at, ok := uploadTime(tt.key)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.WithinDuration(t, time.Now(), at, time.Minute)
			}
		})
	}
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		name    string
		retried int
		want    time.Duration
	}{
		{name: "first_retry", retried: 0, want: time.Second},
		{name: "third_retry", retried: 3, want: 8 * time.Second},
		{name: "capped", retried: 12, want: 10 * time.Minute},
		{name: "large_counts_do_not_overflow", retried: 80, want: 10 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExponentialBackoff(tt.retried, nil, nil))
		})
	}
}

func TestEveryInterval(t *testing.T) {
	assert.Equal(t, "@every 5m0s", EveryInterval(5*time.Minute))
}
