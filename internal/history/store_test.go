package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harrison/nextaudit/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleResult(start time.Time) *models.ScanResult {
	return &models.ScanResult{
		RunID:     uuid.New().String(),
		Root:      "/project",
		StartedAt: start,
		Duration:  1500 * time.Millisecond,
		Issues: []models.Issue{
			{ID: "a11y::viewport_missing", Severity: models.SeverityWarning, Message: "/project/index.html: missing <meta name=\"viewport\">"},
			{ID: "sec::dangerous_html", Severity: models.SeverityHigh, Message: "/project/App.jsx: usage of dangerouslySetInnerHTML (possible XSS)"},
			{ID: "a11y::img_missing_alt", Severity: models.SeverityWarning, Message: "/project/App.jsx: <img> tag without alt attribute"},
		},
		Stats: models.ScanStats{
			FilesFound:     10,
			FilesEvaluated: 8,
			FilesSkipped:   map[models.SkipReason]int{models.SkipBinary: 1, models.SkipOversized: 1},
			WalkErrors:     3,
		},
	}
}

func TestNewStoreAppliesMigrations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	version, err := store.GetLatestVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), version)

	versions, err := store.GetAppliedVersions(ctx)
	require.NoError(t, err)
	assert.Len(t, versions, len(migrations))

	// Re-applying is a no-op
	require.NoError(t, store.ApplyMigrations(ctx))
	version, err = store.GetLatestVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), version)
}

func TestRunsSchemaHasCounters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rows, err := store.db.QueryContext(ctx, "SELECT name FROM pragma_table_info('runs')")
	require.NoError(t, err)
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		columns = append(columns, name)
	}
	require.NoError(t, rows.Err())

	assert.Contains(t, columns, "files_skipped")
	assert.Contains(t, columns, "walk_errors")
}

func TestRecordAndListRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	older := sampleResult(base)
	newer := sampleResult(base.Add(time.Hour))
	newer.Issues = newer.Issues[:1]

	require.NoError(t, store.RecordRun(ctx, older))
	require.NoError(t, store.RecordRun(ctx, newer))

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, newer.RunID, runs[0].ID)
	assert.Equal(t, older.RunID, runs[1].ID)

	run := runs[1]
	assert.Equal(t, "/project", run.Root)
	assert.True(t, base.Equal(run.StartedAt), "started_at %v", run.StartedAt)
	assert.Equal(t, 1500*time.Millisecond, run.Duration)
	assert.Equal(t, 10, run.FilesFound)
	assert.Equal(t, 8, run.FilesEvaluated)
	assert.Equal(t, 2, run.FilesSkipped)
	assert.Equal(t, 3, run.WalkErrors)
	assert.Equal(t, 3, run.IssueCount)
	assert.Equal(t, 1, run.HighCount)
	assert.Equal(t, 2, run.WarningCount)
	assert.Equal(t, 0, run.InfoCount)

	limited, err := store.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, newer.RunID, limited[0].ID)
}

func TestRunIssuesPreservesOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	result := sampleResult(time.Now())
	require.NoError(t, store.RecordRun(ctx, result))

	issues, err := store.RunIssues(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, result.Issues, issues)

	byPrefix, err := store.RunIssues(ctx, result.RunID[:8])
	require.NoError(t, err)
	assert.Equal(t, result.Issues, byPrefix)
}

func TestRunIssuesUnknownRun(t *testing.T) {
	store := newTestStore(t)

	_, err := store.RunIssues(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = store.RunIssues(context.Background(), "")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRecordRunAssignsID(t *testing.T) {
	store := newTestStore(t)
	result := sampleResult(time.Now())
	result.RunID = ""
	result.Issues = nil

	require.NoError(t, store.RecordRun(context.Background(), result))
	_, err := uuid.Parse(result.RunID)
	assert.NoError(t, err)

	issues, err := store.RunIssues(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestRecordRunDuplicateID(t *testing.T) {
	store := newTestStore(t)
	result := sampleResult(time.Now())

	require.NoError(t, store.RecordRun(context.Background(), result))
	assert.Error(t, store.RecordRun(context.Background(), result))

	issues, err := store.RunIssues(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Len(t, issues, 3)
}

func TestFileStorePersists(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "history.db")
	ctx := context.Background()

	store, err := NewStore(dbPath)
	require.NoError(t, err)
	result := sampleResult(time.Now())
	require.NoError(t, store.RecordRun(ctx, result))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	runs, err := reopened.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, result.RunID, runs[0].ID)
}
