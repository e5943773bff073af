package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planweave/planweave/models"
)

func sampleRecords() []*models.TaskRecord {
	parent := "root"
	done := time.Now()
	nt := models.NodeTypePlan
	return []*models.TaskRecord{
		{
			TaskID: "root", Goal: "compile briefing", TaskType: models.TaskTypePlan,
			NodeType: &nt, Status: models.StatusDone,
			ChildTaskIDs: []string{"root.1"}, Layer: 0,
			OutputContent: "the plan", CreatedAt: done, UpdatedAt: done, CompletedAt: &done,
		},
		{
			TaskID: "root.1", Goal: "find capital", TaskType: models.TaskTypeWrite,
			Status: models.StatusDone, ParentTaskID: &parent, Layer: 1,
			OutputContent: map[string]string{"capital": "Paris"},
			AuxData:       map[string]any{"depends_on_indices": []int{}},
		},
		{
			TaskID: "root.2", Goal: "failed branch", TaskType: models.TaskTypeWrite,
			Status: models.StatusFailed, ParentTaskID: &parent, Layer: 1,
			ErrorMessage: "agent timeout",
		},
	}
}

func TestArchiveRunRoundTrip(t *testing.T) {
	arch, err := NewSQLiteArchive(":memory:")
	require.NoError(t, err)
	defer func() { _ = arch.Close() }()

	runID, err := arch.ArchiveRun("compile briefing", sampleRecords())
	require.NoError(t, err)
	assert.Len(t, runID, len("run-")+36) // full UUID, no truncation

	runs, err := arch.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].RunID)
	assert.Equal(t, "compile briefing", runs[0].ProjectGoal)
	assert.Equal(t, 3, runs[0].Records)

	statuses, err := arch.RecordStatuses(runID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, statuses["root"])
	assert.Equal(t, models.StatusDone, statuses["root.1"])
	assert.Equal(t, models.StatusFailed, statuses["root.2"])
}

func TestArchiveMultipleRunsAreIsolated(t *testing.T) {
	arch, err := NewSQLiteArchive(":memory:")
	require.NoError(t, err)
	defer func() { _ = arch.Close() }()

	first, err := arch.ArchiveRun("first run", sampleRecords()[:1])
	require.NoError(t, err)
	second, err := arch.ArchiveRun("second run", sampleRecords())
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	statuses, err := arch.RecordStatuses(first)
	require.NoError(t, err)
	assert.Len(t, statuses, 1)
}

func TestArchiveRejectsInvalidRecord(t *testing.T) {
	arch, err := NewSQLiteArchive(":memory:")
	require.NoError(t, err)
	defer func() { _ = arch.Close() }()

	records := sampleRecords()
	records[1].Status = ""
	_, err = arch.ArchiveRun("bad run", records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root.1")

	// Nothing from the rejected run may be visible.
	runs, err := arch.ListRuns()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestArchiveOnDisk(t *testing.T) {
	dir := t.TempDir()
	arch, err := NewSQLiteArchive(dir)
	require.NoError(t, err)

	_, err = arch.ArchiveRun("disk run", sampleRecords())
	require.NoError(t, err)
	require.NoError(t, arch.Close())

	// Reopen and verify persistence.
	arch2, err := NewSQLiteArchive(dir)
	require.NoError(t, err)
	defer func() { _ = arch2.Close() }()
	runs, err := arch2.ListRuns()
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
