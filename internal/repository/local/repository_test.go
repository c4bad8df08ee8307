package local

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/milktrack/internal/domain/models"
)

func newTestRepository(t *testing.T) (*Repository, *time.Time) {
	t.Helper()
	clock := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	repo := NewRepository(filepath.Join(t.TempDir(), "data", "milktrack.json"), nil)
	repo.now = func() time.Time { return clock }
	return repo, &clock
}

func input(farmer string, qty float64) models.CollectionInput {
	return models.CollectionInput{
		FarmerID:   farmer,
		FarmerName: "Farmer " + farmer,
		Quantity:   qty,
		FatContent: 4.2,
		DeviceID:   "DEV001",
	}
}

func TestAppendPrependsAndPersists(t *testing.T) {
	repo, clock := newTestRepository(t)
	require.Empty(t, repo.LoadAll())

	first, err := repo.Append(input("F1", 10))
	require.NoError(t, err)
	require.Equal(t, *clock, first.Timestamp)
	require.Equal(t, models.StatusVerified, first.Status)

	*clock = clock.Add(time.Minute)
	second, err := repo.Append(input("F1", 5))
	require.NoError(t, err)

	records := repo.Records()
	require.Equal(t, []string{second.ID, first.ID}, []string{records[0].ID, records[1].ID})

	reopened := NewRepository(repo.path, nil)
	loaded := reopened.LoadAll()
	require.Len(t, loaded, 2)
	require.Equal(t, second.ID, loaded[0].ID)

	farmers := reopened.Farmers()
	require.Len(t, farmers, 1)
	require.Equal(t, 2, farmers[0].TotalDeposits)
	require.Equal(t, 15.0, farmers[0].TotalQuantity)
}

func TestAppendAssignsUniqueIDsWithinSameMillisecond(t *testing.T) {
	repo, _ := newTestRepository(t)
	repo.LoadAll()

	a, err := repo.Append(input("F1", 1))
	require.NoError(t, err)
	b, err := repo.Append(input("F1", 1))
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)
}

func TestFarmerAggregateScenario(t *testing.T) {
	repo, _ := newTestRepository(t)
	repo.LoadAll()

	for _, qty := range []float64{10, 5, 7} {
		_, err := repo.Append(input("F1", qty))
		require.NoError(t, err)
	}

	farmers := repo.Farmers()
	require.Len(t, farmers, 1)
	require.Equal(t, "F1", farmers[0].FarmerID)
	require.Equal(t, 3, farmers[0].TotalDeposits)
	require.Equal(t, 22.0, farmers[0].TotalQuantity)
}

func writeSnapshot(t *testing.T, repo *Repository, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(repo.path), 0o755))
	require.NoError(t, os.WriteFile(repo.path, []byte(content), 0o644))
}

func TestLoadAllCorruptSnapshotIsPreserved(t *testing.T) {
	repo, _ := newTestRepository(t)
	writeSnapshot(t, repo, "{not json")

	require.Empty(t, repo.LoadAll())
	require.Empty(t, repo.Farmers())

	backup, err := os.ReadFile(repo.CorruptPath())
	require.NoError(t, err)
	require.Equal(t, "{not json", string(backup))

	_, err = repo.Append(input("F1", 3))
	require.NoError(t, err)
	backup, err = os.ReadFile(repo.CorruptPath())
	require.NoError(t, err)
	require.Equal(t, "{not json", string(backup), "append must not touch the backup")
}

func TestLoadAllKeepsRecordsWithUnparseableTimestamps(t *testing.T) {
	repo, clock := newTestRepository(t)
	writeSnapshot(t, repo, `{"version":1,"collections":[
		{"id":"1773126000000","timestamp":"2026-03-10T07:00:00Z","farmerId":"F1","farmerName":"Amina","quantity":10,"fatContent":4.1,"deviceId":"DEV001","status":"Verified"},
		{"id":1773125000000,"timestamp":"3/10/2026, 7:00:00 AM","farmerId":"F2","farmerName":"Baraka","quantity":5,"fatContent":3.9,"deviceId":"DEV001","status":"Verified"},
		{"id":"1773124000000","timestamp":"3/10/2026, 6:00:00 AM","createdAt":"2026-03-10T06:00:00Z","farmerId":"F2","farmerName":"Baraka","quantity":2,"fatContent":4.0,"deviceId":"DEV002"}
	]}`)

	loaded := repo.LoadAll()
	require.Len(t, loaded, 3)
	require.True(t, loaded[0].HasTimestamp())
	require.Equal(t, "1773125000000", loaded[1].ID)
	require.False(t, loaded[1].HasTimestamp())
	require.Equal(t, time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC), loaded[2].Timestamp.UTC(), "createdAt fallback")
	require.Equal(t, models.StatusVerified, loaded[2].Status)
	require.NoFileExists(t, repo.CorruptPath())

	*clock = clock.Add(time.Hour)
	_, err := repo.Append(input("F3", 1))
	require.NoError(t, err)

	reopened := NewRepository(repo.path, nil)
	reloaded := reopened.LoadAll()
	require.Len(t, reloaded, 4)
	require.False(t, reloaded[2].HasTimestamp())

	data, err := os.ReadFile(repo.path)
	require.NoError(t, err)
	require.Contains(t, string(data), "3/10/2026, 7:00:00 AM", "unparsed timestamp survives rewrite")

	var total float64
	for _, f := range reopened.Farmers() {
		total += f.TotalQuantity
	}
	require.Equal(t, 18.0, total)
}

func TestLoadAllSkipsUndecodableEntryAndKeepsBackup(t *testing.T) {
	repo, _ := newTestRepository(t)
	content := `{"version":1,"collections":[
		{"id":"2","timestamp":"2026-03-10T07:00:00Z","farmerId":"F1","quantity":10,"deviceId":"DEV001"},
		{"id":"1","timestamp":"2026-03-10T06:00:00Z","farmerId":"F1","quantity":"ten","deviceId":"DEV001"}
	]}`
	writeSnapshot(t, repo, content)

	loaded := repo.LoadAll()
	require.Len(t, loaded, 1)
	require.Equal(t, "2", loaded[0].ID)

	backup, err := os.ReadFile(repo.CorruptPath())
	require.NoError(t, err)
	require.Equal(t, content, string(backup))
}

func TestClearAll(t *testing.T) {
	repo, _ := newTestRepository(t)
	repo.LoadAll()
	_, err := repo.Append(input("F1", 3))
	require.NoError(t, err)

	require.NoError(t, repo.ClearAll())
	require.Empty(t, repo.Records())
	require.Empty(t, repo.Farmers())

	reopened := NewRepository(repo.path, nil)
	require.Empty(t, reopened.LoadAll())

	require.NoError(t, repo.ClearAll(), "clearing an empty store is not an error")
}

func TestAppendFailureLeavesStateUntouched(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	repo := NewRepository(filepath.Join(blocker, "milktrack.json"), nil)
	repo.LoadAll()

	_, err := repo.Append(input("F1", 3))
	var storageErr *models.StorageError
	require.ErrorAs(t, err, &storageErr)
	require.Empty(t, repo.Records())
	require.Empty(t, repo.Farmers())
}
