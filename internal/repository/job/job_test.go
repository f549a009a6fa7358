package job

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mediagrab/mediagrab/internal/entity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestGetUnknownID(t *testing.T) {
	repo := NewJobRepository(testLogger())

	job := repo.Get("no-such-id")
	require.Equal(t, entity.StatusNotFound, job.Status)
	require.Empty(t, job.ID)
}

func TestCreateThenGet(t *testing.T) {
	repo := NewJobRepository(testLogger())

	repo.Create("abc")

	job := repo.Get("abc")
	require.Equal(t, entity.StatusStarting, job.Status)
	require.Equal(t, "abc", job.ID)
	require.Equal(t, "0%", job.Progress)
	require.Equal(t, "N/A", job.Speed)
}

func TestUpdateReplacesWholeRecord(t *testing.T) {
	repo := NewJobRepository(testLogger())
	repo.Create("abc")

	repo.Update("abc", entity.Job{
		Status:   entity.StatusDownloading,
		Progress: "42.0%",
		Speed:    "1.5MiB/s",
		Filename: "/tmp/abc_x.mp4",
	})

	repo.Update("abc", entity.Job{
		Status:   entity.StatusFinished,
		Progress: "100%",
		Filename: "/tmp/abc_x.mp4",
		Filepath: "/tmp/abc_x.mp4",
	})

	job := repo.Get("abc")
	require.Equal(t, entity.StatusFinished, job.Status)
	require.Equal(t, "abc", job.ID)
	require.Empty(t, job.Speed, "replace semantics drop fields the new record omits")
	require.Equal(t, "/tmp/abc_x.mp4", job.Filepath)
}

func TestLen(t *testing.T) {
	repo := NewJobRepository(testLogger())
	require.Zero(t, repo.Len())

	repo.Create("one")
	repo.Create("two")
	require.Equal(t, 2, repo.Len())

	// Updates never add or remove entries.
	repo.Update("one", entity.Job{Status: entity.StatusError, Error: "boom"})
	require.Equal(t, 2, repo.Len())
}

func TestConcurrentAccess(t *testing.T) {
	repo := NewJobRepository(testLogger())

	const jobs = 50

	var wg sync.WaitGroup
	for n := 0; n < jobs; n++ {
		id := fmt.Sprintf("job-%d", n)
		repo.Create(id)

		wg.Add(2)
		go func() {
			defer wg.Done()

			for i := 0; i < 100; i++ {
				repo.Update(id, entity.Job{Status: entity.StatusDownloading, Progress: fmt.Sprintf("%d%%", i)})
			}
			repo.Update(id, entity.Job{Status: entity.StatusFinished, Progress: "100%"})
		}()
		go func() {
			defer wg.Done()

			for i := 0; i < 100; i++ {
				job := repo.Get(id)
				require.NotEqual(t, entity.StatusNotFound, job.Status)
			}
		}()
	}

	wg.Wait()

	require.Equal(t, jobs, repo.Len())
	for n := 0; n < jobs; n++ {
		require.Equal(t, entity.StatusFinished, repo.Get(fmt.Sprintf("job-%d", n)).Status)
	}
}
