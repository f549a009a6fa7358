package download

import "github.com/mediagrab/mediagrab/internal/entity"

const (
	defaultPercent  = "0%"
	defaultSpeed    = "N/A"
	finishedPercent = "100%"
)

// progressReporter is bound to one job id and translates raw extraction
// events into registry updates. It is called synchronously from the
// extraction client's callback stack and does no error handling of its own.
type progressReporter struct {
	id   string
	repo JobRepository
}

func newProgressReporter(id string, repo JobRepository) *progressReporter {
	return &progressReporter{
		id:   id,
		repo: repo,
	}
}

func (r *progressReporter) Report(ev entity.ProgressEvent) {
	switch ev.Kind {
	case entity.EventDownloading:
		percent := ev.Percent
		if percent == "" {
			percent = defaultPercent
		}

		speed := ev.Speed
		if speed == "" {
			speed = defaultSpeed
		}

		r.repo.Update(r.id, entity.Job{
			Status:   entity.StatusDownloading,
			Progress: percent,
			Speed:    speed,
			Filename: ev.Filename,
		})
	case entity.EventFinished:
		r.repo.Update(r.id, entity.Job{
			Status:   entity.StatusFinished,
			Progress: finishedPercent,
			Filename: ev.Filename,
			Filepath: ev.Filename,
		})
	}
}
