package pipeline

import (
	"context"
	"log/slog"

	"github.com/dgallion1/txt2epub/internal/convert"
)

// Worker processes a single conversion job.
type Worker struct {
	conv *convert.Converter
	log  *slog.Logger
}

func NewWorker(conv *convert.Converter, log *slog.Logger) *Worker {
	return &Worker{conv: conv, log: log}
}

// Process runs the conversion for a job and records its outcome. Every
// call finishes the job, success or not.
func (w *Worker) Process(ctx context.Context, job *Job) Outcome {
	log := w.log.With("job_id", job.ID, "file", job.Filename)

	req := job.Request()
	req.Progress = func(s convert.Stage) {
		job.SetStatus(JobStatus(s), string(s))
		log.Debug("stage", "stage", s)
	}

	res, err := w.conv.Convert(ctx, req)
	if err != nil {
		kind := convert.Classify(err)
		log.Error("conversion failed", "kind", kind, "error", err)
		job.Finish(Outcome{Err: err, Kind: kind})
		return job.Outcome()
	}

	log.Info("conversion completed", "output", res.Output, "chapters", res.Chapters, "images", res.Images)
	job.Finish(Outcome{Result: res})
	return job.Outcome()
}
