package jobs

import (
	"context"
	"time"

	"ShopIntent/internal/usecase"
	"ShopIntent/pkg/queue"
	"ShopIntent/pkg/util"
)

// datePayload is the shared payload of date-scoped jobs. An absent date
// means "today".
type datePayload struct {
	Date string `json:"date"`
}

func payloadDay(msg *queue.Message) (time.Time, error) {
	var p datePayload
	if err := msg.ParsePayload(&p); err != nil {
		return time.Time{}, err
	}
	if p.Date == "" {
		return util.TruncateDay(time.Now()), nil
	}
	return util.ParseDay(p.Date)
}

// IngestJob downloads and replaces the raw source table.
type IngestJob struct {
	Pipeline *usecase.DatasetPipeline
}

func (j *IngestJob) Type() string { return "ingest" }

func (j *IngestJob) Run(ctx context.Context, _ *queue.Message) error {
	_, err := j.Pipeline.Ingest(ctx)
	return err
}

// RebuildJob recreates the dataset table up to the payload date.
type RebuildJob struct {
	Pipeline *usecase.DatasetPipeline
}

func (j *RebuildJob) Type() string { return "rebuild" }

func (j *RebuildJob) Run(ctx context.Context, msg *queue.Message) error {
	day, err := payloadDay(msg)
	if err != nil {
		return err
	}
	return j.Pipeline.Rebuild(ctx, day)
}

// AppendJob appends one day of source rows to the dataset table.
type AppendJob struct {
	Pipeline *usecase.DatasetPipeline
}

func (j *AppendJob) Type() string { return "append" }

func (j *AppendJob) Run(ctx context.Context, msg *queue.Message) error {
	day, err := payloadDay(msg)
	if err != nil {
		return err
	}
	_, err = j.Pipeline.AppendDay(ctx, day)
	return err
}

// TrainJob fits and registers a new model version.
type TrainJob struct {
	Pipeline *usecase.TrainingPipeline
}

func (j *TrainJob) Type() string { return "train" }

func (j *TrainJob) Run(ctx context.Context, _ *queue.Message) error {
	_, err := j.Pipeline.Run(ctx, time.Now().UTC())
	return err
}

// PredictJob scores one session date with the serving version.
type PredictJob struct {
	Pipeline *usecase.PredictionPipeline
}

func (j *PredictJob) Type() string { return "predict" }

func (j *PredictJob) Run(ctx context.Context, msg *queue.Message) error {
	day, err := payloadDay(msg)
	if err != nil {
		return err
	}
	_, err = j.Pipeline.Run(ctx, day)
	return err
}

// CompareJob runs one champion/challenger comparison.
type CompareJob struct {
	Pipeline *usecase.ComparisonPipeline
}

func (j *CompareJob) Type() string { return "compare" }

func (j *CompareJob) Run(ctx context.Context, _ *queue.Message) error {
	_, err := j.Pipeline.Run(ctx)
	return err
}
