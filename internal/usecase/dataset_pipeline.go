package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"ShopIntent/internal/domain/models"
	domrepo "ShopIntent/internal/domain/repository"
	pkghttp "ShopIntent/pkg/http"
	applogger "ShopIntent/pkg/logger"
)

// DatasetConfig drives the ETL pipeline.
type DatasetConfig struct {
	SourceURL    string
	FetchRetries int
	// Seed makes the synthesized session dates reproducible across runs.
	Seed int64
}

// DatasetPipeline ingests the raw shopper-session CSV into the warehouse
// source table and maintains the derived ML dataset table. The raw data
// carries only a month column, so a concrete session date is synthesized
// per row: months through September land in the current cycle's year, the
// fourth-quarter months in the previous one, with a seeded random day.
type DatasetPipeline struct {
	store   domrepo.DatasetStore
	client  *pkghttp.Client
	metrics domrepo.Metrics
	l       *applogger.Logger
	cfg     DatasetConfig
}

func NewDatasetPipeline(
	store domrepo.DatasetStore,
	client *pkghttp.Client,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	cfg DatasetConfig,
) *DatasetPipeline {
	return &DatasetPipeline{
		store:   store,
		client:  client,
		metrics: metrics,
		l:       l,
		cfg:     cfg,
	}
}

// Ingest downloads the source CSV, synthesizes session dates and row ids,
// and replaces the source table. Returns the number of ingested rows.
func (p *DatasetPipeline) Ingest(ctx context.Context) (int, error) {
	start := time.Now()

	body, err := p.download(ctx)
	if err != nil {
		p.metrics.RecordPipelineRun("ingest", "failed")
		return 0, fmt.Errorf("download source: %w", err)
	}

	rows, err := p.parseCSV(bytes.NewReader(body))
	if err != nil {
		p.metrics.RecordPipelineRun("ingest", "failed")
		return 0, fmt.Errorf("parse source: %w", err)
	}

	if err := p.store.ReplaceSource(ctx, rows); err != nil {
		p.metrics.RecordPipelineRun("ingest", "failed")
		return 0, fmt.Errorf("replace source: %w", err)
	}

	p.metrics.RecordPipelineRun("ingest", "success")
	p.metrics.RecordLatency("ingest", time.Since(start).Seconds())
	if p.l != nil {
		p.l.Info("ingest finished",
			applogger.Int("rows", len(rows)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return len(rows), nil
}

// Rebuild recreates the dataset table from the source table with rows up
// to and including targetDate. Used before a training run.
func (p *DatasetPipeline) Rebuild(ctx context.Context, targetDate time.Time) error {
	if err := p.store.RebuildDataset(ctx, targetDate); err != nil {
		p.metrics.RecordPipelineRun("rebuild", "failed")
		return err
	}
	p.metrics.RecordPipelineRun("rebuild", "success")
	return nil
}

// AppendDay appends the source rows of exactly day to the dataset table.
// Used by the daily ETL ahead of the prediction run.
func (p *DatasetPipeline) AppendDay(ctx context.Context, day time.Time) (int, error) {
	n, err := p.store.AppendDataset(ctx, day)
	if err != nil {
		p.metrics.RecordPipelineRun("append", "failed")
		return 0, err
	}
	p.metrics.RecordPipelineRun("append", "success")
	if p.l != nil {
		p.l.Info("dataset append finished",
			applogger.Time("session_date", day),
			applogger.Int("rows", n),
		)
	}
	return n, nil
}

func (p *DatasetPipeline) download(ctx context.Context) ([]byte, error) {
	var body []byte
	op := func() error {
		body = body[:0]
		return p.client.SendAndParse(ctx, &pkghttp.RequestOptions{
			Method: pkghttp.MethodGet,
			URL:    p.cfg.SourceURL,
		}, &body)
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(p.cfg.FetchRetries)),
		ctx,
	)
	notify := func(err error, next time.Duration) {
		if p.l != nil {
			p.l.Warn("source download retry",
				applogger.Error(err),
				applogger.Duration("backoff_ms", next),
			)
		}
	}
	if err := backoff.RetryNotify(op, bo, notify); err != nil {
		return nil, err
	}
	return body, nil
}

// csv columns of the shopper-session dataset, by header name.
var csvNumericColumns = map[string]string{
	"Administrative":          "administrative",
	"Administrative_Duration": "administrative_duration",
	"Informational":           "informational",
	"Informational_Duration":  "informational_duration",
	"ProductRelated":          "productrelated",
	"ProductRelated_Duration": "productrelated_duration",
	"BounceRates":             "bouncerates",
	"ExitRates":               "exitrates",
	"PageValues":              "pagevalues",
	"SpecialDay":              "specialday",
}

func (p *DatasetPipeline) parseCSV(r io.Reader) ([]models.SessionRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"Month", "Revenue", "Weekend"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("source csv missing column %q", required)
		}
	}

	rng := rand.New(rand.NewSource(p.cfg.Seed))
	now := time.Now().UTC()
	out := make([]models.SessionRow, 0, 16384)

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		row := models.SessionRow{UID: uuid.NewString()}

		month, err := parseMonth(rec[col["Month"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row.SessionDate = synthesizeDate(month, now, rng)

		for csvName, feature := range csvNumericColumns {
			idx, ok := col[csvName]
			if !ok {
				return nil, fmt.Errorf("source csv missing column %q", csvName)
			}
			v, err := strconv.ParseFloat(rec[idx], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d %s: %w", line, csvName, err)
			}
			switch feature {
			case "administrative":
				row.Administrative = v
			case "administrative_duration":
				row.AdministrativeDuration = v
			case "informational":
				row.Informational = v
			case "informational_duration":
				row.InformationalDuration = v
			case "productrelated":
				row.ProductRelated = v
			case "productrelated_duration":
				row.ProductRelatedDuration = v
			case "bouncerates":
				row.BounceRates = v
			case "exitrates":
				row.ExitRates = v
			case "pagevalues":
				row.PageValues = v
			case "specialday":
				row.SpecialDay = v
			}
		}

		row.OperatingSystems = fieldOrEmpty(rec, col, "OperatingSystems")
		row.Browser = fieldOrEmpty(rec, col, "Browser")
		row.Region = fieldOrEmpty(rec, col, "Region")
		row.TrafficType = fieldOrEmpty(rec, col, "TrafficType")
		row.VisitorType = fieldOrEmpty(rec, col, "VisitorType")
		row.Weekend = strings.ToUpper(rec[col["Weekend"]])

		if strings.EqualFold(rec[col["Revenue"]], "true") {
			row.Revenue = 1
		} else {
			row.Revenue = 0
		}

		out = append(out, row)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: source csv has no data rows", models.ErrEmptyWindow)
	}
	return out, nil
}

func fieldOrEmpty(rec []string, col map[string]int, name string) string {
	idx, ok := col[name]
	if !ok || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}

// parseMonth handles both abbreviated and spelled-out month names; the
// source data mixes "Jun" style with "June".
func parseMonth(s string) (time.Month, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("Jan", s); err == nil {
		return t.Month(), nil
	}
	if t, err := time.Parse("January", s); err == nil {
		return t.Month(), nil
	}
	return 0, fmt.Errorf("unknown month %q", s)
}

// synthesizeDate assigns a concrete date to a month-only record: months
// through September belong to the year of now, October through December
// to the year before, with a random day drawn from the month.
func synthesizeDate(month time.Month, now time.Time, rng *rand.Rand) time.Time {
	year := now.Year()
	if month >= time.October {
		year--
	}
	days := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	day := 1 + rng.Intn(days)
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
