package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ramirolandajo/comercio-insights/internal/dashboard"
	jobmetrics "github.com/ramirolandajo/comercio-insights/internal/jobs"
	"github.com/ramirolandajo/comercio-insights/internal/period"
	"github.com/ramirolandajo/comercio-insights/internal/settings"
)

// defaultPresetDays are the windows the dashboard's period picker offers.
var defaultPresetDays = []int{7, 30, 90}

// DashboardWarmupJob pre-populates the dashboard cache for the persisted
// selection plus the preset windows, so first page loads after a deploy or a
// cache bump hit warm keys.
type DashboardWarmupJob struct {
	Service *dashboard.Service
	Prefs   *settings.Store
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(service *dashboard.Service, prefs *settings.Store, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{
		Service: service,
		Prefs:   prefs,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	presets := payload.PresetDays
	if len(presets) == 0 {
		presets = defaultPresetDays
	}

	tracker := j.metrics().Track(TaskDashboardWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting dashboard warmup", slog.Int("presets", len(presets)))

	now := j.now()
	windows := map[string]period.Params{}
	for _, days := range presets {
		windows["last-"+strconv.Itoa(days)] = period.LastDays(now, days)
	}
	if start, end, ok, err := j.loadPersisted(ctx); err != nil {
		logger.Warn("load persisted period", slog.Any("error", err))
	} else if ok {
		windows["selected"] = period.Params{
			StartDate: start + "T00:00:00",
			EndDate:   end + "T23:59:59",
		}
	}

	for window, params := range windows {
		warmed, err := j.warmWindow(ctx, params)
		j.metrics().AddWarmed(window, warmed)
		if err != nil {
			resultErr = err
			logger.Error("warm window", slog.String("window", window), slog.Any("error", err))
			return resultErr
		}
	}

	logger.Info("completed dashboard warmup", slog.Int("windows", len(windows)), slog.Duration("duration", time.Since(now)))
	return resultErr
}

// warmWindow touches the widgets a page load fans out to. Partial progress
// still counts: the widgets fetched before a failure stay cached.
func (j *DashboardWarmupJob) warmWindow(ctx context.Context, p period.Params) (int, error) {
	windowCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	warmed := 0
	if _, err := j.Service.Summary(windowCtx, p); err != nil {
		return warmed, err
	}
	warmed++
	if _, err := j.Service.Trend(windowCtx, p); err != nil {
		return warmed, err
	}
	warmed++
	if _, err := j.Service.DailySales(windowCtx, p); err != nil {
		return warmed, err
	}
	warmed++
	if _, err := j.Service.TopProducts(windowCtx, p); err != nil {
		return warmed, err
	}
	warmed++
	if _, err := j.Service.LowStock(windowCtx); err != nil {
		return warmed, err
	}
	warmed++
	return warmed, nil
}

func (j *DashboardWarmupJob) loadPersisted(ctx context.Context) (string, string, bool, error) {
	if j.Prefs == nil {
		return "", "", false, nil
	}
	return j.Prefs.LoadPeriod(ctx)
}

func (j *DashboardWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *DashboardWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
