// Package cron runs the scheduled refresh worker: it re-fetches tariff
// snapshots for saved project locations and recomputes stored project
// results. A Postgres advisory lock keeps the job on one replica in
// multi-instance deployments.
package cron

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/mfreitag/solarledger/internal/alerting"
	"github.com/mfreitag/solarledger/internal/finance"
	"github.com/mfreitag/solarledger/internal/metrics"
	"github.com/mfreitag/solarledger/internal/production"
	"github.com/mfreitag/solarledger/internal/storage"
	"github.com/mfreitag/solarledger/pkg/providers/solarproviders"
)

const (
	jobName = "project_refresh"
	// settings key that overrides the configured schedule at runtime
	scheduleSettingKey = "refresh_schedule"
)

type Worker struct {
	storage  storage.Storage
	engine   *production.Engine
	alerter  *alerting.Alerter
	schedule string
	lockKey  int64
	log      zerolog.Logger
}

func NewWorker(st storage.Storage, engine *production.Engine, alerter *alerting.Alerter, schedule string, lockKey int64, log zerolog.Logger) *Worker {
	if schedule == "" {
		schedule = "@every 24h"
	}
	if lockKey == 0 {
		lockKey = 7310441
	}
	return &Worker{
		storage:  st,
		engine:   engine,
		alerter:  alerter,
		schedule: schedule,
		lockKey:  lockKey,
		log:      log.With().Str("component", "cron").Logger(),
	}
}

// nextRun computes the next execution after lastRun for a schedule
// that is either plain integer seconds or a cron expression.
func nextRun(setting string, lastRun time.Time) time.Time {
	if v, err := strconv.Atoi(setting); err == nil && v > 0 {
		return lastRun.Add(time.Duration(v) * time.Second)
	}
	if sched, err := cron.ParseStandard(setting); err == nil {
		return sched.Next(lastRun)
	}
	return lastRun.Add(24 * time.Hour)
}

// Run drives the control loop until the context is cancelled. The
// schedule can be changed at runtime through the refresh_schedule
// setting; changes apply from the next control tick.
func (w *Worker) Run(ctx context.Context) error {
	schedule := w.schedule
	if val, err := w.storage.GetSetting(ctx, scheduleSettingKey); err == nil && val != "" {
		schedule = val
	}

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	// run once at startup, then follow the schedule
	next := time.Now()

	w.log.Info().Str("schedule", schedule).Msg("refresh worker starting")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if val, err := w.storage.GetSetting(ctx, scheduleSettingKey); err == nil && val != "" && val != schedule {
				w.log.Info().Str("from", schedule).Str("to", val).Msg("schedule updated")
				schedule = val
				next = nextRun(schedule, time.Now())
			}

			if time.Now().Before(next) {
				continue
			}

			w.runOnce(ctx)
			next = nextRun(schedule, time.Now())
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	started := time.Now()

	ok, err := w.storage.AcquireAdvisoryLock(ctx, w.lockKey)
	if err != nil {
		w.log.Error().Err(err).Msg("acquire advisory lock failed")
		metrics.UpdateJobMetrics(jobName, started, err)
		return
	}
	if !ok {
		w.log.Info().Msg("advisory lock held by another worker, skipping run")
		return
	}
	defer func() {
		if _, err := w.storage.ReleaseAdvisoryLock(ctx, w.lockKey); err != nil {
			w.log.Error().Err(err).Msg("release advisory lock failed")
		}
	}()

	result := w.RefreshProjects(ctx)

	var runErr error
	if len(result.Failures) > 0 {
		runErr = result.Failures[0].err
	}
	metrics.UpdateJobMetrics(jobName, started, runErr)

	dur := time.Since(started)
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	if err := w.storage.UpdateScheduledJob(ctx, jobName, started, dur, runErr == nil, errMsg); err != nil {
		w.log.Error().Err(err).Msg("update scheduled_jobs failed")
	}

	if w.alerter != nil && len(result.Failures) > 0 {
		alert := alerting.RefreshAlert{
			JobName:      jobName,
			TotalCount:   result.Total,
			SuccessCount: result.Succeeded,
			FailedCount:  len(result.Failures),
			Duration:     dur,
			Timestamp:    time.Now(),
		}
		for _, f := range result.Failures {
			alert.Failures = append(alert.Failures, alerting.Failure{Item: f.Item, Error: f.err.Error()})
		}
		if err := w.alerter.SendRefreshAlert(ctx, alert); err != nil {
			w.log.Error().Err(err).Msg("send refresh alert failed")
		}
	}

	w.log.Info().Int("total", result.Total).Int("succeeded", result.Succeeded).
		Int("failed", len(result.Failures)).Dur("duration", dur).Msg("refresh run complete")
}

// RefreshResult summarizes one refresh pass over the saved projects.
type RefreshResult struct {
	Total     int
	Succeeded int
	Failures  []refreshFailure
}

type refreshFailure struct {
	Item string
	err  error
}

// RefreshProjects re-fetches tariffs for every distinct project
// location and recomputes each project's stored result. Individual
// project failures do not stop the pass.
func (w *Worker) RefreshProjects(ctx context.Context) RefreshResult {
	var result RefreshResult

	projects, err := w.storage.ListAllProjects(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("list projects failed")
		result.Failures = append(result.Failures, refreshFailure{Item: "list projects", err: err})
		return result
	}
	result.Total = len(projects)

	// one tariff refresh per distinct location
	type location struct{ lat, lon float64 }
	seen := map[location]bool{}
	for _, p := range projects {
		loc := location{p.Latitude, p.Longitude}
		if seen[loc] {
			continue
		}
		seen[loc] = true
		if _, err := w.engine.RefreshRates(ctx, loc.lat, loc.lon); err != nil {
			w.log.Warn().Err(err).Float64("lat", loc.lat).Float64("lon", loc.lon).
				Msg("tariff refresh failed")
		}
	}

	for _, p := range projects {
		if err := w.refreshProject(ctx, p); err != nil {
			w.log.Warn().Err(err).Str("project", p.ID).Msg("project refresh failed")
			result.Failures = append(result.Failures, refreshFailure{Item: p.Name, err: err})
			continue
		}
		result.Succeeded++
	}
	return result
}

func (w *Worker) refreshProject(ctx context.Context, p storage.Project) error {
	var spec solarproviders.SystemSpec
	if err := json.Unmarshal(p.Spec, &spec); err != nil {
		return err
	}
	params := finance.DefaultParameters()
	if len(p.Params) > 0 {
		if err := json.Unmarshal(p.Params, &params); err != nil {
			return err
		}
	}

	analysis, err := w.engine.AnalyzeSystem(ctx, production.AnalysisRequest{Spec: spec, Params: params})
	if err != nil {
		return err
	}

	payload, err := json.Marshal(analysis)
	if err != nil {
		return err
	}
	now := time.Now()
	p.Result = payload
	p.LastAnalyzedAt = &now
	return w.storage.UpdateProject(ctx, p)
}
