package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kassette.ai/sensedata-sync/backendconfig"
	"kassette.ai/sensedata-sync/integrations/stitch"
	jobsdb "kassette.ai/sensedata-sync/jobs"
	stats "kassette.ai/sensedata-sync/services/stats"
	"kassette.ai/sensedata-sync/sources"
	"kassette.ai/sensedata-sync/sources/sensedata"
	"kassette.ai/sensedata-sync/utils/logger"
)

type SourceI interface {
	Fetch(ctx context.Context, entity sources.EntityT, page int) (sensedata.PageT, error)
}

type TransformerI interface {
	Transform(entity sources.EntityT, records []json.RawMessage) ([]byte, error)
}

type DestinationI interface {
	Push(ctx context.Context, batch []byte) (stitch.PushResultT, error)
}

type EntitySummaryT struct {
	Entity sources.EntityT
	Pages  int
	Rows   int
}

type SummaryT struct {
	RunID    uuid.UUID
	Entities []EntitySummaryT
	Duration time.Duration
}

// HandleT drives the sync: entities one after the other, pages one after the other.
// The first error stops the whole run.
type HandleT struct {
	RunID       uuid.UUID
	config      backendconfig.SyncConfigT
	source      SourceI
	transformer TransformerI
	destination DestinationI
	jobsDB      *jobsdb.HandleT
	sleep       func(ctx context.Context, d time.Duration) error
}

func (r *HandleT) Setup(config backendconfig.SyncConfigT, source SourceI, transformer TransformerI, destination DestinationI, jobsDB *jobsdb.HandleT) {
	r.RunID = uuid.New()
	r.config = config
	if len(r.config.Entities) == 0 {
		r.config.Entities = sources.DefaultEntities
	}
	if r.config.PageCap < 1 {
		r.config.PageCap = backendconfig.DefaultPageCap
	}
	r.source = source
	r.transformer = transformer
	r.destination = destination
	r.jobsDB = jobsDB
	if r.sleep == nil {
		r.sleep = sleep
	}
}

// SetSleep replaces the pause between pages.
func (r *HandleT) SetSleep(fn func(ctx context.Context, d time.Duration) error) {
	r.sleep = fn
}

func (r *HandleT) Run(ctx context.Context) (summary SummaryT, err error) {
	start := time.Now()
	summary.RunID = r.RunID
	log := logger.Logger.WithOptions(zap.AddCallerSkip(-1)).With(zap.String("run_id", r.RunID.String()))

	r.audit(log, "start run", r.jobsDB.StartRun(ctx, r.RunID, entityList(r.config.Entities)))
	defer func() {
		summary.Duration = time.Since(start)
		r.audit(log, "finish run", r.jobsDB.FinishRun(context.WithoutCancel(ctx), r.RunID, err))
	}()

	for _, entity := range r.config.Entities {
		entitySummary, entityErr := r.syncEntity(ctx, log, entity)
		summary.Entities = append(summary.Entities, entitySummary)
		if entityErr != nil {
			return summary, entityErr
		}
	}

	log.Info("sync has been finished", zap.Duration("duration", time.Since(start)))
	return summary, nil
}

func (r *HandleT) syncEntity(ctx context.Context, log *zap.Logger, entity sources.EntityT) (EntitySummaryT, error) {
	summary := EntitySummaryT{Entity: entity}
	pagesStat := stats.NewStat("sync.pages." + entity.String())
	rowsStat := stats.NewStat("sync.rows." + entity.String())
	pushStat := stats.NewStat("sync.push_time." + entity.String())

	for page := 1; page <= r.config.PageCap; page++ {
		result, err := r.source.Fetch(ctx, entity, page)
		if err != nil {
			return summary, fmt.Errorf("sync %s page %d: %w", entity, page, err)
		}
		// count is 0 once pagination ends
		if result.Count == 0 {
			break
		}
		log.Info("page fetched",
			zap.String("entity", entity.String()),
			zap.Int("page", page),
			zap.Int("rows", len(result.Records)))

		batch, err := r.transformer.Transform(entity, result.Records)
		if err != nil {
			return summary, fmt.Errorf("sync %s page %d: %w", entity, page, err)
		}

		pushStart := time.Now()
		pushed, err := r.destination.Push(ctx, batch)
		r.audit(log, "record page", r.jobsDB.RecordPage(ctx, r.RunID, entity.String(), page, len(result.Records), pushed.StatusCode, pushed.Body))
		if err != nil {
			return summary, fmt.Errorf("sync %s page %d: %w", entity, page, err)
		}
		pushStat.SendTiming(pushStart)
		pagesStat.Count(1)
		rowsStat.Count(len(result.Records))
		summary.Pages++
		summary.Rows += len(result.Records)

		if err := r.sleep(ctx, r.config.Interval); err != nil {
			return summary, fmt.Errorf("sync %s page %d: %w", entity, page, err)
		}
	}

	log.Info("entity synced",
		zap.String("entity", entity.String()),
		zap.Int("pages", summary.Pages),
		zap.Int("rows", summary.Rows))
	return summary, nil
}

// audit failures are logged only, the audit log is not part of the sync.
func (r *HandleT) audit(log *zap.Logger, action string, err error) {
	if err != nil {
		log.Warn("jobs db audit failed", zap.String("action", action), zap.Error(err))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func entityList(entities []sources.EntityT) string {
	names := make([]string, len(entities))
	for i, entity := range entities {
		names[i] = entity.String()
	}
	return strings.Join(names, ",")
}
