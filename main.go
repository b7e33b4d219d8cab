package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"kassette.ai/sensedata-sync/backendconfig"
	"kassette.ai/sensedata-sync/integrations/stitch"
	jobsdb "kassette.ai/sensedata-sync/jobs"
	"kassette.ai/sensedata-sync/misc"
	"kassette.ai/sensedata-sync/processor"
	"kassette.ai/sensedata-sync/router"
	"kassette.ai/sensedata-sync/runner"
	stats "kassette.ai/sensedata-sync/services/stats"
	"kassette.ai/sensedata-sync/sources/sensedata"
	"kassette.ai/sensedata-sync/utils/logger"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		misc.Exit(1)
	}
	logger.Sync()
}

func run() error {
	config, err := backendconfig.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Error("failed to load configuration", zap.Error(err))
		return err
	}
	if !logger.SetLevel(config.LogLevel) {
		logger.Warn("unknown log level, keeping info", zap.String("level", config.LogLevel))
	}
	misc.SetupErrorReporting(config.BugsnagAPIKey, config.ReleaseStage, version)
	stats.Init()
	defer stats.Report()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobsDB := setupJobsDB(config.JobsDBDSN)
	defer func() { _ = jobsDB.Close() }()

	var network router.NetHandleT
	network.Setup(config.HTTPTimeout)

	var source sensedata.HandleT
	source.Setup(config.Source, &network)

	var destination stitch.HandleT
	destination.Setup(config.Destination, &network)

	var transformer processor.TransformerHandleT
	transformer.Setup(config.Destination.ClientID)

	var driver runner.HandleT
	driver.Setup(config.Sync, &source, &transformer, &destination, jobsDB)
	logger.Info("starting sync",
		zap.String("run_id", driver.RunID.String()),
		zap.Any("entities", config.Sync.Entities),
		zap.Int("page_size", config.Source.PageSize),
		zap.Int("page_cap", config.Sync.PageCap))

	summary, err := driver.Run(ctx)
	if err != nil {
		misc.ReportError(ctx, err, map[string]interface{}{
			"run_id":   driver.RunID.String(),
			"entities": summary.Entities,
		})
		return err
	}
	for _, entity := range summary.Entities {
		logger.Info("entity summary",
			zap.String("entity", entity.Entity.String()),
			zap.Int("pages", entity.Pages),
			zap.Int("rows", entity.Rows))
	}
	return nil
}

// setupJobsDB opens the audit log. An unreachable database only disables it.
func setupJobsDB(dsn string) *jobsdb.HandleT {
	jobsDB := &jobsdb.HandleT{}
	if err := jobsDB.Setup(dsn); err != nil {
		logger.Warn("jobs db unavailable, audit log disabled", zap.Error(err))
		return &jobsdb.HandleT{}
	}
	return jobsDB
}
