package misc

import (
	"context"
	"os"
	"unicode/utf8"

	"github.com/bugsnag/bugsnag-go"
	"go.uber.org/zap"

	"kassette.ai/sensedata-sync/utils/logger"
)

var errorReporting bool

// TruncateStr keeps at most limit bytes of str without splitting a UTF-8 sequence.
func TruncateStr(str string, limit int) string {
	if len(str) <= limit {
		return str
	}
	for limit > 0 && !utf8.RuneStart(str[limit]) {
		limit--
	}
	return str[:limit]
}

// SetupErrorReporting enables bugsnag. With an empty key errors are only logged.
func SetupErrorReporting(apiKey, releaseStage, appVersion string) {
	if apiKey == "" {
		errorReporting = false
		return
	}
	bugsnag.Configure(bugsnag.Configuration{
		APIKey:          apiKey,
		ReleaseStage:    releaseStage,
		AppVersion:      appVersion,
		ProjectPackages: []string{"main", "kassette.ai/sensedata-sync/*"},
		Synchronous:     true,
		PanicHandler:    func() {},
	})
	errorReporting = true
}

func ErrorReportingEnabled() bool {
	return errorReporting
}

// ReportError logs err and, when bugsnag is configured, sends it along with the given metadata.
func ReportError(ctx context.Context, err error, meta map[string]interface{}) {
	if err == nil {
		return
	}
	logger.Error("sync failed", zap.Error(err), zap.Any("meta", meta))
	if !errorReporting {
		return
	}
	if notifyErr := bugsnag.Notify(err, ctx, bugsnag.MetaData{"sync": meta}); notifyErr != nil {
		logger.Error("failed to report error to bugsnag", zap.Error(notifyErr))
	}
}

// Exit flushes the logger before leaving the process.
func Exit(code int) {
	logger.Sync()
	os.Exit(code)
}
