package backendconfig

import (
	"time"

	"kassette.ai/sensedata-sync/sources"
)

// SourceConfigT describes how to read pages from the Sensedata API.
type SourceConfigT struct {
	BaseURL  string
	Token    string
	PageSize int
}

// DestinationConfigT describes the Stitch Import API the batches are pushed to.
type DestinationConfigT struct {
	BaseURL  string
	Token    string
	ClientID string
}

// SyncConfigT drives the pagination loop.
type SyncConfigT struct {
	Entities []sources.EntityT
	// PageCap is the last page number fetched for an entity, inclusive.
	PageCap  int
	Interval time.Duration
}

type ConfigT struct {
	Source        SourceConfigT
	Destination   DestinationConfigT
	Sync          SyncConfigT
	HTTPTimeout   time.Duration
	JobsDBDSN     string
	BugsnagAPIKey string
	ReleaseStage  string
	LogLevel      string
}
