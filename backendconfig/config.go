package backendconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"kassette.ai/sensedata-sync/sources"
)

const (
	keySourceToken      = "SENSEDATA_TOKEN"
	keySourceBaseURL    = "SENSEDATA_BASE_URL"
	keyDestToken        = "STITCH_INTEGRATION_TOKEN"
	keyDestClientID     = "STITCH_CLIENT_ID"
	keyDestBaseURL      = "STITCH_BASE_URL"
	keyEntities         = "SYNC_ENTITIES"
	keyPageSize         = "SYNC_PAGE_SIZE"
	keyPageCap          = "SYNC_PAGE_CAP"
	keyInterval         = "SYNC_INTERVAL"
	keyHTTPTimeout      = "HTTP_TIMEOUT"
	keyJobsDBDSN        = "JOBS_DB_DSN"
	keyBugsnagAPIKey    = "BUGSNAG_API_KEY"
	keyReleaseStage     = "RELEASE_STAGE"
	keyLogLevel         = "LOG_LEVEL"
	DefaultConfigFile   = ".env"
	DefaultSourceURL    = "https://api.sensedata.io"
	DefaultDestURL      = "https://api.stitchdata.com"
	DefaultPageSize     = 500
	DefaultPageCap      = 499
	DefaultInterval     = "3s"
	DefaultHTTPTimeout  = "60s"
	defaultReleaseStage = "production"
)

var ErrMissingKey = errors.New("missing required configuration")

func setDefaults(v *viper.Viper) {
	v.SetDefault(keySourceBaseURL, DefaultSourceURL)
	v.SetDefault(keyDestBaseURL, DefaultDestURL)
	v.SetDefault(keyEntities, joinEntities(sources.DefaultEntities))
	v.SetDefault(keyPageSize, DefaultPageSize)
	v.SetDefault(keyPageCap, DefaultPageCap)
	v.SetDefault(keyInterval, DefaultInterval)
	v.SetDefault(keyHTTPTimeout, DefaultHTTPTimeout)
	v.SetDefault(keyReleaseStage, defaultReleaseStage)
	v.SetDefault(keyLogLevel, "info")
}

// Load reads the optional dotenv file and then the process environment, which wins over the file.
func Load(configFile string) (ConfigT, error) {
	v := viper.New()
	if configFile == "" {
		configFile = DefaultConfigFile
	}
	v.SetConfigFile(configFile)
	v.SetConfigType("env")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return ConfigT{}, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}
	return LoadFrom(v)
}

func LoadFrom(v *viper.Viper) (ConfigT, error) {
	setDefaults(v)

	entities, err := sources.ParseEntities(strings.Split(v.GetString(keyEntities), ","))
	if err != nil {
		return ConfigT{}, fmt.Errorf("invalid %s: %w", keyEntities, err)
	}
	interval, err := duration(v, keyInterval)
	if err != nil {
		return ConfigT{}, err
	}
	httpTimeout, err := duration(v, keyHTTPTimeout)
	if err != nil {
		return ConfigT{}, err
	}

	config := ConfigT{
		Source: SourceConfigT{
			BaseURL:  strings.TrimRight(v.GetString(keySourceBaseURL), "/"),
			Token:    v.GetString(keySourceToken),
			PageSize: v.GetInt(keyPageSize),
		},
		Destination: DestinationConfigT{
			BaseURL:  strings.TrimRight(v.GetString(keyDestBaseURL), "/"),
			Token:    v.GetString(keyDestToken),
			ClientID: v.GetString(keyDestClientID),
		},
		Sync: SyncConfigT{
			Entities: entities,
			PageCap:  v.GetInt(keyPageCap),
			Interval: interval,
		},
		HTTPTimeout:   httpTimeout,
		JobsDBDSN:     v.GetString(keyJobsDBDSN),
		BugsnagAPIKey: v.GetString(keyBugsnagAPIKey),
		ReleaseStage:  v.GetString(keyReleaseStage),
		LogLevel:      v.GetString(keyLogLevel),
	}
	if err := config.Validate(); err != nil {
		return ConfigT{}, err
	}
	return config, nil
}

func (config ConfigT) Validate() error {
	required := map[string]string{
		keySourceToken:  config.Source.Token,
		keyDestToken:    config.Destination.Token,
		keyDestClientID: config.Destination.ClientID,
	}
	var missing []string
	for _, key := range []string{keySourceToken, keyDestToken, keyDestClientID} {
		if required[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingKey, strings.Join(missing, ", "))
	}
	if config.Source.PageSize < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", keyPageSize, config.Source.PageSize)
	}
	if config.Sync.PageCap < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", keyPageCap, config.Sync.PageCap)
	}
	if config.Sync.Interval < 0 {
		return fmt.Errorf("%s must not be negative, got %s", keyInterval, config.Sync.Interval)
	}
	return nil
}

// duration parses key strictly, viper's GetDuration turns a malformed value into 0.
func duration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func joinEntities(entities []sources.EntityT) string {
	names := make([]string, len(entities))
	for i, e := range entities {
		names[i] = e.String()
	}
	return strings.Join(names, ",")
}
