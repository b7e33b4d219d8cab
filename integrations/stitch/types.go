package stitch

const (
	ActionUpsert = "upsert"
	PushPath     = "/v2/import/push"
)

// EnvelopeT is one record of a Stitch Import API batch.
type EnvelopeT struct {
	ClientID  string                 `json:"client_id"`
	Action    string                 `json:"action"`
	Sequence  int64                  `json:"sequence"`
	TableName string                 `json:"table_name"`
	Data      map[string]interface{} `json:"data"`
	KeyNames  []string               `json:"key_names"`
}

// KeyNames is the primary key declared for every table the sync writes.
func KeyNames() []string {
	return []string{"id"}
}

type PushResultT struct {
	StatusCode int
	Body       []byte
}
