package processor

import (
	"encoding/json"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"kassette.ai/sensedata-sync/integrations/stitch"
	"kassette.ai/sensedata-sync/sources"
	"kassette.ai/sensedata-sync/sources/sensedata"
)

var jsonfast = jsoniter.ConfigCompatibleWithStandardLibrary

// TransformerHandleT turns raw Sensedata records into Stitch upsert envelopes.
type TransformerHandleT struct {
	ClientID string
	// Now stamps the sequence of each envelope, time.Now when nil.
	Now func() time.Time
}

func (trans *TransformerHandleT) Setup(clientID string) {
	trans.ClientID = clientID
	trans.Now = time.Now
}

// Transform builds one envelope per record and serializes the batch as a single JSON array.
func (trans *TransformerHandleT) Transform(entity sources.EntityT, records []json.RawMessage) ([]byte, error) {
	envelopes, err := trans.Envelopes(entity, records)
	if err != nil {
		return nil, err
	}
	batch, err := jsonfast.Marshal(envelopes)
	if err != nil {
		return nil, fmt.Errorf("serialize %s batch: %w", entity, err)
	}
	return batch, nil
}

func (trans *TransformerHandleT) Envelopes(entity sources.EntityT, records []json.RawMessage) ([]stitch.EnvelopeT, error) {
	envelopes := make([]stitch.EnvelopeT, 0, len(records))
	for index, raw := range records {
		data, err := RecordData(entity, index, raw)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, stitch.EnvelopeT{
			ClientID:  trans.ClientID,
			Action:    stitch.ActionUpsert,
			Sequence:  trans.sequence(),
			TableName: entity.String(),
			Data:      data,
			KeyNames:  stitch.KeyNames(),
		})
	}
	return envelopes, nil
}

// sequence is taken per record, records of one batch may end up with different values.
func (trans *TransformerHandleT) sequence() int64 {
	now := trans.Now
	if now == nil {
		now = time.Now
	}
	return now().Round(time.Second).Unix()
}

// RecordData flattens the raw record at position index of an entity page.
func RecordData(entity sources.EntityT, index int, raw json.RawMessage) (map[string]interface{}, error) {
	f := newFieldSet(entity, index)
	var err error
	switch entity {
	case sources.Contacts:
		var contact *sensedata.ContactT
		if contact, err = sensedata.DecodeContact(raw); err == nil {
			mapContact(f, contact)
		}
	case sources.Customers:
		var customer *sensedata.CustomerT
		if customer, err = sensedata.DecodeCustomer(raw); err == nil {
			mapCustomer(f, customer)
		}
	case sources.Nps:
		var nps *sensedata.NpsT
		if nps, err = sensedata.DecodeNps(raw); err == nil {
			mapNps(f, nps)
		}
	case sources.Tasks:
		var task *sensedata.TaskT
		if task, err = sensedata.DecodeTask(raw); err == nil {
			mapTask(f, task)
		}
	default:
		return nil, fmt.Errorf("%w: %q", sources.ErrUnknownEntity, entity)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s record %d: %w", entity, index, err)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}
