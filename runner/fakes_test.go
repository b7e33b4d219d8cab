package runner_test

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kassette.ai/sensedata-sync/integrations/stitch"
	"kassette.ai/sensedata-sync/sources"
	"kassette.ai/sensedata-sync/sources/sensedata"
)

type fetchCall struct {
	Entity sources.EntityT
	Page   int
}

// fakeSource serves rows[entity][page-1] records per page, then count 0.
type fakeSource struct {
	rows    map[sources.EntityT][]int
	fail    map[sources.EntityT]error
	endless bool
	calls   []fetchCall
}

func (s *fakeSource) Fetch(_ context.Context, entity sources.EntityT, page int) (sensedata.PageT, error) {
	s.calls = append(s.calls, fetchCall{Entity: entity, Page: page})
	if err := s.fail[entity]; err != nil {
		return sensedata.PageT{}, err
	}
	count := 0
	if s.endless {
		count = 1
	} else if pages := s.rows[entity]; page <= len(pages) {
		count = pages[page-1]
	}
	result := sensedata.PageT{Entity: entity, Number: page, Count: count}
	for i := 0; i < count; i++ {
		result.Records = append(result.Records, json.RawMessage(fmt.Sprintf(`{"id":%d}`, i)))
	}
	return result, nil
}

type fakeTransformer struct {
	fail error
}

func (t *fakeTransformer) Transform(entity sources.EntityT, records []json.RawMessage) ([]byte, error) {
	if t.fail != nil {
		return nil, t.fail
	}
	return []byte(fmt.Sprintf("%s:%d", entity, len(records))), nil
}

type fakeDestination struct {
	batches []string
	failAt  int
	fail    error
}

func (d *fakeDestination) Push(_ context.Context, batch []byte) (stitch.PushResultT, error) {
	d.batches = append(d.batches, string(batch))
	if d.fail != nil && len(d.batches) == d.failAt {
		return stitch.PushResultT{StatusCode: 400}, d.fail
	}
	return stitch.PushResultT{StatusCode: 201}, nil
}

type fakeSleeper struct {
	calls []time.Duration
}

func (s *fakeSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return nil
}
