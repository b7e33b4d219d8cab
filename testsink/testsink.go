// Package testsink serves in-process fakes of the Sensedata list API and the Stitch Import API.
package testsink

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"kassette.ai/sensedata-sync/sources"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type RequestT struct {
	Method string
	Path   string
	Query  map[string]string
	Header http.Header
	Body   []byte
}

type recorderT struct {
	mu       sync.Mutex
	requests []RequestT
}

func (rec *recorderT) record(c *gin.Context) RequestT {
	body, _ := io.ReadAll(c.Request.Body)
	query := make(map[string]string)
	for key := range c.Request.URL.Query() {
		query[key] = c.Query(key)
	}
	req := RequestT{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Query:  query,
		Header: c.Request.Header.Clone(),
		Body:   body,
	}
	rec.mu.Lock()
	rec.requests = append(rec.requests, req)
	rec.mu.Unlock()
	return req
}

func (rec *recorderT) Requests() []RequestT {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]RequestT(nil), rec.requests...)
}

// SensedataT answers GET /v2/:entity with the pages added for that entity, then with count 0.
type SensedataT struct {
	recorderT
	pages    map[string][][]json.RawMessage
	failures map[string]int
	server   *httptest.Server
}

func NewSensedata() *SensedataT {
	sink := &SensedataT{
		pages:    make(map[string][][]json.RawMessage),
		failures: make(map[string]int),
	}
	engine := gin.New()
	engine.GET("/v2/:entity", sink.listEntity)
	sink.server = httptest.NewServer(engine)
	return sink
}

func (sink *SensedataT) URL() string {
	return sink.server.URL
}

func (sink *SensedataT) Close() {
	sink.server.Close()
}

func (sink *SensedataT) AddPage(entity sources.EntityT, records ...json.RawMessage) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.pages[entity.String()] = append(sink.pages[entity.String()], records)
}

// Fail makes every request for entity answer with status.
func (sink *SensedataT) Fail(entity sources.EntityT, status int) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.failures[entity.String()] = status
}

func (sink *SensedataT) listEntity(c *gin.Context) {
	sink.record(c)
	entity := c.Param("entity")

	sink.mu.Lock()
	status, failing := sink.failures[entity]
	pages := sink.pages[entity]
	sink.mu.Unlock()

	if failing {
		c.String(status, http.StatusText(status))
		return
	}
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid page"})
		return
	}
	if page > len(pages) {
		c.JSON(http.StatusOK, gin.H{"count": 0, entity: []json.RawMessage{}})
		return
	}
	records := pages[page-1]
	c.JSON(http.StatusOK, gin.H{"count": len(records), entity: records})
}

// StitchT accepts POST /v2/import/push and keeps every batch it receives.
type StitchT struct {
	recorderT
	status int
	server *httptest.Server
}

func NewStitch() *StitchT {
	sink := &StitchT{status: http.StatusCreated}
	engine := gin.New()
	engine.POST("/v2/import/push", sink.push)
	sink.server = httptest.NewServer(engine)
	return sink
}

func (sink *StitchT) URL() string {
	return sink.server.URL
}

func (sink *StitchT) Close() {
	sink.server.Close()
}

// SetStatus changes the status every following push is answered with.
func (sink *StitchT) SetStatus(status int) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.status = status
}

// Batches returns the bodies of all pushes received so far.
func (sink *StitchT) Batches() [][]byte {
	var batches [][]byte
	for _, req := range sink.Requests() {
		batches = append(batches, req.Body)
	}
	return batches
}

func (sink *StitchT) push(c *gin.Context) {
	req := sink.record(c)

	sink.mu.Lock()
	status := sink.status
	sink.mu.Unlock()

	response := []byte(`{"status":"OK"}`)
	if status < 200 || status > 299 {
		response = []byte(`{"status":"ERROR"}`)
	}
	response, _ = sjson.SetBytes(response, "message",
		fmt.Sprintf("Batch of %d records received", len(gjson.ParseBytes(req.Body).Array())))
	c.Data(status, "application/json", response)
}
