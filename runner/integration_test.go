package runner_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/tidwall/gjson"

	"kassette.ai/sensedata-sync/backendconfig"
	"kassette.ai/sensedata-sync/integrations/stitch"
	"kassette.ai/sensedata-sync/processor"
	"kassette.ai/sensedata-sync/router"
	"kassette.ai/sensedata-sync/runner"
	"kassette.ai/sensedata-sync/sources"
	"kassette.ai/sensedata-sync/sources/sensedata"
	"kassette.ai/sensedata-sync/testsink"
)

var _ = Describe("Sync against fake APIs", func() {
	var (
		sensedataSink *testsink.SensedataT
		stitchSink    *testsink.StitchT
		handle        *runner.HandleT
	)

	BeforeEach(func() {
		sensedataSink = testsink.NewSensedata()
		stitchSink = testsink.NewStitch()

		network := &router.NetHandleT{}
		network.Setup(5 * time.Second)

		source := &sensedata.HandleT{}
		source.Setup(backendconfig.SourceConfigT{BaseURL: sensedataSink.URL(), Token: "sense-token", PageSize: 2}, network)
		destination := &stitch.HandleT{}
		destination.Setup(backendconfig.DestinationConfigT{BaseURL: stitchSink.URL(), Token: "stitch-token", ClientID: "1234"}, network)
		transformer := &processor.TransformerHandleT{ClientID: "1234", Now: func() time.Time { return time.Unix(1600000000, 0) }}

		handle = &runner.HandleT{}
		handle.SetSleep(func(context.Context, time.Duration) error { return nil })
		handle.Setup(backendconfig.SyncConfigT{Entities: sources.DefaultEntities, PageCap: 10}, source, transformer, destination, nil)

		sensedataSink.AddPage(sources.Contacts,
			json.RawMessage(`{"id":16,"id_legacy":"0006","customer":{"id":2,"id_legacy":"L0001","group":"G","name_contract":"A SA","name":"A","cnpj":"1"},"is_main_sponsor":true,"is_active":true,"name":"John","nickname":"JJ","email":"j@x.com","occupation":"Gerente","types":[{"id":1,"name":"Viewer"}],"phone":"1","phone2":"2","address":"Rua","skype":"s","email_unsubscribe":false,"unsubscribe_reason":"","is_favorite":false,"obs_info":""}`))
		sensedataSink.AddPage(sources.Nps,
			json.RawMessage(`{"id":1,"id_legacy":"internal-tes","id_customer":277,"ref_date":"","survey_date":"","medium":"tes@gmail.com","respondent":"test","score":7,"role":"SUPER_ADMIN","stage":"","group":"","category":"","nps_status":"neutral","comments":"","tags":"","created_at":"","updated_at":""}`),
			json.RawMessage(`{"id":2,"id_legacy":null,"id_customer":278,"ref_date":"","survey_date":"","medium":"","respondent":"","score":10,"role":"","stage":"","group":"","category":"","nps_status":"promoter","comments":"","tags":"","created_at":"","updated_at":""}`))
	})

	AfterEach(func() {
		sensedataSink.Close()
		stitchSink.Close()
	})

	It("republishes every page as a Stitch batch", func() {
		summary, err := handle.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Entities).To(HaveLen(4))

		batches := stitchSink.Batches()
		Expect(batches).To(HaveLen(2))

		contacts := gjson.ParseBytes(batches[0])
		Expect(contacts.Get("0.table_name").String()).To(Equal("contacts"))
		Expect(contacts.Get("0.data.types_name").String()).To(Equal("Viewer"))
		Expect(contacts.Get("0.data.customer_id").Int()).To(Equal(int64(2)))

		nps := gjson.ParseBytes(batches[1])
		Expect(nps.Array()).To(HaveLen(2))
		Expect(nps.Get("1.action").String()).To(Equal("upsert"))
		Expect(nps.Get("1.client_id").String()).To(Equal("1234"))
		Expect(nps.Get("1.sequence").Int()).To(Equal(int64(1600000000)))
		Expect(nps.Get("1.data.id_legacy").Type).To(Equal(gjson.Null))
		Expect(nps.Get("1.key_names").Raw).To(Equal(`["id"]`))

		requested := sensedataSink.Requests()
		Expect(requested[0].Query).To(HaveKeyWithValue("limit", "2"))
		Expect(requested).To(HaveLen(6))
	})

	It("halts on a source 404 before pushing that or later entities", func() {
		sensedataSink.Fail(sources.Customers, http.StatusNotFound)

		_, err := handle.Run(context.Background())
		Expect(err).To(HaveOccurred())

		var statusErr *router.StatusError
		Expect(errors.As(err, &statusErr)).To(BeTrue())
		Expect(statusErr.StatusCode).To(Equal(http.StatusNotFound))

		Expect(stitchSink.Batches()).To(HaveLen(1))
		for _, req := range sensedataSink.Requests() {
			Expect(req.Path).NotTo(Equal("/v2/nps"))
			Expect(req.Path).NotTo(Equal("/v2/tasks"))
		}
	})

	It("halts when Stitch rejects a batch", func() {
		stitchSink.SetStatus(http.StatusUnprocessableEntity)

		_, err := handle.Run(context.Background())
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("HTTP 422"))
		Expect(sensedataSink.Requests()).To(HaveLen(1))
	})
})
