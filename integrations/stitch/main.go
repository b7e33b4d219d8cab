package stitch

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"kassette.ai/sensedata-sync/backendconfig"
	"kassette.ai/sensedata-sync/router"
	"kassette.ai/sensedata-sync/utils/logger"
)

type HandleT struct {
	BaseURL  string
	Token    string
	ClientID string
	network  *router.NetHandleT
}

func (handle *HandleT) Setup(config backendconfig.DestinationConfigT, network *router.NetHandleT) {
	handle.BaseURL = config.BaseURL
	handle.Token = config.Token
	handle.ClientID = config.ClientID
	handle.network = network
	logger.Info("Stitch destination configured", zap.String("url", handle.pushURL()))
}

func (handle *HandleT) pushURL() string {
	return handle.BaseURL + PushPath
}

// Push posts one serialized batch. The response body is logged whatever the outcome,
// a non-2xx status comes back as a *router.StatusError.
func (handle *HandleT) Push(ctx context.Context, batch []byte) (PushResultT, error) {
	if handle.network == nil {
		handle.network = &router.NetHandleT{}
	}
	resp, err := handle.network.Send(ctx, router.RequestT{
		Method: http.MethodPost,
		URL:    handle.pushURL(),
		Header: map[string]string{
			"Authorization": "Bearer " + handle.Token,
			"Content-Type":  "application/json",
		},
		Body: batch,
	})
	result := PushResultT{StatusCode: resp.StatusCode, Body: resp.Body}
	if err != nil {
		logger.Error("Stitch push failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", resp.Body),
			zap.Error(err))
		return result, fmt.Errorf("push batch to stitch: %w", err)
	}
	logger.Info("Stitch push accepted",
		zap.Int("status", resp.StatusCode),
		zap.ByteString("response", resp.Body))
	return result, nil
}
