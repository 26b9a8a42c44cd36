package analytics

import (
	"context"
	"fmt"

	"github.com/gamefold/gamefold-go/pkg/api"
)

const eventsPath = "/v1/analytics/events"

type batchRequest struct {
	Events []*Event `json:"events"`
}

// APISender transmits event batches over the request/response transport,
// compressing large batches.
type APISender struct {
	client *api.Client
}

func NewAPISender(client *api.Client) *APISender {
	return &APISender{client: client}
}

func (s *APISender) SendBatch(ctx context.Context, events []*Event) error {
	res, err := s.client.PostCompressed(ctx, eventsPath, batchRequest{Events: events})
	if err != nil {
		return fmt.Errorf("failed to send event batch: %v", err)
	}
	if !res.Success {
		return fmt.Errorf("backend rejected event batch: %s", res.Error.String())
	}
	return nil
}
