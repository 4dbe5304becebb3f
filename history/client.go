package history

import (
	"context"
	"fmt"
	"time"

	"github.com/calvinmclean/babyapi"
)

// Record is one completed calibration
type Record struct {
	// include NilResource so we don't implement Render/Bind which are not needed
	*babyapi.NilResource

	ID                 string    `json:"id,omitempty"`
	Port               string    `json:"port"`
	Trials             []uint32  `json:"trials"`
	StepsPerRevolution uint32    `json:"steps_per_revolution"`
	CalibratedAt       time.Time `json:"calibrated_at"`
}

func (r Record) GetID() string {
	return r.ID
}

// Client stores calibration records in a babyapi service
type Client struct {
	client *babyapi.Client[*Record]
}

func NewClient(addr string) *Client {
	client := babyapi.NewClient[*Record](addr, "/calibrations")
	return &Client{client: client}
}

// Record creates r and returns the ID assigned by the server
func (c *Client) Record(ctx context.Context, r *Record) (string, error) {
	resp, err := c.client.Post(ctx, r)
	if err != nil {
		return "", fmt.Errorf("error recording calibration: %w", err)
	}
	return resp.Data.GetID(), nil
}

// Get returns a stored record
func (c *Client) Get(ctx context.Context, id string) (*Record, error) {
	resp, err := c.client.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting calibration %q: %w", id, err)
	}
	return resp.Data, nil
}
