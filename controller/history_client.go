package controller

import (
	"context"

	"github.com/calvinmclean/stepcal/history"
)

type historyClient interface {
	Record(ctx context.Context, r *history.Record) (string, error)
}

type noopHistoryClient struct{}

var _ historyClient = noopHistoryClient{}

// Record implements historyClient.
func (n noopHistoryClient) Record(ctx context.Context, r *history.Record) (string, error) {
	return "", nil
}

func newHistoryClient(addr string) historyClient {
	if addr == "" {
		return noopHistoryClient{}
	}
	return history.NewClient(addr)
}
