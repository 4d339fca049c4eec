package alarmcli

import (
	"context"

	"github.com/machtimer/machtimer/common"
)

// Version returns the daemon's build information.
func (c *Client) Version(ctx context.Context) (*common.VersionResult, error) {
	var res common.VersionResult
	if err := c.rpc.CallResult(ctx, "system.getVersion", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Shutdown asks the daemon to stop.
func (c *Client) Shutdown(ctx context.Context) error {
	var res common.EmptyResult
	return c.rpc.CallResult(ctx, "system.shutdown", nil, &res)
}

// Create schedules a new alarm.
func (c *Client) Create(ctx context.Context, p *common.CreateParams) (*common.CreateResult, error) {
	var res common.CreateResult
	if err := c.rpc.CallResult(ctx, "alarm.create", p, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Cancel disarms an alarm without removing it.
func (c *Client) Cancel(ctx context.Context, id string) error {
	var res common.EmptyResult
	return c.rpc.CallResult(ctx, "alarm.cancel", &common.IDParam{ID: id}, &res)
}

// Resume re-arms a cancelled or fired one-shot alarm.
func (c *Client) Resume(ctx context.Context, id string) error {
	var res common.EmptyResult
	return c.rpc.CallResult(ctx, "alarm.resume", &common.IDParam{ID: id}, &res)
}

// Delete disarms an alarm and removes it from the daemon.
func (c *Client) Delete(ctx context.Context, id string) error {
	var res common.EmptyResult
	return c.rpc.CallResult(ctx, "alarm.delete", &common.IDParam{ID: id}, &res)
}

// List returns all registered alarms along with the clock state.
func (c *Client) List(ctx context.Context) (*common.ListResult, error) {
	var res common.ListResult
	if err := c.rpc.CallResult(ctx, "alarm.list", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// History returns up to limit journalled firings, newest first.
func (c *Client) History(ctx context.Context, limit int) (*common.HistoryResult, error) {
	var res common.HistoryResult
	if err := c.rpc.CallResult(ctx, "alarm.history", &common.HistoryParams{Limit: limit}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
