package alarmcli

import (
	"context"
	"net"
	"testing"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/creachadair/jrpc2/handler"

	"github.com/machtimer/machtimer/common"
)

// newTestPair wires a Client to an in-process jrpc2 server over a pipe.
func newTestPair(t *testing.T, methods handler.Map) *Client {
	t.Helper()
	clientConn, serverConn := net.Pipe()

	srv := jrpc2.NewServer(methods, nil)
	srv.Start(channel.Line(serverConn, serverConn))
	t.Cleanup(func() {
		srv.Stop()
		serverConn.Close()
	})

	c := newClientConn(clientConn)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestVersion(t *testing.T) {
	c := newTestPair(t, handler.Map{
		"system.getVersion": handler.New(func(_ context.Context) (*common.VersionResult, error) {
			return &common.VersionResult{Version: "9.9.9", Commit: "deadbeef"}, nil
		}),
	})

	res, err := c.Version(context.Background())
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if res.Version != "9.9.9" || res.Commit != "deadbeef" {
		t.Errorf("unexpected version result: %+v", res)
	}
}

func TestCreatePassesParams(t *testing.T) {
	var got common.CreateParams
	c := newTestPair(t, handler.Map{
		"alarm.create": handler.New(func(_ context.Context, p *common.CreateParams) (*common.CreateResult, error) {
			got = *p
			return &common.CreateResult{ID: "abcd1234", Interval: 4000}, nil
		}),
	})

	res, err := c.Create(context.Background(), &common.CreateParams{
		Label:    "kettle",
		Millis:   100,
		Periodic: true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.ID != "abcd1234" {
		t.Errorf("id = %q, want abcd1234", res.ID)
	}
	if got.Label != "kettle" || got.Millis != 100 || !got.Periodic {
		t.Errorf("server saw params %+v", got)
	}
}

func TestCancelPropagatesRPCError(t *testing.T) {
	c := newTestPair(t, handler.Map{
		"alarm.cancel": handler.New(func(_ context.Context, p *common.IDParam) (*common.EmptyResult, error) {
			return nil, &jrpc2.Error{Code: jrpc2.Code(-32003), Message: "no alarm with id " + p.ID}
		}),
	})

	err := c.Cancel(context.Background(), "nope")
	if err == nil {
		t.Fatal("expected an error for an unknown id")
	}
	rpcErr, ok := err.(*jrpc2.Error)
	if !ok {
		t.Fatalf("got %T, want *jrpc2.Error", err)
	}
	if rpcErr.Code != jrpc2.Code(-32003) {
		t.Errorf("code = %d, want -32003", rpcErr.Code)
	}
}

func TestListAndHistory(t *testing.T) {
	c := newTestPair(t, handler.Map{
		"alarm.list": handler.New(func(_ context.Context) (*common.ListResult, error) {
			return &common.ListResult{
				Now:  42,
				Freq: 1_000_000,
				Alarms: []*common.AlarmInfo{
					{ID: "a", State: common.StateArmed, Deadline: 100},
				},
			}, nil
		}),
		"alarm.history": handler.New(func(_ context.Context, p *common.HistoryParams) (*common.HistoryResult, error) {
			if p.Limit != 7 {
				t.Errorf("limit = %d, want 7", p.Limit)
			}
			return &common.HistoryResult{Entries: []*common.HistoryEntry{{ID: "a"}}}, nil
		}),
	})

	list, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list.Now != 42 || len(list.Alarms) != 1 || list.Alarms[0].ID != "a" {
		t.Errorf("unexpected list result: %+v", list)
	}

	hist, err := c.History(context.Background(), 7)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist.Entries) != 1 {
		t.Errorf("history entries = %d, want 1", len(hist.Entries))
	}
}
