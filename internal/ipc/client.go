package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Start requests the daemon to start watching.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Weir.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop watching.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Weir.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Weir.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WatchAdd starts watching a directory.
func (c *Client) WatchAdd(path string) (*WatchAddResponse, error) {
	var resp WatchAddResponse
	if err := c.client.Call("Weir.WatchAdd", WatchAddRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WatchRemove stops watching a directory.
func (c *Client) WatchRemove(path string) (*WatchRemoveResponse, error) {
	var resp WatchRemoveResponse
	if err := c.client.Call("Weir.WatchRemove", WatchRemoveRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WatchList returns the watched directories.
func (c *Client) WatchList() (*WatchListResponse, error) {
	var resp WatchListResponse
	if err := c.client.Call("Weir.WatchList", WatchListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ItemList returns catalog items optionally filtered by status.
func (c *Client) ItemList(status string, limit int) (*ItemListResponse, error) {
	var resp ItemListResponse
	req := ItemListRequest{Status: status, Limit: limit}
	if err := c.client.Call("Weir.ItemList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ItemDescribe returns details for a single catalog item.
func (c *Client) ItemDescribe(id int64) (*ItemDescribeResponse, error) {
	var resp ItemDescribeResponse
	if err := c.client.Call("Weir.ItemDescribe", ItemDescribeRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ItemClear removes all catalog rows.
func (c *Client) ItemClear() (*ItemClearResponse, error) {
	var resp ItemClearResponse
	if err := c.client.Call("Weir.ItemClear", ItemClearRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ItemClearHandedOff removes handed-off catalog rows.
func (c *Client) ItemClearHandedOff() (*ItemClearHandedOffResponse, error) {
	var resp ItemClearHandedOffResponse
	if err := c.client.Call("Weir.ItemClearHandedOff", ItemClearHandedOffRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Weir.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
