package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/orbit/internal/menu"
	"github.com/1broseidon/orbit/internal/runtimepath"
	"github.com/1broseidon/orbit/internal/window"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the default socket.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientWithSocket(socketPath)
}

// NewClientWithSocket creates a client for socketPath.
func NewClientWithSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    15 * time.Second,
	}
}

func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return &resp, nil
}

// call sends command with payload and decodes the response data into out
// when out is non-nil.
func (c *Client) call(command CommandType, payload any, out any) error {
	req := &Request{Command: command}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", command, err)
		}
		req.Payload = data
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", command, err)
	}
	return nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	return c.call(CommandReload, nil, nil)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetMonitors retrieves monitor information
func (c *Client) GetMonitors() (*MonitorsData, error) {
	var monitors MonitorsData
	if err := c.call(CommandGetMonitors, nil, &monitors); err != nil {
		return nil, err
	}
	return &monitors, nil
}

func (c *Client) ListWindows() ([]window.Record, error) {
	var data WindowsData
	if err := c.call(CommandListWindows, nil, &data); err != nil {
		return nil, err
	}
	return data.Windows, nil
}

func (c *Client) ListMenu() ([]menu.Item, error) {
	var data MenuData
	if err := c.call(CommandListMenu, nil, &data); err != nil {
		return nil, err
	}
	return data.Items, nil
}

// OpenWindow opens the window behind a menu item id, type or window name
// and returns its id.
func (c *Client) OpenWindow(name string, data map[string]any) (string, error) {
	var out IDData
	if err := c.call(CommandOpenWindow, OpenWindowPayload{Name: name, Data: data}, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) MinimizeWindow(id string) error {
	return c.call(CommandMinimizeWindow, WindowPayload{ID: id}, nil)
}

func (c *Client) MaximizeWindow(id string) error {
	return c.call(CommandMaximizeWindow, WindowPayload{ID: id}, nil)
}

func (c *Client) CloseWindow(id string) error {
	return c.call(CommandCloseWindow, WindowPayload{ID: id}, nil)
}

func (c *Client) ResizeWindow(id string, width, height float64) error {
	return c.call(CommandResizeWindow, ResizeWindowPayload{ID: id, Width: width, Height: height}, nil)
}

// Notify delivers a notification and returns its id.
func (c *Client) Notify(typ string, override bool, data map[string]any) (string, error) {
	var out IDData
	if err := c.call(CommandNotify, NotifyPayload{Type: typ, Override: override, Data: data}, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) ShowMenu() error { return c.call(CommandShowMenu, nil, nil) }
func (c *Client) HideMenu() error { return c.call(CommandHideMenu, nil, nil) }

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
