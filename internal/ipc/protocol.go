package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/orbit/internal/menu"
	"github.com/1broseidon/orbit/internal/shell"
	"github.com/1broseidon/orbit/internal/window"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload         CommandType = "RELOAD"
	CommandGetStatus      CommandType = "GET_STATUS"
	CommandGetMonitors    CommandType = "GET_MONITORS"
	CommandListWindows    CommandType = "LIST_WINDOWS"
	CommandListMenu       CommandType = "LIST_MENU"
	CommandOpenWindow     CommandType = "OPEN_WINDOW"
	CommandMinimizeWindow CommandType = "MINIMIZE_WINDOW"
	CommandMaximizeWindow CommandType = "MAXIMIZE_WINDOW"
	CommandCloseWindow    CommandType = "CLOSE_WINDOW"
	CommandResizeWindow   CommandType = "RESIZE_WINDOW"
	CommandNotify         CommandType = "NOTIFY"
	CommandShowMenu       CommandType = "SHOW_MENU"
	CommandHideMenu       CommandType = "HIDE_MENU"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	shell.Status
	UptimeSeconds int64 `json:"uptime_seconds"`
	DaemonRunning bool  `json:"daemon_running"`
	PID           int   `json:"pid"`
}

// MonitorInfo represents information about a single monitor
type MonitorInfo struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Primary bool   `json:"primary,omitempty"`
}

// MonitorsData represents the data returned by GET_MONITORS
type MonitorsData struct {
	Monitors []MonitorInfo `json:"monitors"`
}

type WindowsData struct {
	Windows []window.Record `json:"windows"`
}

type MenuData struct {
	Items []menu.Item `json:"items"`
}

// OpenWindowPayload opens the window behind a menu item id, item type or
// window name.
type OpenWindowPayload struct {
	Name string         `json:"name"`
	Data map[string]any `json:"data,omitempty"`
}

// WindowPayload addresses one open window.
type WindowPayload struct {
	ID string `json:"id"`
}

type ResizeWindowPayload struct {
	ID     string  `json:"id"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type NotifyPayload struct {
	Type     string         `json:"type"`
	Override bool           `json:"override,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// IDData carries the id of a created window or notification.
type IDData struct {
	ID string `json:"id"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("failed to parse request: missing command")
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
