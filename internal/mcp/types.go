package mcp

// ViewStateInput is the input for the get_view_state tool.
type ViewStateInput struct{}

// ViewStateOutput is the output for the get_view_state tool.
type ViewStateOutput struct {
	Mode           string   `json:"mode"`
	InTransform    []string `json:"in_transform,omitempty"`
	BallVisible    bool     `json:"ball_visible"`
	MenuVisible    bool     `json:"menu_visible"`
	WindowVisible  bool     `json:"window_visible"`
	Dragging       bool     `json:"dragging"`
	Passthrough    bool     `json:"passthrough"`
	BallX          float64  `json:"ball_x"`
	BallY          float64  `json:"ball_y"`
	ViewportWidth  float64  `json:"viewport_width"`
	ViewportHeight float64  `json:"viewport_height"`
	WindowCount    int      `json:"window_count"`
	UptimeSeconds  int64    `json:"uptime_seconds"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	VisibleOnly bool `json:"visible_only,omitempty" jsonschema:"Only list windows that are currently shown"`
}

// WindowInfo describes one window.
type WindowInfo struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Title     string  `json:"title,omitempty"`
	Type      string  `json:"type"`
	Component string  `json:"component,omitempty"`
	Visible   bool    `json:"visible"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	ZIndex    int     `json:"z_index"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []WindowInfo `json:"windows"`
}

// ListMenuInput is the input for the list_menu tool.
type ListMenuInput struct{}

// MenuItemInfo describes one menu entry.
type MenuItemInfo struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Type    string `json:"type,omitempty"`
	Window  string `json:"window"`
	Visible bool   `json:"visible"`
}

// ListMenuOutput is the output for the list_menu tool.
type ListMenuOutput struct {
	Items []MenuItemInfo `json:"items"`
}

// OpenWindowInput is the input for the open_window tool.
type OpenWindowInput struct {
	Name string         `json:"name" jsonschema:"required,Menu item id, menu item type or window name (e.g. ball-quick-chat, chat, ChatWithMe)"`
	Data map[string]any `json:"data,omitempty" jsonschema:"Props handed to the window's component"`
}

// OpenWindowOutput is the output for the open_window tool.
type OpenWindowOutput struct {
	ID string `json:"id"`
}

// WindowIDInput addresses one window.
type WindowIDInput struct {
	ID string `json:"id" jsonschema:"required,Window id as returned by open_window or list_windows"`
}

// ResizeWindowInput is the input for the resize_window tool.
type ResizeWindowInput struct {
	ID     string  `json:"id" jsonschema:"required,Window id"`
	Width  float64 `json:"width" jsonschema:"required,New width in pixels"`
	Height float64 `json:"height" jsonschema:"required,New height in pixels"`
}

// NotifyInput is the input for the notify tool.
type NotifyInput struct {
	Type     string         `json:"type" jsonschema:"required,Notification type (e.g. todo_reminder, meeting, meeting_end)"`
	Override bool           `json:"override,omitempty" jsonschema:"Reuse an existing window of the same type instead of opening another"`
	Data     map[string]any `json:"data,omitempty" jsonschema:"Props handed to the notification component"`
}

// NotifyOutput is the output for the notify tool.
type NotifyOutput struct {
	ID string `json:"id"`
}

// MenuInput is the input for show_menu and hide_menu.
type MenuInput struct{}

// OKOutput acknowledges a command with no other result.
type OKOutput struct {
	OK bool `json:"ok"`
}
