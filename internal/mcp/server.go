// Package mcp exposes the running overlay to MCP clients over stdio. Every
// tool forwards to the daemon through its IPC socket.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/orbit/internal/ipc"
	"github.com/1broseidon/orbit/internal/menu"
	"github.com/1broseidon/orbit/internal/window"
)

const (
	ServerName    = "orbit"
	ServerVersion = "0.1.0"
)

// Daemon is the IPC surface the tools need; *ipc.Client implements it.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	ListWindows() ([]window.Record, error)
	ListMenu() ([]menu.Item, error)
	OpenWindow(name string, data map[string]any) (string, error)
	MinimizeWindow(id string) error
	MaximizeWindow(id string) error
	CloseWindow(id string) error
	ResizeWindow(id string, width, height float64) error
	Notify(typ string, override bool, data map[string]any) (string, error)
	ShowMenu() error
	HideMenu() error
}

var _ Daemon = (*ipc.Client)(nil)

// Server is the MCP server for orbit.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
}

// NewServer creates an MCP server that drives daemon. A nil daemon uses
// the default IPC socket.
func NewServer(daemon Daemon) *Server {
	if daemon == nil {
		daemon = ipc.NewClient()
	}
	s := &Server{daemon: daemon}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Connect serves a single session on transport.
func (s *Server) Connect(ctx context.Context, t mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_view_state",
		Description: "Report what the overlay shows right now: ball, menu or a component window, plus pass-through, drag state and the ball position.",
	}, s.handleGetViewState)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List the overlay windows with their id, type, geometry and visibility.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_menu",
		Description: "List the floating menu entries and the window each one opens.",
	}, s.handleListMenu)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "open_window",
		Description: "Open or restore the window behind a menu entry. Accepts a menu item id, a menu item type or a window name. Returns the window id.",
	}, s.handleOpenWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "minimize_window",
		Description: "Minimize a window; the overlay collapses back to the ball.",
	}, s.handleMinimizeWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "maximize_window",
		Description: "Toggle a window between full screen and its declared size. Notification windows cannot be maximized.",
	}, s.handleMaximizeWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_window",
		Description: "Close a window and forget it.",
	}, s.handleCloseWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resize_window",
		Description: "Resize a window. The overlay keeps it inside the screen.",
	}, s.handleResizeWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "notify",
		Description: "Show a notification window of a configured type. A new window opens each time unless override is set.",
	}, s.handleNotify)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "show_menu",
		Description: "Expand the ball into the floating menu.",
	}, s.handleShowMenu)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "hide_menu",
		Description: "Collapse the floating menu back to the ball.",
	}, s.handleHideMenu)
}

func (s *Server) handleGetViewState(_ context.Context, _ *mcpsdk.CallToolRequest, _ ViewStateInput) (*mcpsdk.CallToolResult, ViewStateOutput, error) {
	st, err := s.daemon.GetStatus()
	if err != nil {
		return nil, ViewStateOutput{}, err
	}
	out := ViewStateOutput{
		Mode:           string(st.View.Mode),
		BallVisible:    st.View.Visibility.Ball,
		MenuVisible:    st.View.Visibility.Menu,
		WindowVisible:  st.View.Visibility.Window,
		Dragging:       st.View.Dragging,
		Passthrough:    st.Passthrough,
		BallX:          st.View.LastBallPosition.X,
		BallY:          st.View.LastBallPosition.Y,
		ViewportWidth:  st.Viewport.Width,
		ViewportHeight: st.Viewport.Height,
		WindowCount:    len(st.Windows),
		UptimeSeconds:  st.UptimeSeconds,
	}
	for _, m := range st.View.InTransform {
		out.InTransform = append(out.InTransform, string(m))
	}
	return nil, out, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	records, err := s.daemon.ListWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	out := ListWindowsOutput{Windows: make([]WindowInfo, 0, len(records))}
	for _, w := range records {
		if args.VisibleOnly && !w.Visible {
			continue
		}
		out.Windows = append(out.Windows, windowInfo(w))
	}
	return nil, out, nil
}

func windowInfo(w window.Record) WindowInfo {
	return WindowInfo{
		ID:        w.ID,
		Name:      w.Config.Name,
		Title:     w.Config.Title,
		Type:      string(w.Config.Type),
		Component: w.Config.Component,
		Visible:   w.Visible,
		X:         w.Position.X,
		Y:         w.Position.Y,
		Width:     w.Size.Width,
		Height:    w.Size.Height,
		ZIndex:    w.ZIndex,
	}
}

func (s *Server) handleListMenu(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListMenuInput) (*mcpsdk.CallToolResult, ListMenuOutput, error) {
	items, err := s.daemon.ListMenu()
	if err != nil {
		return nil, ListMenuOutput{}, err
	}
	out := ListMenuOutput{Items: make([]MenuItemInfo, 0, len(items))}
	for _, it := range items {
		out.Items = append(out.Items, MenuItemInfo{
			ID:      it.ID,
			Label:   it.Label,
			Type:    it.Type,
			Window:  it.Window.Name,
			Visible: it.Visible,
		})
	}
	return nil, out, nil
}

func (s *Server) handleOpenWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args OpenWindowInput) (*mcpsdk.CallToolResult, OpenWindowOutput, error) {
	if args.Name == "" {
		return nil, OpenWindowOutput{}, fmt.Errorf("name is required")
	}
	id, err := s.daemon.OpenWindow(args.Name, args.Data)
	if err != nil {
		return nil, OpenWindowOutput{}, err
	}
	return nil, OpenWindowOutput{ID: id}, nil
}

func (s *Server) handleMinimizeWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowIDInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	return s.windowCommand(args.ID, s.daemon.MinimizeWindow)
}

func (s *Server) handleMaximizeWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowIDInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	return s.windowCommand(args.ID, s.daemon.MaximizeWindow)
}

func (s *Server) handleCloseWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowIDInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	return s.windowCommand(args.ID, s.daemon.CloseWindow)
}

func (s *Server) windowCommand(id string, fn func(string) error) (*mcpsdk.CallToolResult, OKOutput, error) {
	if id == "" {
		return nil, OKOutput{}, fmt.Errorf("id is required")
	}
	if err := fn(id); err != nil {
		return nil, OKOutput{}, err
	}
	return nil, OKOutput{OK: true}, nil
}

func (s *Server) handleResizeWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args ResizeWindowInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	if args.ID == "" {
		return nil, OKOutput{}, fmt.Errorf("id is required")
	}
	if args.Width <= 0 || args.Height <= 0 {
		return nil, OKOutput{}, fmt.Errorf("width and height must be positive")
	}
	if err := s.daemon.ResizeWindow(args.ID, args.Width, args.Height); err != nil {
		return nil, OKOutput{}, err
	}
	return nil, OKOutput{OK: true}, nil
}

func (s *Server) handleNotify(_ context.Context, _ *mcpsdk.CallToolRequest, args NotifyInput) (*mcpsdk.CallToolResult, NotifyOutput, error) {
	if args.Type == "" {
		return nil, NotifyOutput{}, fmt.Errorf("type is required")
	}
	id, err := s.daemon.Notify(args.Type, args.Override, args.Data)
	if err != nil {
		return nil, NotifyOutput{}, err
	}
	return nil, NotifyOutput{ID: id}, nil
}

func (s *Server) handleShowMenu(_ context.Context, _ *mcpsdk.CallToolRequest, _ MenuInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	if err := s.daemon.ShowMenu(); err != nil {
		return nil, OKOutput{}, err
	}
	return nil, OKOutput{OK: true}, nil
}

func (s *Server) handleHideMenu(_ context.Context, _ *mcpsdk.CallToolRequest, _ MenuInput) (*mcpsdk.CallToolResult, OKOutput, error) {
	if err := s.daemon.HideMenu(); err != nil {
		return nil, OKOutput{}, err
	}
	return nil, OKOutput{OK: true}, nil
}
