package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/orbit/internal/config"
	"github.com/1broseidon/orbit/internal/menu"
	"github.com/1broseidon/orbit/internal/notify"
	"github.com/1broseidon/orbit/internal/platform"
	"github.com/1broseidon/orbit/internal/runtimepath"
	"github.com/1broseidon/orbit/internal/shell"
	"github.com/1broseidon/orbit/internal/window"
)

// requestTimeout bounds one command, animations included.
const requestTimeout = 10 * time.Second

// Controller is the part of the running overlay the server drives.
type Controller interface {
	Status() shell.Status
	Windows() []window.Record
	MenuItems() []menu.Item
	OpenWindow(ctx context.Context, key string, data map[string]any) (string, error)
	MinimizeWindow(ctx context.Context, id string) error
	MaximizeWindow(ctx context.Context, id string) error
	CloseWindow(ctx context.Context, id string) error
	ResizeWindow(ctx context.Context, id string, width, height float64) error
	Notify(ctx context.Context, p notify.Params) (string, error)
	ShowMenu(ctx context.Context)
	HideMenu(ctx context.Context)
	Reload(cfg *config.Config) error
}

// DisplayLister reports the physical displays.
type DisplayLister interface {
	Displays() ([]platform.Display, error)
}

type ServerOptions struct {
	Controller Controller
	Displays   DisplayLister
	// Load reads the configuration for RELOAD; defaults to config.Load.
	Load func() (*config.Config, error)
	// SocketPath defaults to runtimepath.SocketPath.
	SocketPath string
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	ctrl         Controller
	displays     DisplayLister
	load         func() (*config.Config, error)
	cfg          *config.Config
	cfgMu        sync.RWMutex
	startTime    time.Time
	ctx          context.Context
	cancel       context.CancelFunc
	conns        sync.WaitGroup
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server
func NewServer(cfg *config.Config, opts ServerOptions) (*Server, error) {
	if opts.Controller == nil {
		return nil, fmt.Errorf("ipc server needs a controller")
	}
	socketPath := opts.SocketPath
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}
	load := opts.Load
	if load == nil {
		load = config.Load
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		socketPath: socketPath,
		ctrl:       opts.Controller,
		displays:   opts.Displays,
		load:       load,
		cfg:        cfg,
		startTime:  time.Now(),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string { return s.socketPath }

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection serves one JSON line request.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, requestTimeout)
	defer cancel()
	resp := s.handleCommand(ctx, req)

	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}
	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetMonitors:
		return s.handleGetMonitors()
	case CommandListWindows:
		return ok(WindowsData{Windows: s.ctrl.Windows()})
	case CommandListMenu:
		return ok(MenuData{Items: s.ctrl.MenuItems()})
	case CommandOpenWindow:
		return s.handleOpenWindow(ctx, req.Payload)
	case CommandMinimizeWindow:
		return s.handleWindow(req.Payload, func(id string) error { return s.ctrl.MinimizeWindow(ctx, id) })
	case CommandMaximizeWindow:
		return s.handleWindow(req.Payload, func(id string) error { return s.ctrl.MaximizeWindow(ctx, id) })
	case CommandCloseWindow:
		return s.handleWindow(req.Payload, func(id string) error { return s.ctrl.CloseWindow(ctx, id) })
	case CommandResizeWindow:
		return s.handleResizeWindow(ctx, req.Payload)
	case CommandNotify:
		return s.handleNotify(ctx, req.Payload)
	case CommandShowMenu:
		s.ctrl.ShowMenu(ctx)
		return ok(nil)
	case CommandHideMenu:
		s.ctrl.HideMenu(ctx)
		return ok(nil)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	newCfg, err := s.load()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	if err := s.ctrl.Reload(newCfg); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to apply config: %v", err))
	}

	s.cfgMu.Lock()
	s.cfg = newCfg
	s.cfgMu.Unlock()

	log.Println("IPC: Config reloaded successfully")
	return ok(nil)
}

func (s *Server) handleGetStatus() *Response {
	return ok(StatusData{
		Status:        s.ctrl.Status(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
		PID:           os.Getpid(),
	})
}

func (s *Server) handleGetMonitors() *Response {
	if s.displays == nil {
		return NewErrorResponse("Failed to get monitors: no display backend")
	}
	displays, err := s.displays.Displays()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get monitors: %v", err))
	}

	monitorInfos := make([]MonitorInfo, len(displays))
	for i, d := range displays {
		monitorInfos[i] = MonitorInfo{
			ID:      d.ID,
			Name:    d.Name,
			X:       d.Bounds.X,
			Y:       d.Bounds.Y,
			Width:   d.Bounds.Width,
			Height:  d.Bounds.Height,
			Primary: d.Primary,
		}
	}
	return ok(MonitorsData{Monitors: monitorInfos})
}

func (s *Server) handleOpenWindow(ctx context.Context, payload json.RawMessage) *Response {
	var req OpenWindowPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid open payload: %v", err))
	}
	if req.Name == "" {
		return NewErrorResponse("name is required")
	}
	id, err := s.ctrl.OpenWindow(ctx, req.Name, req.Data)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to open window: %v", err))
	}
	log.Printf("IPC: Opened %s as %s", req.Name, id)
	return ok(IDData{ID: id})
}

func (s *Server) handleWindow(payload json.RawMessage, fn func(id string) error) *Response {
	var req WindowPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid window payload: %v", err))
	}
	if req.ID == "" {
		return NewErrorResponse("id is required")
	}
	if err := fn(req.ID); err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(nil)
}

func (s *Server) handleResizeWindow(ctx context.Context, payload json.RawMessage) *Response {
	var req ResizeWindowPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid resize payload: %v", err))
	}
	if req.ID == "" {
		return NewErrorResponse("id is required")
	}
	if err := s.ctrl.ResizeWindow(ctx, req.ID, req.Width, req.Height); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to resize window: %v", err))
	}
	return ok(nil)
}

func (s *Server) handleNotify(ctx context.Context, payload json.RawMessage) *Response {
	var req NotifyPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid notify payload: %v", err))
	}
	if req.Type == "" {
		return NewErrorResponse("type is required")
	}
	id, err := s.ctrl.Notify(ctx, notify.Params{Type: req.Type, Override: req.Override, Data: req.Data})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(IDData{ID: id})
}

func ok(data interface{}) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop closes the listener, cancels in-flight commands and removes the
// socket.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.cancel()
	s.conns.Wait()
	os.Remove(s.socketPath)
}

// GetConfig returns the current config (thread-safe)
func (s *Server) GetConfig() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}
