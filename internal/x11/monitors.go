package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
)

// Monitor is one active RandR output, in root window coordinates.
type Monitor struct {
	ID      int
	Name    string
	X       int
	Y       int
	Width   int
	Height  int
	Primary bool
}

// GetMonitors lists the enabled CRTCs. Without RandR, or with no enabled
// CRTC, the whole root window is reported as a single primary monitor.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return c.rootMonitor()
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(c.XUtil.Conn(), c.Root).Reply(); err == nil {
		primary = reply.Output
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil || info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		m := Monitor{
			ID:     i,
			Name:   fmt.Sprintf("crtc-%d", i),
			X:      int(info.X),
			Y:      int(info.Y),
			Width:  int(info.Width),
			Height: int(info.Height),
		}
		for _, out := range info.Outputs {
			if out == primary && primary != 0 {
				m.Primary = true
			}
		}
		if out, err := randr.GetOutputInfo(c.XUtil.Conn(), info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			m.Name = string(out.Name)
		}
		monitors = append(monitors, m)
	}

	if len(monitors) == 0 {
		return c.rootMonitor()
	}
	// No primary output configured: the first CRTC stands in.
	hasPrimary := false
	for _, m := range monitors {
		hasPrimary = hasPrimary || m.Primary
	}
	if !hasPrimary {
		monitors[0].Primary = true
	}
	return monitors, nil
}

func (c *Connection) rootMonitor() ([]Monitor, error) {
	w, h, err := c.RootSize()
	if err != nil {
		return nil, err
	}
	return []Monitor{{Name: "screen", Width: w, Height: h, Primary: true}}, nil
}
