package notify

import "github.com/1broseidon/orbit/internal/window"

// Builtin returns the default notification types.
func Builtin() []Kind {
	panel := func(name, title, component string, w, h float64) window.WindowConfig {
		resizable := false
		hidden := false
		return window.WindowConfig{
			Name:      name,
			Title:     title,
			Component: component,
			Type:      window.NotificationWindow,
			Layout:    &window.Layout{Width: w, Height: h, Resizable: &resizable},
			Toolbar:   &window.Toolbar{Show: &hidden},
		}
	}
	return []Kind{
		{Type: "todo_reminder", Label: "Todo reminder", Window: panel("TodoReminderTab", "Todo reminder", "todo-reminder", 360, 170)},
		{Type: "meeting", Label: "Meeting", Window: panel("MeetingDialog", "Meeting", "meeting", 360, 170)},
		{Type: "meeting_end", Label: "Meeting ended", Window: panel("MeetingEndDialog", "Stop recording", "meeting-end", 330, 150)},
	}
}
