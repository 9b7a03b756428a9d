package tui

import (
	"fmt"
	"strings"
)

// ANSI escape codes
const (
	escClear      = "\x1b[2J"
	escHome       = "\x1b[H"
	escHideCursor = "\x1b[?25l"
	escShowCursor = "\x1b[?25h"
	escBold       = "\x1b[1m"
	escDim        = "\x1b[2m"
	escReset      = "\x1b[0m"
	escReverse    = "\x1b[7m"
	escCyan       = "\x1b[36m"
	escYellow     = "\x1b[33m"
	escRed        = "\x1b[31m"
	escGreen      = "\x1b[32m"
)

// render draws a full frame for the current terminal size.
func (t *TUI) render() string {
	var sb strings.Builder
	sb.WriteString(escHideCursor)
	sb.WriteString(escReset)
	sb.WriteString(escClear)
	sb.WriteString(escHome)

	const (
		sepWidth     = 3 // " │ "
		maxListWidth = 30
		minListWidth = 12
		headerLines  = 2
		footerLines  = 3
	)

	width := t.width
	height := t.height
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	listWidth := width / 3
	if listWidth > maxListWidth {
		listWidth = maxListWidth
	}
	if listWidth < minListWidth {
		listWidth = minListWidth
	}
	detailWidth := width - listWidth - sepWidth
	if detailWidth < 1 {
		detailWidth = 1
	}
	bodyHeight := height - headerLines - footerLines
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	sb.WriteString(escBold)
	sb.WriteString(escCyan)
	sb.WriteString(centerText("orbit", width))
	sb.WriteString(escReset)
	sb.WriteString("\r\n")
	sb.WriteString(strings.Repeat("─", width))
	sb.WriteString("\r\n")

	left := t.renderMenuList(listWidth, bodyHeight)
	right := t.renderDetail(detailWidth, bodyHeight)
	for i := 0; i < bodyHeight; i++ {
		if i < len(left) {
			sb.WriteString(left[i])
		} else {
			sb.WriteString(strings.Repeat(" ", listWidth))
		}
		sb.WriteString(" │ ")
		if i < len(right) {
			sb.WriteString(right[i])
		}
		sb.WriteString("\r\n")
	}

	sb.WriteString(strings.Repeat("─", width))
	sb.WriteString("\r\n")
	sb.WriteString(truncateANSI(t.renderStatus(), width))
	sb.WriteString("\r\n")
	sb.WriteString(truncateANSI(t.renderFooter(), width))
	return sb.String()
}

func (t *TUI) renderMenuList(width, height int) []string {
	lines := make([]string, 0, height)
	title := "Menu"
	if t.focus == focusMenu {
		title = escBold + title + escReset
	}
	lines = append(lines, padRight(title, width))

	if t.status == nil || len(t.status.Menu) == 0 {
		lines = append(lines, padRight(escDim+"(no items)"+escReset, width))
		return lines
	}
	for i, it := range t.status.Menu {
		if len(lines) >= height {
			break
		}
		prefix := "  "
		if !it.Visible {
			prefix = escDim + "- " + escReset
		}
		name := it.Label
		if name == "" {
			name = it.ID
		}
		if len(name) > width-4 && width > 7 {
			name = name[:width-7] + "..."
		}
		line := prefix + name
		if t.focus == focusMenu && i == t.menuIndex {
			line = escReverse + prefix + name + escReset
		}
		lines = append(lines, padRight(line, width))
	}
	return lines
}

func (t *TUI) renderDetail(width, height int) []string {
	lines := make([]string, 0, height)
	if t.status == nil {
		lines = append(lines, escDim+"daemon not reachable"+escReset)
		return lines
	}
	st := t.status
	v := st.View
	lines = append(lines, truncateANSI(fmt.Sprintf("%sView:%s %s%s%s  ball at %.0f,%.0f  viewport %.0fx%.0f",
		escBold, escReset, escCyan, v.Mode, escReset,
		v.LastBallPosition.X, v.LastBallPosition.Y,
		st.Viewport.Width, st.Viewport.Height), width))

	flags := []string{}
	if st.Passthrough {
		flags = append(flags, "pass-through")
	}
	if v.Dragging {
		flags = append(flags, escYellow+"dragging"+escReset)
	}
	for _, m := range v.InTransform {
		flags = append(flags, "→"+string(m))
	}
	if len(flags) > 0 {
		lines = append(lines, truncateANSI(strings.Join(flags, "  "), width))
	}
	lines = append(lines, "")

	title := fmt.Sprintf("Windows (%d)", len(st.Windows))
	if t.focus == focusWindows {
		title = escBold + title + escReset
	}
	lines = append(lines, title)
	for i, w := range st.Windows {
		if len(lines) >= height {
			break
		}
		state := escDim + "hidden" + escReset
		if w.Visible {
			state = escGreen + "shown" + escReset
		}
		line := fmt.Sprintf("%s  %-12s %-12s %4.0fx%-4.0f %s",
			w.ID, w.Config.Name, w.Config.Type, w.Size.Width, w.Size.Height, state)
		if t.focus == focusWindows && i == t.winIndex {
			line = escReverse + line + escReset
		}
		lines = append(lines, truncateANSI(line, width))
	}
	if n := len(st.Notifications); n > 0 && len(lines) < height {
		last := st.Notifications[n-1]
		lines = append(lines, "", truncateANSI(fmt.Sprintf("%sLast notification:%s %s (%s)", escDim, escReset, last.Type, last.ID), width))
	}
	return lines
}

func (t *TUI) renderStatus() string {
	if t.lastError != "" {
		return fmt.Sprintf("%sError: %s%s", escRed, t.lastError, escReset)
	}
	if t.lastAction != "" {
		return escGreen + t.lastAction + escReset
	}
	if t.status == nil {
		return escDim + "Waiting for daemon" + escReset
	}
	return fmt.Sprintf("Uptime: %s%ds%s  |  PID: %d", escYellow, t.status.UptimeSeconds, escReset, t.status.PID)
}

func (t *TUI) renderFooter() string {
	keys := []string{
		"j/k:nav", "tab:focus", "enter:open", "m/x/c:min/max/close", "s/h:menu", "e:edit", "r:reload", "q:quit",
	}
	return escDim + strings.Join(keys, "  ") + escReset
}

func centerText(text string, width int) string {
	visibleLen := visibleLength(text)
	if visibleLen >= width {
		return text
	}
	padding := (width - visibleLen) / 2
	return strings.Repeat(" ", padding) + text
}

func padRight(text string, width int) string {
	visibleLen := visibleLength(text)
	if visibleLen >= width {
		return text
	}
	return text + strings.Repeat(" ", width-visibleLen)
}

// visibleLength returns the visible length of a string, ignoring ANSI codes.
func visibleLength(s string) int {
	inEscape := false
	length := 0
	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
			continue
		}
		length++
	}
	return length
}

func truncateANSI(text string, width int) string {
	if width < 1 {
		return ""
	}
	if visibleLength(text) <= width {
		return text
	}

	var sb strings.Builder
	inEscape := false
	visible := 0
	for _, r := range text {
		if r == '\x1b' {
			inEscape = true
			sb.WriteRune(r)
			continue
		}
		if inEscape {
			sb.WriteRune(r)
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
			continue
		}

		if visible >= width-1 {
			break
		}
		sb.WriteRune(r)
		visible++
	}

	sb.WriteString("…")
	sb.WriteString(escReset)
	return sb.String()
}
