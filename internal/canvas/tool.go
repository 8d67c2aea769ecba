package canvas

import (
	"fmt"
	"strings"
)

// Tool is the active editing tool.
type Tool int

const (
	ToolSelect Tool = iota
	ToolFrame
	ToolRect
	ToolEllipse
	ToolFreeDraw
	ToolLine
	ToolArrow
	ToolText
	ToolEraser
)

var toolNames = []string{"select", "frame", "rect", "ellipse", "freedraw", "line", "arrow", "text", "eraser"}

// Tools lists every tool in toolbar order.
func Tools() []Tool {
	out := make([]Tool, len(toolNames))
	for i := range toolNames {
		out[i] = Tool(i)
	}
	return out
}

func (t Tool) String() string {
	if int(t) >= 0 && int(t) < len(toolNames) {
		return toolNames[t]
	}
	return fmt.Sprintf("tool(%d)", int(t))
}

// ParseTool looks up a tool by name.
func ParseTool(s string) (Tool, error) {
	for i, n := range toolNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return Tool(i), nil
		}
	}
	return ToolSelect, fmt.Errorf("unknown tool %q", s)
}

// Draws reports whether the tool creates shapes with a drag.
func (t Tool) Draws() bool {
	switch t {
	case ToolFrame, ToolRect, ToolEllipse, ToolLine, ToolArrow, ToolFreeDraw:
		return true
	}
	return false
}

// Shortcut returns the single-key shortcut used by the editor window.
func (t Tool) Shortcut() rune {
	switch t {
	case ToolSelect:
		return 'v'
	case ToolFrame:
		return 'f'
	case ToolRect:
		return 'r'
	case ToolEllipse:
		return 'o'
	case ToolFreeDraw:
		return 'p'
	case ToolLine:
		return 'l'
	case ToolArrow:
		return 'a'
	case ToolText:
		return 't'
	case ToolEraser:
		return 'e'
	}
	return 0
}

// ToolForShortcut maps a key rune back to its tool.
func ToolForShortcut(r rune) (Tool, bool) {
	for _, t := range Tools() {
		if t.Shortcut() == r {
			return t, true
		}
	}
	return ToolSelect, false
}
