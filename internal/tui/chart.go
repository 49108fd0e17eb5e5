package tui

import (
	"fmt"
	"strings"
)

type chartPoint struct {
	Label string
	Value float64
}

type barChart struct {
	Title string
	Data  []chartPoint
}

func (c barChart) Render(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	if len(c.Data) == 0 {
		return c.Title + "\n(no data)"
	}
	maxV := 0.0
	for _, p := range c.Data {
		if p.Value > maxV {
			maxV = p.Value
		}
	}
	if maxV <= 0 {
		maxV = 1
	}
	lines := []string{c.Title}
	for _, p := range c.Data {
		w := int((p.Value / maxV) * float64(maxInt(1, width-28)))
		if w < 1 {
			w = 1
		}
		lines = append(lines, fmt.Sprintf("%-16s %10.2f %s", truncate(p.Label, 16), p.Value, strings.Repeat("█", w)))
		if len(lines) >= height {
			break
		}
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
