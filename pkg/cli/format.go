// Package cli provides shared formatting helpers for the vdchost
// command-line tools (serve, show, settings).
package cli

import "strings"

// ANSI color helpers

func Green(s string) string  { return "\033[32m" + s + "\033[0m" }
func Yellow(s string) string { return "\033[33m" + s + "\033[0m" }
func Red(s string) string    { return "\033[31m" + s + "\033[0m" }
func Bold(s string) string   { return "\033[1m" + s + "\033[0m" }
func Dim(s string) string    { return "\033[2m" + s + "\033[0m" }

// DotPad pads name with dots to the given width.
// Example: DotPad("boot-ssh", 30) → "boot-ssh ....................."
func DotPad(name string, width int) string {
	if width <= 0 || len(name) >= width-1 {
		return name
	}
	dots := width - len(name) - 1
	return name + " " + strings.Repeat(".", dots)
}

// ZoneLabel renders a device/connector's optional zone assignment for
// "show" output: dimmed placeholder when unset, plain text otherwise.
func ZoneLabel(zone *string) string {
	if zone == nil || *zone == "" {
		return Dim("-")
	}
	return *zone
}

// AnnouncedLabel renders a device's announced-to-controller state
// (spec.md §4.2) as a colored yes/no for "show" output.
func AnnouncedLabel(announced bool) string {
	if announced {
		return Green("yes")
	}
	return Dim("no")
}
