package main

import (
	"fmt"
	"os"
	"strings"
)

// progressView is the --ui choice between the live progress view and the
// plain progress log.
type progressView uint8

const (
	viewAuto progressView = iota
	viewOn
	viewOff
)

var viewNames = map[string]progressView{"": viewAuto, "auto": viewAuto, "on": viewOn, "off": viewOff}

func parseProgressView(value string) (progressView, error) {
	if v, ok := viewNames[strings.ToLower(strings.TrimSpace(value))]; ok {
		return v, nil
	}
	return viewAuto, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

// live reports whether the view runs. It draws on stderr, so in auto mode
// stderr has to be a terminal that can redraw.
func (v progressView) live(stderr *os.File) bool {
	switch v {
	case viewOn:
		return true
	case viewOff:
		return false
	}
	return isTerminal(stderr) && os.Getenv("TERM") != "dumb"
}
