package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"relocator/internal/relocate"
)

const (
	markOK   = "✓"
	markFail = "✗"
)

type palette struct {
	ok   *color.Color
	fail *color.Color
	warn *color.Color
	info *color.Color
}

func newPalette(colorize bool) palette {
	p := palette{
		ok:   color.New(color.FgGreen),
		fail: color.New(color.FgRed),
		warn: color.New(color.FgYellow),
		info: color.New(color.FgBlue),
	}
	for _, c := range []*color.Color{p.ok, p.fail, p.warn, p.info} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func renderResultLine(r relocate.Result, p palette) string {
	if r.Kind == relocate.KindRelocated {
		return fmt.Sprintf("%s Updated: %s (%s)", p.ok.Sprint(markOK), r.Filename, r.Provenance())
	}
	return fmt.Sprintf("%s Error: File not found: %s", p.fail.Sprint(markFail), r.SearchedPath)
}

func renderSectionHeader(title string, p palette) string {
	return p.info.Sprintf("== %s ==", title)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
