// trapsim boots the kernel on the emulated PC, replays YAML scenarios of
// interrupts and faults against it and checks the outcome.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"
)

var (
	styleWarn  = ansi.Style{}.ForegroundColor(ansi.Yellow)
	styleFatal = ansi.Style{}.Bold().ForegroundColor(ansi.Red)
	stylePass  = ansi.Style{}.Bold().ForegroundColor(ansi.Green)
	styleFail  = ansi.Style{}.Bold().ForegroundColor(ansi.Red)
	styleInfo  = ansi.Style{}.Faint()
)

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[trapsim] error: %s\n", err.Error())
	os.Exit(1)
}

// useColor resolves the -color flag for w.
func useColor(mode string, w *os.File) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		if os.Getenv("NO_COLOR") != "" {
			return false, nil
		}
		return term.IsTerminal(int(w.Fd())), nil
	default:
		return false, fmt.Errorf("invalid -color value %q (want auto, always or never)", mode)
	}
}

// highlight picks a style for a kernel log line.
func highlight(line string) (ansi.Style, bool) {
	switch {
	case strings.Contains(line, "[EXC]"),
		strings.Contains(line, "unrecoverable error"),
		strings.Contains(line, "kernel panic"):
		return styleFatal, true
	case strings.Contains(line, "[WARN]"):
		return styleWarn, true
	case strings.HasPrefix(line, "[TICK]"), strings.HasPrefix(line, "[KBD]"):
		return styleInfo, true
	}
	return nil, false
}

// printResult writes the kernel console and the verdict for res to w.
func printResult(w io.Writer, res *Result, color bool, quiet bool) {
	if !quiet {
		for _, line := range strings.SplitAfter(res.Console, "\n") {
			if line == "" {
				continue
			}
			if style, ok := highlight(line); ok && color {
				line = style.Styled(strings.TrimSuffix(line, "\n")) + "\n"
			}
			io.WriteString(w, line)
		}
		if !strings.HasSuffix(res.Console, "\n") && res.Console != "" {
			io.WriteString(w, "\n")
		}
	}

	verdict, style := "PASS", stylePass
	if !res.Passed() {
		verdict, style = "FAIL", styleFail
	}
	if color {
		verdict = style.Styled(verdict)
	}

	fmt.Fprintf(w, "%s %s (halted=%t ticks=%d eoi=%d/%d)\n",
		verdict, res.Scenario.Name, res.Halted, res.Ticks, res.MasterEOI, res.SlaveEOI)
	for _, failure := range res.Failures {
		fmt.Fprintf(w, "  - %s\n", failure)
	}
}

func main() {
	var (
		scenario  = flag.String("scenario", "", "path to a YAML scenario file")
		colorMode = flag.String("color", "auto", "colorize output: auto, always or never")
		quiet     = flag.Bool("quiet", false, "only print the verdict of each scenario")
	)
	flag.Parse()

	paths := flag.Args()
	if *scenario != "" {
		paths = append([]string{*scenario}, paths...)
	}
	if len(paths) == 0 {
		exit(errors.New("no scenario specified; use -scenario or pass scenario files as arguments"))
	}

	color, err := useColor(*colorMode, os.Stdout)
	if err != nil {
		exit(err)
	}

	var failed int
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			exit(err)
		}

		res := Run(s)
		printResult(os.Stdout, res, color, *quiet)
		if !res.Passed() {
			failed++
		}
	}

	if failed != 0 {
		exit(fmt.Errorf("%d of %d scenario(s) failed", failed, len(paths)))
	}
}
