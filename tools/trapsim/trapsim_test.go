package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"gopkg.in/yaml.v3"
)

func TestScenarios(t *testing.T) {
	specs := []struct {
		file      string
		expHalted bool
		expSteps  int
	}{
		{"timer.yaml", false, 1},
		{"page_fault.yaml", true, 1},
		{"unknown_vector.yaml", false, 2},
		{"unhandled_irq.yaml", false, 4},
		{"bad_magic.yaml", true, 0},
		{"memory_map.yaml", false, 1},
		{"no_usable_memory.yaml", true, 0},
	}

	for specIndex, spec := range specs {
		s, err := LoadScenario(filepath.Join("testdata", spec.file))
		if err != nil {
			t.Errorf("[spec %d] unexpected error: %v", specIndex, err)
			continue
		}

		res := Run(s)
		if !res.Passed() {
			t.Errorf("[spec %d] scenario %s failed: %v\nconsole:\n%s", specIndex, s.Name, res.Failures, res.Console)
		}
		if res.Halted != spec.expHalted {
			t.Errorf("[spec %d] expected halted=%t; got %t", specIndex, spec.expHalted, res.Halted)
		}
		if res.StepsApplied != spec.expSteps {
			t.Errorf("[spec %d] expected %d applied steps; got %d", specIndex, spec.expSteps, res.StepsApplied)
		}
	}
}

func TestFailedExpectations(t *testing.T) {
	halted := true
	ticks := uint64(3)
	s := &Scenario{
		Name:    "wrong",
		CmdLine: "notimer nokbd",
		Expect: Expectation{
			Halted:         &halted,
			Ticks:          &ticks,
			OutputContains: []string{"no such line"},
			OutputExcludes: []string{"[MB] magic OK"},
			EOI:            &EOICount{Master: 1},
		},
	}

	res := Run(s)
	if exp, got := 5, len(res.Failures); got != exp {
		t.Fatalf("expected %d failures; got %d: %v", exp, got, res.Failures)
	}
}

func TestEmptyMemoryMap(t *testing.T) {
	s := &Scenario{
		Name:      "empty-map",
		CmdLine:   "notimer nokbd",
		MemoryMap: []MemRegion{},
	}

	res := Run(s)
	if !res.Halted {
		t.Fatalf("expected an info block without a memory map to halt the boot; console:\n%s", res.Console)
	}
	if !strings.Contains(res.Console, "[MB] memory map not available\n") {
		t.Fatalf("expected the missing memory map to be logged; console:\n%s", res.Console)
	}
}

func TestLoadScenarioErrors(t *testing.T) {
	specs := []struct {
		file   string
		expErr string
	}{
		{"invalid_step.yaml", "step 0: expected exactly one event; got 2"},
		{"missing.yaml", "reading scenario file"},
	}

	for specIndex, spec := range specs {
		_, err := LoadScenario(filepath.Join("testdata", spec.file))
		if err == nil || !strings.Contains(err.Error(), spec.expErr) {
			t.Errorf("[spec %d] expected error containing %q; got %v", specIndex, spec.expErr, err)
		}
	}
}

func TestValidate(t *testing.T) {
	specs := []struct {
		doc    string
		expErr string
	}{
		{"steps: []", "scenario name is required"},
		{"name: x\nsteps: [{pulse: 16}]", "IRQ line 16 out of range"},
		{"name: x\nsteps: [{unmask: 0x10}]", "IRQ line 16 out of range"},
		{"name: x\nsteps: [{key: 0x100}]", "scan code 0x100 out of range"},
		{"name: x\nsteps: [{idle: -1}]", "idle count must be positive"},
		{"name: x\nsteps: [{}]", "expected exactly one event; got 0"},
		{"name: x\nmemory_map: [{addr: 0, len: 0x1000, type: ram}]", `memory region 0: unknown type "ram"`},
		{"name: x\nsteps: [{pulse: 15}, {idle: 2}, {trap: {vector: 0xff}}]", ""},
		{"name: x\nmemory_map: [{addr: 0x100000, len: 0x1000, type: nvs}]", ""},
	}

	for specIndex, spec := range specs {
		var s Scenario
		if err := yaml.Unmarshal([]byte(spec.doc), &s); err != nil {
			t.Errorf("[spec %d] unexpected parse error: %v", specIndex, err)
			continue
		}

		err := s.Validate()
		switch {
		case spec.expErr == "" && err != nil:
			t.Errorf("[spec %d] unexpected error: %v", specIndex, err)
		case spec.expErr != "" && (err == nil || !strings.Contains(err.Error(), spec.expErr)):
			t.Errorf("[spec %d] expected error containing %q; got %v", specIndex, spec.expErr, err)
		}
	}
}

func TestHexUnmarshal(t *testing.T) {
	specs := []struct {
		doc    string
		exp    Hex
		expErr bool
	}{
		{"v: 14", 14, false},
		{"v: 0x2BADB002", 0x2BADB002, false},
		{"v: 0b10001", 0x11, false},
		{"v: 0o17", 15, false},
		{`v: "0x20"`, 0x20, false},
		{"v: 0x100000000", 0, true},
		{"v: -1", 0, true},
		{"v: [1]", 0, true},
	}

	for specIndex, spec := range specs {
		var doc struct {
			V Hex `yaml:"v"`
		}

		err := yaml.Unmarshal([]byte(spec.doc), &doc)
		if gotErr := err != nil; gotErr != spec.expErr {
			t.Errorf("[spec %d] expected error: %t; got %v", specIndex, spec.expErr, err)
			continue
		}
		if !spec.expErr && doc.V != spec.exp {
			t.Errorf("[spec %d] expected 0x%x; got 0x%x", specIndex, uint32(spec.exp), uint32(doc.V))
		}
	}
}

func TestPrintResult(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "page_fault.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	res := Run(s)

	var plain, colored bytes.Buffer
	printResult(&plain, res, false, false)
	printResult(&colored, res, true, false)

	if plain.String() == colored.String() {
		t.Fatal("expected colored output to differ from plain output")
	}
	if got := ansi.Strip(colored.String()); got != plain.String() {
		t.Fatalf("expected stripped colored output to match plain output;\nplain:\n%s\nstripped:\n%s", plain.String(), got)
	}
	if !strings.Contains(plain.String(), "PASS page-fault (halted=true") {
		t.Fatalf("expected a PASS verdict; got:\n%s", plain.String())
	}

	var quiet bytes.Buffer
	printResult(&quiet, res, false, true)
	if strings.Count(quiet.String(), "\n") != 1 {
		t.Fatalf("expected quiet mode to print the verdict only; got:\n%s", quiet.String())
	}
}

func TestUseColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	specs := []struct {
		mode   string
		exp    bool
		expErr bool
	}{
		{"always", true, false},
		{"never", false, false},
		{"auto", false, false},
		{"sometimes", false, true},
	}

	for specIndex, spec := range specs {
		got, err := useColor(spec.mode, nil)
		if (err != nil) != spec.expErr || got != spec.exp {
			t.Errorf("[spec %d] expected (%t, error: %t); got (%t, %v)", specIndex, spec.exp, spec.expErr, got, err)
		}
	}
}
