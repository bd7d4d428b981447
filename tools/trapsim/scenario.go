package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"trapos/kernel/arch/emu"
	"trapos/multiboot"

	"gopkg.in/yaml.v3"
)

// Memory sizes reported in generated info blocks.
const (
	defaultMemLowerKB = 639
	defaultMemUpperKB = 64448
)

// Scenario describes a boot of the kernel on the emulated PC followed by a
// sequence of hardware events and the expected outcome.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// CmdLine is passed to the kernel as the multiboot command line.
	CmdLine string `yaml:"cmdline"`

	// Magic overrides the bootloader magic; defaults to the multiboot
	// value.
	Magic *Hex `yaml:"magic,omitempty"`

	// MemoryMap, when present, is handed to the kernel in a multiboot info
	// block together with CmdLine. An empty list yields a block without a
	// memory map.
	MemoryMap []MemRegion `yaml:"memory_map,omitempty"`

	Steps  []Step      `yaml:"steps"`
	Expect Expectation `yaml:"expect"`
}

// Step is a single event. Exactly one field must be set.
type Step struct {
	// Pulse raises an edge on an IRQ line.
	Pulse *Hex `yaml:"pulse,omitempty"`

	// Mask and Unmask change a controller line through the kernel.
	Mask   *Hex `yaml:"mask,omitempty"`
	Unmask *Hex `yaml:"unmask,omitempty"`

	// Key places a scan code in the keyboard controller and raises IRQ1.
	Key *Hex `yaml:"key,omitempty"`

	// Idle runs the given number of CPU idle cycles.
	Idle int `yaml:"idle,omitempty"`

	// Trap raises a CPU exception or delivers an arbitrary vector.
	Trap *TrapStep `yaml:"trap,omitempty"`
}

// TrapStep raises Vector with an optional error code and fault address.
// Vectors without an entry stub are injected straight into the trap entry.
type TrapStep struct {
	Vector    Hex `yaml:"vector"`
	ErrorCode Hex `yaml:"error_code"`
	FaultAddr Hex `yaml:"fault_addr"`
}

// MemRegion is a memory map entry. Type is one of available, reserved,
// acpi or nvs.
type MemRegion struct {
	Addr Hex    `yaml:"addr"`
	Len  Hex    `yaml:"len"`
	Type string `yaml:"type"`
}

var memRegionTypes = map[string]multiboot.MemoryEntryType{
	"available": multiboot.MemAvailable,
	"reserved":  multiboot.MemReserved,
	"acpi":      multiboot.MemAcpiReclaimable,
	"nvs":       multiboot.MemNvs,
}

// Expectation lists the checks applied once all steps ran. Unset fields
// are not checked.
type Expectation struct {
	Halted         *bool     `yaml:"halted,omitempty"`
	OutputContains []string  `yaml:"output_contains,omitempty"`
	OutputExcludes []string  `yaml:"output_excludes,omitempty"`
	Ticks          *uint64   `yaml:"ticks,omitempty"`
	EOI            *EOICount `yaml:"eoi,omitempty"`
}

// EOICount is the number of end-of-interrupt commands each controller
// received.
type EOICount struct {
	Master int `yaml:"master"`
	Slave  int `yaml:"slave"`
}

// Hex is a 32-bit number that may be written in decimal, hex (0x), octal
// (0o) or binary (0b) notation.
type Hex uint32

// UnmarshalYAML implements yaml.Unmarshaler for Hex.
func (h *Hex) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", value.Line)
	}

	v, err := strconv.ParseUint(value.Value, 0, 32)
	if err != nil {
		return fmt.Errorf("line %d: invalid number %q: %w", value.Line, value.Value, err)
	}
	*h = Hex(v)
	return nil
}

// bootInfo builds the info block for the memory map of s. It returns nil
// if the scenario boots without one.
func (s *Scenario) bootInfo() *emu.BootInfo {
	if s.MemoryMap == nil {
		return nil
	}

	regions := make([]emu.Region, 0, len(s.MemoryMap))
	for _, r := range s.MemoryMap {
		regions = append(regions, emu.Region{Addr: uint64(r.Addr), Len: uint64(r.Len), Type: memRegionTypes[r.Type]})
	}
	if len(regions) == 0 {
		regions = nil
	}

	return emu.NewBootInfo(defaultMemLowerKB, defaultMemUpperKB, regions, s.CmdLine)
}

// LoadScenario loads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario file %s: %w", path, err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &s, nil
}

// Validate checks that every step names exactly one event and that memory
// regions have a known type.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return errors.New("scenario name is required")
	}

	for i, r := range s.MemoryMap {
		if _, ok := memRegionTypes[r.Type]; !ok {
			return fmt.Errorf("memory region %d: unknown type %q", i, r.Type)
		}
	}

	for i, step := range s.Steps {
		set := 0
		for _, present := range []bool{
			step.Pulse != nil,
			step.Mask != nil,
			step.Unmask != nil,
			step.Key != nil,
			step.Idle != 0,
			step.Trap != nil,
		} {
			if present {
				set++
			}
		}

		if set != 1 {
			return fmt.Errorf("step %d: expected exactly one event; got %d", i, set)
		}
		if step.Idle < 0 {
			return fmt.Errorf("step %d: idle count must be positive", i)
		}
		for _, line := range []*Hex{step.Pulse, step.Mask, step.Unmask} {
			if line != nil && *line >= 16 {
				return fmt.Errorf("step %d: IRQ line %d out of range", i, *line)
			}
		}
		if step.Key != nil && *step.Key > 0xFF {
			return fmt.Errorf("step %d: scan code 0x%x out of range", i, uint32(*step.Key))
		}
	}

	return nil
}
