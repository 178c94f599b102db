package regmap

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ssbringup/bringup-go/pkg/regport"
)

// RawMap is the YAML form of a register map.
type RawMap struct {
	Name   string     `yaml:"name"`
	Blocks []RawBlock `yaml:"blocks"`
}

// RawBlock is a contiguous register block at a base address.
type RawBlock struct {
	Name        string        `yaml:"name"`
	Base        uint32        `yaml:"base"`
	Description string        `yaml:"description,omitempty"`
	Registers   []RawRegister `yaml:"registers"`
}

// RawRegister is one 32-bit register within a block.
type RawRegister struct {
	Name        string     `yaml:"name"`
	Offset      uint32     `yaml:"offset"`
	Description string     `yaml:"description,omitempty"`
	Fields      []RawField `yaml:"fields,omitempty"`
}

// RawField is a bitfield. Width defaults to 1.
type RawField struct {
	Name  string `yaml:"name"`
	Lsb   uint8  `yaml:"lsb"`
	Width uint8  `yaml:"width,omitempty"`
}

// Parse parses a register map from YAML bytes and validates it.
func Parse(data []byte) (*RawMap, error) {
	var m RawMap
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing register map: %w", err)
	}
	for bi := range m.Blocks {
		for ri := range m.Blocks[bi].Registers {
			fields := m.Blocks[bi].Registers[ri].Fields
			for fi := range fields {
				if fields[fi].Width == 0 {
					fields[fi].Width = 1
				}
			}
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and parses a register map file.
func Load(path string) (*RawMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// Validate checks for duplicate names, misaligned or duplicate addresses and
// overlapping or out-of-range fields.
func (m *RawMap) Validate() error {
	blocks := make(map[string]bool)
	addrs := make(map[uint32]string)

	for _, b := range m.Blocks {
		if b.Name == "" {
			return fmt.Errorf("block at 0x%08x has no name", b.Base)
		}
		if blocks[b.Name] {
			return fmt.Errorf("duplicate block %s", b.Name)
		}
		blocks[b.Name] = true

		regs := make(map[string]bool)
		for _, r := range b.Registers {
			full := b.Name + "." + r.Name
			if regs[r.Name] {
				return fmt.Errorf("duplicate register %s", full)
			}
			regs[r.Name] = true

			addr := b.Base + r.Offset
			if addr%4 != 0 {
				return fmt.Errorf("register %s at 0x%08x is not word aligned", full, addr)
			}
			if other, ok := addrs[addr]; ok {
				return fmt.Errorf("register %s overlaps %s at 0x%08x", full, other, addr)
			}
			addrs[addr] = full

			var used uint32
			fields := make(map[string]bool)
			for _, f := range r.Fields {
				if fields[f.Name] {
					return fmt.Errorf("duplicate field %s.%s", full, f.Name)
				}
				fields[f.Name] = true
				if int(f.Lsb)+int(f.Width) > 32 {
					return fmt.Errorf("field %s.%s exceeds 32 bits", full, f.Name)
				}
				mask := f.Field().Mask()
				if used&mask != 0 {
					return fmt.Errorf("field %s.%s overlaps another field", full, f.Name)
				}
				used |= mask
			}
		}
	}
	return nil
}

// Field converts the raw field.
func (f RawField) Field() regport.Field {
	w := f.Width
	if w == 0 {
		w = 1
	}
	return regport.Field{Offset: f.Lsb, Width: w}
}

// Registers flattens the map into named registers keyed BLOCK.REGISTER.
func (m *RawMap) Registers() map[string]regport.Register {
	out := make(map[string]regport.Register)
	for _, b := range m.Blocks {
		for _, r := range b.Registers {
			reg := regport.Register{
				Name:   b.Name + "." + r.Name,
				Addr:   regport.Addr(b.Base + r.Offset),
				Fields: make(map[string]regport.Field, len(r.Fields)),
			}
			for _, f := range r.Fields {
				reg.Fields[f.Name] = f.Field()
			}
			out[reg.Name] = reg
		}
	}
	return out
}

// Names returns the sorted register names of a register set.
func Names(regs map[string]regport.Register) []string {
	names := make([]string, 0, len(regs))
	for n := range regs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup finds a register of the built-in map by BLOCK.REGISTER name
// (case-insensitive).
func Lookup(name string) (regport.Register, bool) {
	r, ok := Registers[strings.ToUpper(name)]
	return r, ok
}

// GoName converts an upper snake case name to a Go identifier:
// "LC_CTRL" becomes "LcCtrl", "PROT_CAP_0" becomes "ProtCap0".
func GoName(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		for _, w := range strings.Split(p, "_") {
			if w == "" {
				continue
			}
			b.WriteString(strings.ToUpper(w[:1]))
			b.WriteString(strings.ToLower(w[1:]))
		}
	}
	return b.String()
}
