package main

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/ssbringup/bringup-go/pkg/regmap"
)

var funcMap = template.FuncMap{
	"hex32": func(v uint32) string { return fmt.Sprintf("0x%08x", v) },
	"quote": func(s string) string { return fmt.Sprintf("%q", s) },
}

const fileTmpl = `// Code generated by regmap-gen from {{.Source}}. DO NOT EDIT.

package {{.Package}}

import "github.com/ssbringup/bringup-go/pkg/regport"
{{range .Blocks}}
// {{.Name}} block{{if .Description}}: {{.Description}}{{end}}.
{{range .Registers}}
// {{.GoName}} is {{.FullName}} ({{hex32 .Addr}}).
const {{.GoName}} regport.Addr = {{hex32 .Addr}}
{{range .Fields}}
// {{.GoName}} is {{.FullName}}.
var {{.GoName}} = regport.Field{Offset: {{.Offset}}, Width: {{.Width}}}
{{end}}{{end}}{{end}}
// Registers maps BLOCK.REGISTER names to registers.
var Registers = map[string]regport.Register{}

func add(name string, addr regport.Addr, fields map[string]regport.Field) {
	Registers[name] = regport.Register{Name: name, Addr: addr, Fields: fields}
}

func init() {
{{- range .Blocks}}{{range .Registers}}
	add({{quote .FullName}}, {{.GoName}}, map[string]regport.Field{ {{- range $i, $f := .Fields}}{{if $i}}, {{end}}{{quote $f.Name}}: {{$f.GoName}}{{end -}} })
{{- end}}{{end}}
}
`

var fileTemplate = template.Must(template.New("file").Funcs(funcMap).Parse(fileTmpl))

type fileData struct {
	Source  string
	Package string
	Blocks  []blockData
}

type blockData struct {
	Name        string
	Description string
	Registers   []registerData
}

type registerData struct {
	FullName string
	GoName   string
	Addr     uint32
	Fields   []fieldData
}

type fieldData struct {
	Name     string
	FullName string
	GoName   string
	Offset   uint8
	Width    uint8
}

// Generate renders the Go source for m. Registers are emitted in address
// order within each block, fields in bit order.
func Generate(m *regmap.RawMap, pkg, source string) (string, error) {
	data := fileData{Source: source, Package: pkg}
	for _, b := range m.Blocks {
		bd := blockData{Name: b.Name, Description: b.Description}
		regs := append([]regmap.RawRegister(nil), b.Registers...)
		sort.SliceStable(regs, func(i, j int) bool { return regs[i].Offset < regs[j].Offset })

		for _, r := range regs {
			rd := registerData{
				FullName: b.Name + "." + r.Name,
				GoName:   regmap.GoName(b.Name, r.Name),
				Addr:     b.Base + r.Offset,
			}
			fields := append([]regmap.RawField(nil), r.Fields...)
			sort.SliceStable(fields, func(i, j int) bool { return fields[i].Lsb < fields[j].Lsb })
			for _, f := range fields {
				ff := f.Field()
				rd.Fields = append(rd.Fields, fieldData{
					Name:     f.Name,
					FullName: rd.FullName + "." + f.Name,
					GoName:   regmap.GoName(b.Name, r.Name, f.Name),
					Offset:   ff.Offset,
					Width:    ff.Width,
				})
			}
			bd.Registers = append(bd.Registers, rd)
		}
		data.Blocks = append(data.Blocks, bd)
	}

	if err := checkIdentifiers(data); err != nil {
		return "", err
	}

	var b strings.Builder
	if err := fileTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("template: %w", err)
	}
	return b.String(), nil
}

// checkIdentifiers rejects maps whose names collapse to the same Go name.
func checkIdentifiers(data fileData) error {
	seen := make(map[string]string)
	check := func(goName, full string) error {
		if other, ok := seen[goName]; ok {
			return fmt.Errorf("%s and %s both map to identifier %s", other, full, goName)
		}
		seen[goName] = full
		return nil
	}
	for _, b := range data.Blocks {
		for _, r := range b.Registers {
			if err := check(r.GoName, r.FullName); err != nil {
				return err
			}
			for _, f := range r.Fields {
				if err := check(f.GoName, f.FullName); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
