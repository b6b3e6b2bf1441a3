package builder

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Outcome is the result of one successful compilation.
type Outcome struct {
	EntryPoints []string
	Module      Module
}

// Module is where the compiler left the produced SPIR-V: a SingleModule or
// a MultiModule.
type Module interface {
	isModule()
}

// SingleModule is one binary holding every entry point.
type SingleModule struct {
	Path string
}

// MultiModule is one binary per entry point, keyed by entry point name.
type MultiModule struct {
	Paths map[string]string
}

func (SingleModule) isModule() {}
func (MultiModule) isModule()  {}

// Entries returns the entry point names in sorted order.
func (m MultiModule) Entries() []string {
	names := make([]string, 0, len(m.Paths))
	for name := range m.Paths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type outcomeJSON struct {
	EntryPoints []string   `json:"entry_points"`
	Module      moduleJSON `json:"module"`
}

type moduleJSON struct {
	SingleModule *string           `json:"SingleModule,omitempty"`
	MultiModule  map[string]string `json:"MultiModule,omitempty"`
}

// UnmarshalJSON decodes the compiler's result, which names exactly one of
// the two module variants.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var raw outcomeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	single, multi := raw.Module.SingleModule != nil, raw.Module.MultiModule != nil
	switch {
	case single && multi:
		return errors.New("compile result names both SingleModule and MultiModule")
	case single:
		if *raw.Module.SingleModule == "" {
			return errors.New("compile result has an empty SingleModule path")
		}
		o.Module = SingleModule{Path: *raw.Module.SingleModule}
	case multi:
		if len(raw.Module.MultiModule) == 0 {
			return errors.New("compile result has an empty MultiModule")
		}
		for entry, path := range raw.Module.MultiModule {
			if path == "" {
				return fmt.Errorf("compile result has an empty path for entry point %q", entry)
			}
		}
		o.Module = MultiModule{Paths: raw.Module.MultiModule}
	default:
		return errors.New("compile result has no module")
	}
	o.EntryPoints = raw.EntryPoints
	return nil
}

// MarshalJSON encodes o in the compiler's result format.
func (o Outcome) MarshalJSON() ([]byte, error) {
	raw := outcomeJSON{EntryPoints: o.EntryPoints}
	switch m := o.Module.(type) {
	case SingleModule:
		raw.Module.SingleModule = &m.Path
	case MultiModule:
		raw.Module.MultiModule = m.Paths
	default:
		return nil, fmt.Errorf("unknown module type %T", o.Module)
	}
	return json.Marshal(raw)
}
