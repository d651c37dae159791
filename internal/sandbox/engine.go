package sandbox

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/itsmostafa/goplot/internal/binding"
)

// Engine names.
const (
	EngineTengo = "tengo"
	EngineJS    = "js"
	EngineLua   = "lua"
)

// Engine runs one script in a fresh interpreter with the host API installed.
// Script failures come back as a ScriptError; the error return is reserved for
// host failures such as an interpreter that could not be set up.
type Engine interface {
	Name() string
	Execute(ctx context.Context, s Script, host *binding.Host, cfg Config) (*ScriptError, error)
}

var engines = map[string]Engine{
	EngineTengo: tengoEngine{},
	EngineJS:    jsEngine{},
	EngineLua:   luaEngine{},
}

// EngineFor returns the engine registered under name.
func EngineFor(name string) (Engine, error) {
	e, ok := engines[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (valid options: %s)", ErrUnknownEngine, name, strings.Join(EngineNames(), ", "))
	}
	return e, nil
}

// EngineForFile picks an engine from a file extension, falling back to def.
func EngineForFile(path, def string) (Engine, error) {
	name := engineForExt(path)
	if name == "" {
		name = def
	}
	return EngineFor(name)
}

func engineForExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js":
		return EngineJS
	case ".tengo":
		return EngineTengo
	case ".lua":
		return EngineLua
	default:
		return ""
	}
}

// EngineNames lists the registered engines.
func EngineNames() []string {
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
