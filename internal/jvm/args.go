// Package jvm builds the Java command line for a JavaFX kiosk application.
//
// User arguments are parsed into an [Invocation], patched with the Gluon
// JavaFX SDK module path, Monocle/EGL properties and library path, then
// flattened back into an argument vector:
//
//	inv, err := jvm.ParseArgs(userArgs)
//	inv.Patch("/opt/javafx-sdk")
//	inv.PatchLibraryPath("/opt/javafx-sdk")
//	argv := append([]string{javaBin}, inv.Args()...)
package jvm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingValue is returned when a flag that takes a value ends the argument list.
var ErrMissingValue = errors.New("missing value")

// Property is a single -Dkey=value system property.
type Property struct {
	Key   string
	Value string
}

// Invocation holds parsed JVM arguments. Properties keep the order in which
// keys were first seen; a repeated key updates the value in place.
type Invocation struct {
	ModulePath []string
	AddModules []string
	Properties []Property
	Extra      []string // passed through unchanged, in order
}

// ParseArgs separates --module-path/-p, --add-modules and -D properties from
// all other arguments. Module flags may repeat; the last occurrence wins.
func ParseArgs(args []string) (*Invocation, error) {
	inv := &Invocation{}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case arg == "-p" || arg == "--module-path" || arg == "--add-modules":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%w for %s", ErrMissingValue, arg)
			}
			i++
			inv.setModuleFlag(arg, args[i])

		case strings.HasPrefix(arg, "--module-path="):
			inv.setModuleFlag("--module-path", strings.TrimPrefix(arg, "--module-path="))

		case strings.HasPrefix(arg, "--add-modules="):
			inv.setModuleFlag("--add-modules", strings.TrimPrefix(arg, "--add-modules="))

		case strings.HasPrefix(arg, "-D"):
			key, value, _ := strings.Cut(arg[2:], "=")
			if key == "" {
				return nil, fmt.Errorf("empty property name in %q", arg)
			}
			inv.SetProperty(key, value)

		default:
			inv.Extra = append(inv.Extra, arg)
		}
	}

	return inv, nil
}

func (inv *Invocation) setModuleFlag(flag, value string) {
	if flag == "--add-modules" {
		inv.AddModules = splitList(value, ",")
	} else {
		inv.ModulePath = splitList(value, ":")
	}
}

// splitList splits value on sep and drops empty elements.
func splitList(value, sep string) []string {
	var out []string
	for _, part := range strings.Split(value, sep) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Property returns the value of key and whether it is set.
func (inv *Invocation) Property(key string) (string, bool) {
	for _, p := range inv.Properties {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// SetProperty sets key, keeping its position if already present.
func (inv *Invocation) SetProperty(key, value string) {
	for i := range inv.Properties {
		if inv.Properties[i].Key == key {
			inv.Properties[i].Value = value
			return
		}
	}
	inv.Properties = append(inv.Properties, Property{Key: key, Value: value})
}

// SetDefault sets key only if it is absent. Reports whether it was set.
func (inv *Invocation) SetDefault(key, value string) bool {
	if _, ok := inv.Property(key); ok {
		return false
	}
	inv.Properties = append(inv.Properties, Property{Key: key, Value: value})
	return true
}

// Args flattens the invocation into JVM arguments:
// --module-path, --add-modules, one -Dkey=value per property, then the rest.
func (inv *Invocation) Args() []string {
	args := make([]string, 0, 4+len(inv.Properties)+len(inv.Extra))
	args = append(args,
		"--module-path", strings.Join(inv.ModulePath, ":"),
		"--add-modules", strings.Join(inv.AddModules, ","),
	)
	for _, p := range inv.Properties {
		args = append(args, "-D"+p.Key+"="+p.Value)
	}
	return append(args, inv.Extra...)
}
