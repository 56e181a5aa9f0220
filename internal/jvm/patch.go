package jvm

import (
	"path/filepath"
	"slices"
	"strings"
)

// DisplayIDProperty selects the DRM card used by Monocle's EGL backend.
const DisplayIDProperty = "egl.displayid"

// LibraryPathProperty is the JVM native library search path.
const LibraryPathProperty = "java.library.path"

// CommercialExtensionsEnv enables Gluon's DRM rendering in the JavaFX SDK.
const CommercialExtensionsEnv = "ENABLE_GLUON_COMMERCIAL_EXTENSIONS"

// Patch prepends the SDK to the module path, prepends the JavaFX modules and
// fills in Monocle/EGL properties the user did not set.
func (inv *Invocation) Patch(javafxPath string) {
	lib := filepath.Join(javafxPath, "lib")

	inv.ModulePath = slices.Insert(inv.ModulePath, 0, lib)
	inv.AddModules = slices.Insert(inv.AddModules, 0, "javafx.controls", "javafx.media")

	for _, p := range []Property{
		{"glass.platform", "Monocle"},
		{"embedded", "monocle"},
		{"monocle.platform", "EGL"},
		{"monocle.platform.traceConfig", "false"},
		{"monocle.egl.lib", filepath.Join(lib, "libgluon_drm.so")},
		{"javafx.verbose", "false"},
		{"prism.verbose", "false"},
	} {
		inv.SetDefault(p.Key, p.Value)
	}
}

// PatchLibraryPath prepends the SDK lib directory to java.library.path.
func (inv *Invocation) PatchLibraryPath(javafxPath string) {
	current, _ := inv.Property(LibraryPathProperty)
	paths := slices.Insert(splitList(current, ":"), 0, filepath.Join(javafxPath, "lib"))
	inv.SetProperty(LibraryPathProperty, strings.Join(paths, ":"))
}

// PatchEnv returns a copy of environ with the Gluon commercial extensions enabled.
func PatchEnv(environ []string) []string {
	env := make([]string, 0, len(environ)+1)
	for _, kv := range environ {
		if !strings.HasPrefix(kv, CommercialExtensionsEnv+"=") {
			env = append(env, kv)
		}
	}
	return append(env, CommercialExtensionsEnv+"=true")
}
