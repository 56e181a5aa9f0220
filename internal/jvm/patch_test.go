package jvm

import (
	"reflect"
	"slices"
	"testing"
)

func TestPatch(t *testing.T) {
	inv, err := ParseArgs([]string{"-p", "/app", "--add-modules", "app", "-Dmonocle.platform=Headless", "-m", "app/app.Main"})
	if err != nil {
		t.Fatal(err)
	}

	inv.Patch("/opt/javafx-sdk")

	if want := []string{"/opt/javafx-sdk/lib", "/app"}; !reflect.DeepEqual(inv.ModulePath, want) {
		t.Errorf("ModulePath = %v, want %v", inv.ModulePath, want)
	}
	if want := []string{"javafx.controls", "javafx.media", "app"}; !reflect.DeepEqual(inv.AddModules, want) {
		t.Errorf("AddModules = %v, want %v", inv.AddModules, want)
	}

	want := []Property{
		{"monocle.platform", "Headless"},
		{"glass.platform", "Monocle"},
		{"embedded", "monocle"},
		{"monocle.platform.traceConfig", "false"},
		{"monocle.egl.lib", "/opt/javafx-sdk/lib/libgluon_drm.so"},
		{"javafx.verbose", "false"},
		{"prism.verbose", "false"},
	}
	if !reflect.DeepEqual(inv.Properties, want) {
		t.Errorf("Properties = %v, want %v", inv.Properties, want)
	}
}

func TestPatchLibraryPath(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unset", nil, "/opt/javafx-sdk/lib"},
		{"user path", []string{"-Djava.library.path=/usr/lib/jni:"}, "/opt/javafx-sdk/lib:/usr/lib/jni"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := ParseArgs(tt.args)
			if err != nil {
				t.Fatal(err)
			}
			inv.PatchLibraryPath("/opt/javafx-sdk")

			got, ok := inv.Property(LibraryPathProperty)
			if !ok || got != tt.want {
				t.Errorf("java.library.path = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPatchEnv(t *testing.T) {
	environ := []string{"PATH=/usr/bin", CommercialExtensionsEnv + "=false", "HOME=/root"}
	got := PatchEnv(environ)

	want := []string{"PATH=/usr/bin", "HOME=/root", CommercialExtensionsEnv + "=true"}
	if !slices.Equal(got, want) {
		t.Errorf("PatchEnv() = %v, want %v", got, want)
	}
	if environ[1] != CommercialExtensionsEnv+"=false" {
		t.Error("PatchEnv must not modify its input")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"SEVERE: Failed to load stylesheet", "error"},
		{"12:00:01.123 [main] ERROR com.example.App - boom", "error"},
		{"WARNING: Unsupported JavaFX configuration", "warning"},
		{"[WARN] low memory", "warning"},
		{"FINE: pulse", "debug"},
		{"2024-01-01 DEBUG renderer ready", "debug"},
		{"INFO: started", "info"},
		{"an error occurred somewhere", "info"},
		{"", "info"},
	}

	for _, tt := range tests {
		level, msg := ParseLogLevel(tt.line)
		if level != tt.want {
			t.Errorf("ParseLogLevel(%q) level = %s, want %s", tt.line, level, tt.want)
		}
		if msg != tt.line {
			t.Errorf("ParseLogLevel(%q) changed the message to %q", tt.line, msg)
		}
	}
}
