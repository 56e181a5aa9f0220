package version

import (
	"strings"
	"testing"
)

func TestInfoString(t *testing.T) {
	orig := Version
	Version = "v1.2.3"
	t.Cleanup(func() { Version = orig })

	info := Get()
	s := info.String()
	if !strings.HasPrefix(s, "javakiosk v1.2.3 (commit ") {
		t.Errorf("String() = %q", s)
	}
	if !strings.Contains(s, info.Platform) || !strings.Contains(s, info.GoVersion) {
		t.Errorf("String() missing runtime info: %q", s)
	}
}
