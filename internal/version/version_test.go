package version

import (
	"strings"
	"testing"
)

func TestBanner(t *testing.T) {
	old := Version
	Version = "9.9.9"
	defer func() { Version = old }()

	b := Banner()
	if !strings.Contains(b, "Licserver (v9.9.9") {
		t.Errorf("banner missing version line: %q", b)
	}
	if !strings.Contains(b, "Licitante Prime") {
		t.Errorf("banner missing copyright: %q", b)
	}
}
