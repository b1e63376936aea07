package layout

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	props := Props{
		Header:  "TABS",
		Sidebar: "SIDEBAR",
		Main:    "MAIN",
		Footer:  "FOOTER",
	}

	got := Render(props)

	for _, want := range []string{"TABS", "SIDEBAR", "MAIN", "FOOTER"} {
		if !strings.Contains(got, want) {
			t.Errorf("Missing %s content", want)
		}
	}
	if strings.Index(got, "TABS") > strings.Index(got, "MAIN") {
		t.Error("Header should be above the main content")
	}
}

func TestRender_NoSidebar(t *testing.T) {
	got := Render(Props{Main: "MAIN", Footer: "FOOTER"})
	if !strings.Contains(got, "MAIN") || !strings.Contains(got, "FOOTER") {
		t.Errorf("Render() = %q", got)
	}
}
