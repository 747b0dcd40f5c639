package display

import (
	"bytes"
	"strings"
	"testing"
)

func TestDisplayWarning_TitleOnly(t *testing.T) {
	var buf bytes.Buffer
	w := Warning{
		Title: "Nothing searched",
	}

	w.Display(&buf)

	if got, want := buf.String(), "Warning: Nothing searched\n"; got != want {
		t.Errorf("Display() = %q, want %q", got, want)
	}
}

func TestDisplayWarning_WithPaths(t *testing.T) {
	tests := []struct {
		name   string
		paths  []string
		header string
	}{
		{name: "single path", paths: []string{"/dev/null"}, header: "Affected path:"},
		{name: "multiple paths", paths: []string{"a", "b", "c"}, header: "Affected paths:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Warning{Title: "x", Paths: tt.paths}.Display(&buf)
			output := buf.String()

			if !strings.Contains(output, "    "+tt.header+"\n") {
				t.Errorf("expected %q header, got %q", tt.header, output)
			}
			for i, p := range tt.paths {
				line := "      " + string(rune('1'+i)) + ". " + p + "\n"
				if !strings.Contains(output, line) {
					t.Errorf("expected numbered line %q in %q", line, output)
				}
			}
		})
	}
}

func TestDisplayWarning_Complete(t *testing.T) {
	var buf bytes.Buffer
	Warning{
		Title:      "Config ignored",
		Message:    "The file could not be parsed",
		Paths:      []string{".toygrep/config.yaml"},
		Suggestion: "Fix the YAML syntax",
	}.Display(&buf)

	want := "Warning: Config ignored\n" +
		"    The file could not be parsed\n" +
		"    Affected path:\n" +
		"      1. .toygrep/config.yaml\n" +
		"    Suggestion:\n" +
		"    Fix the YAML syntax\n"
	if buf.String() != want {
		t.Errorf("Display() =\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestDisplayWarning_YellowColor(t *testing.T) {
	var plain, colored bytes.Buffer
	Warning{Title: "x"}.Display(&plain)
	Warning{Title: "x", Color: true}.Display(&colored)

	if strings.Contains(plain.String(), "\x1b[") {
		t.Errorf("plain warning should have no escape codes: %q", plain.String())
	}
	if !strings.HasPrefix(colored.String(), "\x1b[33m") {
		t.Errorf("expected yellow prefix, got %q", colored.String())
	}
	if !strings.HasSuffix(colored.String(), "\x1b[0m") {
		t.Errorf("expected reset suffix, got %q", colored.String())
	}
}

func TestWarnUnreachable(t *testing.T) {
	w := WarnUnreachable([]string{"/dev/null", "missing"}, []string{"not a regular file or directory", ""})

	if w.Title != "2 targets could not be searched" {
		t.Errorf("Title = %q", w.Title)
	}
	if len(w.Paths) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(w.Paths))
	}
	if w.Paths[0] != "/dev/null (not a regular file or directory)" {
		t.Errorf("Paths[0] = %q", w.Paths[0])
	}
	if w.Paths[1] != "missing" {
		t.Errorf("Paths[1] = %q", w.Paths[1])
	}

	single := WarnUnreachable([]string{"x"}, nil)
	if single.Title != "1 target could not be searched" {
		t.Errorf("Title = %q", single.Title)
	}
}
