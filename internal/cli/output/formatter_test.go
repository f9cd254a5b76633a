package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format Format
		wide   bool
	}{
		{FormatJSON, false},
		{FormatYAML, false},
		{FormatTable, false},
		{FormatTable, true},
		{"unknown", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			f := NewFormatter(tt.format, tt.wide)
			switch tt.format {
			case FormatJSON:
				if _, ok := f.(*JSONFormatter); !ok {
					t.Errorf("NewFormatter(%q) = %T, want *JSONFormatter", tt.format, f)
				}
			case FormatYAML:
				if _, ok := f.(*YAMLFormatter); !ok {
					t.Errorf("NewFormatter(%q) = %T, want *YAMLFormatter", tt.format, f)
				}
			default:
				tf, ok := f.(*TableFormatter)
				if !ok {
					t.Fatalf("NewFormatter(%q) = %T, want *TableFormatter", tt.format, f)
				}
				if tf.Wide != tt.wide {
					t.Errorf("Wide = %v, want %v", tf.Wide, tt.wide)
				}
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"json", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type issued struct {
	Secret     string `json:"secret"`
	URL        string `json:"url"`
	ExpiresIn  int64  `json:"expires_in_minutes"`
	ResourceID string `json:"resource_id,omitempty"`
}

func TestJSONFormatter_Format(t *testing.T) {
	f := &JSONFormatter{}

	var buf bytes.Buffer
	if err := f.Format(&buf, issued{Secret: "lgs_abc", URL: "https://x/resource/lgs_abc/a.html?b=1&c=2", ExpiresIn: 60}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"secret": "lgs_abc"`, `"expires_in_minutes": 60`, `a.html?b=1&c=2`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := f.Format(&buf, nil); err != nil {
		t.Fatalf("Format(nil) error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "null" {
		t.Errorf("Format(nil) = %q, want null", got)
	}
}

func TestYAMLFormatter_Format(t *testing.T) {
	f := &YAMLFormatter{}

	t.Run("uses json names in order", func(t *testing.T) {
		var buf bytes.Buffer
		if err := f.Format(&buf, issued{Secret: "lgs_abc", URL: "https://x/y", ExpiresIn: 60}); err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		want := "secret: lgs_abc\nurl: https://x/y\nexpires_in_minutes: 60\n"
		if buf.String() != want {
			t.Errorf("Format() = %q, want %q", buf.String(), want)
		}
	})

	t.Run("nested values use block style", func(t *testing.T) {
		data := map[string]any{
			"store": map[string]int{"live": 2},
			"links": []string{"a", "b"},
		}
		var buf bytes.Buffer
		if err := f.Format(&buf, data); err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		out := buf.String()
		if strings.ContainsAny(out, "{[") {
			t.Errorf("output uses flow style:\n%s", out)
		}
		if !strings.Contains(out, "  live: 2") || !strings.Contains(out, "  - a") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("numeric strings stay strings", func(t *testing.T) {
		var buf bytes.Buffer
		if err := f.Format(&buf, map[string]string{"code": "123456"}); err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		if strings.Contains(buf.String(), "code: 123456\n") {
			t.Errorf("string value lost its quoting: %q", buf.String())
		}
	})
}
