package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Fepozopo/stdcontrast/pkg/plane"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestDetectBackend(t *testing.T) {
	tests := []struct {
		vars map[string]string
		want string
	}{
		{map[string]string{"PREVIEW_BACKEND": "KITTY", "TERM_PROGRAM": "WezTerm"}, BackendKitty},
		{map[string]string{"PREVIEW_BACKEND": "iterm"}, BackendInline},
		{map[string]string{"TERM_PROGRAM": "WezTerm"}, BackendInline},
		{map[string]string{"ITERM_SESSION_ID": "w0t0p0"}, BackendInline},
		{map[string]string{"KITTY_WINDOW_ID": "1"}, BackendKitty},
		{map[string]string{"TERM": "xterm-ghostty"}, BackendKitty},
	}
	for _, tt := range tests {
		if got := DetectBackend(env(tt.vars)); got != tt.want {
			t.Errorf("%v: backend = %q, want %q", tt.vars, got, tt.want)
		}
	}
}

func TestFitPreview(t *testing.T) {
	if got := fitPreview(16, 16); got != (PreviewSize{Cols: minCols, Rows: minRows}) {
		t.Errorf("small image = %+v", got)
	}
	if got := fitPreview(6400, 640); got != (PreviewSize{Cols: maxCols, Rows: 4}) {
		t.Errorf("wide image = %+v", got)
	}
	if got := fitPreview(320, 6400); got.Rows != maxRows || got.Cols < minCols {
		t.Errorf("tall image = %+v", got)
	}
}

func TestPreviewSequences(t *testing.T) {
	p := plane.New(4, 5, 3)
	for i := range p.Pix {
		p.Pix[i] = uint8(i * 3)
	}

	var inline bytes.Buffer
	if err := Preview(&inline, p, BackendInline); err != nil {
		t.Fatalf("inline: %v", err)
	}
	if !strings.HasPrefix(inline.String(), "\x1b]1337;File=name=preview.png;inline=1;") {
		t.Fatalf("inline sequence = %q", inline.String())
	}
	if !strings.Contains(inline.String(), "width=5px;height=4px") {
		t.Fatalf("inline sequence lacks the image size: %q", inline.String())
	}

	var kitty bytes.Buffer
	if err := Preview(&kitty, plane.New(300, 300, 1), BackendKitty); err != nil {
		t.Fatalf("kitty: %v", err)
	}
	out := kitty.String()
	if !strings.HasPrefix(out, "\x1b_Ga=T,f=100,t=d,q=2,") || !strings.Contains(out, "m=0;") {
		t.Fatalf("kitty sequence = %.80q", out)
	}

	if err := Preview(&kitty, p, "none"); !errors.Is(err, ErrNoPreview) {
		t.Fatalf("expected ErrNoPreview, got %v", err)
	}
	if err := Preview(&kitty, plane.Plane{}, BackendInline); err == nil {
		t.Fatalf("expected an error for an empty plane")
	}
}
