package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"

	"github.com/Fepozopo/stdcontrast/pkg/imageio"
	"github.com/Fepozopo/stdcontrast/pkg/method"
	"github.com/Fepozopo/stdcontrast/pkg/plane"
)

// clearEnv unsets every STDCONTRAST_* variable for the test and restores
// them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvWorkers, EnvScale, EnvMethods, EnvMethodFile, EnvVerbose} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvMethods, "add_area")
	path := filepath.Join(t.TempDir(), ".env")
	body := EnvWorkers + "=4\n" + EnvScale + "=0.5\n" + EnvMethods + "=cont_24\n" + EnvVerbose + "=true\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Config{Workers: 4, Scale: 0.5, Methods: "add_area", Verbose: true}
	if cfg != want {
		t.Fatalf("cfg = %+v, want %+v", cfg, want)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	for key, val := range map[string]string{
		EnvWorkers: "many",
		EnvScale:   "-1",
		EnvVerbose: "loud",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			if _, err := LoadConfig(""); err == nil {
				t.Fatalf("%s=%s: expected an error", key, val)
			}
		})
	}
}

func TestParseSingle(t *testing.T) {
	tests := []struct {
		windows, combiner string
		name, format      string
	}{
		{"3", "dist", "std_3", "3"},
		{"3,5,7", "avg", "avg_3_5_7", "avg(3, 5, 7)"},
		{"3, 5", "dist", "dist_3_5", "dist(3, 5)"},
		{"3,5", "-dist", "rdist_3_5", "dist(-; 3, 5)"},
		{"3,5", "pow", "pow_3_5", "pow(3, 5)"},
		{"3,5", "-pow", "rpow_3_5", "pow(-; 3, 5)"},
	}
	for _, tt := range tests {
		m, err := ParseSingle(tt.windows, tt.combiner)
		if err != nil {
			t.Fatalf("%s/%s: %v", tt.windows, tt.combiner, err)
		}
		if m.Name != tt.name {
			t.Errorf("%s/%s: name = %q, want %q", tt.windows, tt.combiner, m.Name, tt.name)
		}
		if got := method.Format(m.Node); got != tt.format {
			t.Errorf("%s/%s: tree = %q, want %q", tt.windows, tt.combiner, got, tt.format)
		}
	}

	for _, bad := range [][2]string{{"", "avg"}, {"3,x", "avg"}, {"3,5", "sum"}, {"1", "avg"}} {
		if _, err := ParseSingle(bad[0], bad[1]); err == nil {
			t.Errorf("%q/%q: expected an error", bad[0], bad[1])
		}
	}
}

func release(tag string, draft, pre bool, assets ...string) githubRelease {
	r := githubRelease{TagName: tag, Draft: draft, Prerelease: pre}
	for _, a := range assets {
		r.Assets = append(r.Assets, struct {
			Name               string `json:"name"`
			BrowserDownloadURL string `json:"browser_download_url"`
		}{Name: a, BrowserDownloadURL: "https://example.com/" + a})
	}
	return r
}

func TestPickLatest(t *testing.T) {
	if pickLatest(nil) != nil {
		t.Fatalf("expected nil for no releases")
	}
	releases := []githubRelease{
		release("v1.2.0", false, false, "stdcontrast_linux_amd64.tar.gz"),
		release("v2.0.0", true, false, "draft_linux"),
		release("v1.9.0-rc1", false, true, "rc_linux"),
		release("release-1.10.3", false, false, "checksums.txt", "stdcontrast_darwin_arm64.zip"),
		release("nightly", false, false, "x"),
	}
	got := pickLatest(releases)
	if got == nil {
		t.Fatalf("expected a release")
	}
	if !got.Version.Equals(semver.MustParse("1.10.3")) {
		t.Fatalf("version = %s, want 1.10.3", got.Version)
	}
	if got.AssetURL != "https://example.com/stdcontrast_darwin_arm64.zip" {
		t.Fatalf("asset = %s", got.AssetURL)
	}

	only := pickLatest([]githubRelease{release("v0.1.0", false, false, "notes.txt")})
	if only == nil || only.AssetURL != "https://example.com/notes.txt" {
		t.Fatalf("fallback asset = %+v", only)
	}
}

func TestUpdaterOffer(t *testing.T) {
	latest := &selfupdate.Release{Version: semver.MustParse("1.1.0"), AssetURL: "https://example.com/bin"}

	tests := []struct {
		current, answer string
		applied         bool
		says            string
	}{
		{"1.1.0", "y\n", false, "already running"},
		{"v1.0.0", "n\n", false, "Update cancelled"},
		{"1.0.0", "", false, "Update cancelled"},
		{"1.0.0", "yes\n", true, "Updated to version 1.1.0"},
		{"dev", "y\n", true, "could not parse"},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		applied := false
		u := Updater{
			In:  strings.NewReader(tt.answer),
			Out: &out,
			Apply: func(assetURL, exe string) error {
				applied = true
				if assetURL != latest.AssetURL {
					t.Errorf("asset = %s", assetURL)
				}
				return nil
			},
		}
		if err := u.offer(&out, tt.current, latest); err != nil {
			t.Fatalf("%s: %v", tt.current, err)
		}
		if applied != tt.applied {
			t.Errorf("%s/%q: applied = %v, want %v", tt.current, tt.answer, applied, tt.applied)
		}
		if !strings.Contains(out.String(), tt.says) {
			t.Errorf("%s/%q: output %q lacks %q", tt.current, tt.answer, out.String(), tt.says)
		}
	}
}

func TestUpdaterApplyFailure(t *testing.T) {
	latest := &selfupdate.Release{Version: semver.MustParse("2.0.0"), AssetURL: "https://example.com/bin"}
	boom := errors.New("boom")
	u := Updater{
		In:    strings.NewReader("y\n"),
		Apply: func(string, string) error { return boom },
	}
	var out bytes.Buffer
	if err := u.offer(&out, "1.0.0", latest); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMethodsCommand(t *testing.T) {
	clearEnv(t)
	out, err := execute(t, "methods")
	if err != nil {
		t.Fatalf("methods: %v", err)
	}
	for _, name := range method.PresetNames() {
		if !strings.Contains(out, name) {
			t.Errorf("output lacks %s", name)
		}
	}
	if strings.Contains(out, "high_contrast") {
		t.Errorf("variants listed without --all")
	}

	out, err = execute(t, "methods", "--all")
	if err != nil {
		t.Fatalf("methods --all: %v", err)
	}
	if !strings.Contains(out, "hsv_tft_2") {
		t.Errorf("--all output lacks hsv_tft_2")
	}
}

func writeImage(t *testing.T, path string) {
	t.Helper()
	p := plane.New(10, 10, 3)
	for i := range p.Pix {
		p.Pix[i] = uint8(i * 7)
	}
	if err := imageio.Save(path, p); err != nil {
		t.Fatal(err)
	}
}

func TestApplyAndSingleCommands(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "a.png"))
	writeImage(t, filepath.Join(dir, "sub", "b.png"))

	if _, err := execute(t, "single", "--dir", dir, "-w", "3,5", "-c=-dist", "-r"); err != nil {
		t.Fatalf("single: %v", err)
	}
	for _, want := range []string{
		filepath.Join(dir, "rdist_3_5", "a.png"),
		filepath.Join(dir, "sub", "rdist_3_5", "b.png"),
	} {
		if _, err := os.Stat(want); err != nil {
			t.Errorf("missing %s: %v", want, err)
		}
	}

	out, err := execute(t, "apply", "--dir", dir, "-m", "hsv_2,wrapper_test", "--filename")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !strings.Contains(out, "2 written, 0 failed") {
		t.Fatalf("apply output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "Output", "a_wrapper_test.png")); err != nil {
		t.Fatalf("renamed output: %v", err)
	}
}

func TestApplyReportsFailures(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "a.png"))
	_, err := execute(t, "single", filepath.Join(dir, "a.png"), "-w", "3,25")
	if !errors.Is(err, ErrFailures) {
		t.Fatalf("expected ErrFailures, got %v", err)
	}
	if _, err := execute(t, "apply", dir, "-m", "no_such_method"); err == nil {
		t.Fatalf("expected an unknown method error")
	}
}
