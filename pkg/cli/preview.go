package cli

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Fepozopo/stdcontrast/pkg/engine"
	"github.com/Fepozopo/stdcontrast/pkg/imageio"
	"github.com/Fepozopo/stdcontrast/pkg/method"
	"github.com/Fepozopo/stdcontrast/pkg/plane"
)

// Terminal image backends.
const (
	BackendKitty  = "kitty"
	BackendInline = "inline"
	BackendChafa  = "chafa"
)

// ErrNoPreview is returned when the terminal has no known image protocol.
var ErrNoPreview = errors.New("no preview protocol matched")

// Character cell assumptions used to size previews.
const (
	cellW   = 8
	cellH   = 16
	minCols = 6
	minRows = 3
	maxCols = 80
	maxRows = 40
)

// PreviewSize is the placement of a preview in character cells.
type PreviewSize struct {
	Cols, Rows int
}

// Pixels returns the approximate pixel box of the placement.
func (s PreviewSize) Pixels() (int, int) { return s.Cols * cellW, s.Rows * cellH }

// fitPreview maps an image of w x h pixels onto character cells, keeping the
// aspect ratio and never scaling up.
func fitPreview(w, h int) PreviewSize {
	scale := min(1, float64(maxCols*cellW)/float64(w), float64(maxRows*cellH)/float64(h))
	cols := int(float64(w)*scale/cellW + 0.5)
	rows := int(float64(h)*scale/cellH + 0.5)
	return PreviewSize{
		Cols: max(minCols, min(maxCols, cols)),
		Rows: max(minRows, min(maxRows, rows)),
	}
}

// DetectBackend picks a backend from PREVIEW_BACKEND or terminal hints in
// the environment. It returns "" when nothing matches.
func DetectBackend(getenv func(string) string) string {
	switch b := strings.ToLower(getenv("PREVIEW_BACKEND")); b {
	case BackendKitty, BackendChafa:
		return b
	case BackendInline, "iterm", "wezterm":
		return BackendInline
	}
	switch getenv("TERM_PROGRAM") {
	case "iTerm.app", "WezTerm", "Warp", "Hyper", "vscode", "Tabby":
		return BackendInline
	}
	if getenv("ITERM_SESSION_ID") != "" {
		return BackendInline
	}
	term := strings.ToLower(getenv("TERM"))
	if getenv("KITTY_WINDOW_ID") != "" || strings.Contains(term, "kitty") || strings.Contains(term, "ghostty") {
		return BackendKitty
	}
	if strings.Contains(term, "wezterm") {
		return BackendInline
	}
	if _, err := exec.LookPath("chafa"); err == nil {
		return BackendChafa
	}
	return ""
}

// Preview writes p to out through backend, downscaled to fit the terminal.
func Preview(out io.Writer, p plane.Plane, backend string) error {
	if p.H == 0 || p.W == 0 {
		return errors.New("empty image")
	}
	size := fitPreview(p.W, p.H)
	pw, ph := size.Pixels()
	img := imaging.Fit(imageio.ToImage(p), pw, ph, imaging.Lanczos)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("png encode failed: %w", err)
	}
	switch backend {
	case BackendKitty:
		return sendKitty(out, buf.Bytes(), size)
	case BackendInline:
		return sendInline(out, buf.Bytes(), img.Bounds())
	case BackendChafa:
		return sendChafa(out, buf.Bytes(), size)
	}
	return ErrNoPreview
}

// sendKitty uses the kitty graphics protocol: base64 payload in chunks of at
// most 4096 bytes, placement keys on the first chunk only.
func sendKitty(out io.Writer, data []byte, size PreviewSize) error {
	const chunk = 4096
	enc := base64.StdEncoding.EncodeToString(data)
	for pos := 0; pos < len(enc); pos += chunk {
		end := min(pos+chunk, len(enc))
		more := "0"
		if end < len(enc) {
			more = "1"
		}
		var err error
		if pos == 0 {
			_, err = fmt.Fprintf(out, "\x1b_Ga=T,f=100,t=d,q=2,c=%d,r=%d,m=%s;%s\x1b\\", size.Cols, size.Rows, more, enc[pos:end])
		} else {
			_, err = fmt.Fprintf(out, "\x1b_Gm=%s;%s\x1b\\", more, enc[pos:end])
		}
		if err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(out)
	return err
}

// sendInline emits the iTerm2 OSC 1337 inline file sequence.
func sendInline(out io.Writer, data []byte, bounds image.Rectangle) error {
	_, err := fmt.Fprintf(out, "\x1b]1337;File=name=preview.png;inline=1;size=%d;width=%dpx;height=%dpx:%s\a\n",
		len(data), bounds.Dx(), bounds.Dy(), base64.StdEncoding.EncodeToString(data))
	return err
}

func sendChafa(out io.Writer, data []byte, size PreviewSize) error {
	if _, err := exec.LookPath("chafa"); err != nil {
		return fmt.Errorf("chafa not found in PATH: %w", err)
	}
	cmd := exec.Command("chafa", "--fill=block", "--symbols=block", "-s", fmt.Sprintf("%dx%d", size.Cols, size.Rows), "-")
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("chafa failed: %w", err)
	}
	return nil
}

func (a *app) previewCmd() *cobra.Command {
	var (
		methodName string
		methodFile string
		backend    string
		grey       bool
		scale      float64
	)
	cmd := &cobra.Command{
		Use:   "preview <image>",
		Short: "Show one method's output in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var extra []method.Named
			if methodFile != "" {
				loaded, err := method.LoadFile(methodFile)
				if err != nil {
					return err
				}
				extra = loaded
			}
			methods, err := method.Select(methodName, extra)
			if err != nil {
				return err
			}
			if backend == "" {
				backend = DetectBackend(os.Getenv)
			}
			if backend == "" {
				return ErrNoPreview
			}

			mode := imageio.Colour
			if grey {
				mode = imageio.Grey
			}
			src, err := imageio.Load(args[0], mode)
			if err != nil {
				return err
			}
			cache := engine.NewCache(src,
				engine.WithLogger(a.logger),
				engine.WithName(args[0]),
				engine.WithScale(scale))
			for _, m := range methods {
				out, err := cache.Apply(m.Node)
				if err != nil {
					return fmt.Errorf("%s: %w", m.Name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", m.Name, out.Shape())
				if err := Preview(cmd.OutOrStdout(), out, backend); err != nil {
					return err
				}
			}
			a.logger.Debug("preview done", zap.String("backend", backend), zap.Int("methods", len(methods)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&methodName, "method", "m", "cont_24", "comma separated method names")
	cmd.Flags().StringVar(&methodFile, "method-file", "", "YAML file with extra named methods")
	cmd.Flags().StringVar(&backend, "backend", "", "kitty, inline or chafa (detected when empty)")
	cmd.Flags().BoolVar(&grey, "grey", false, "load the image as greyscale")
	cmd.Flags().Float64VarP(&scale, "scale", "s", 1, "resample the image by this factor first")
	return cmd
}
