// Package cli implements the stdcontrast command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Fepozopo/stdcontrast/pkg/batch"
	"github.com/Fepozopo/stdcontrast/pkg/imageio"
	"github.com/Fepozopo/stdcontrast/pkg/method"
)

// ErrFailures is returned when a run finished but some outputs failed.
var ErrFailures = errors.New("some outputs failed")

type app struct {
	envFile string
	verbose bool
	cfg     Config
	logger  *zap.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "stdcontrast",
		Short:         "Render images as local standard deviation contrast maps",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(a.envFile)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("verbose") {
				a.verbose = cfg.Verbose
			}
			a.cfg = cfg
			logger, err := NewLogger(a.verbose)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file with STDCONTRAST_* defaults")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(a.applyCmd(), a.singleCmd(), a.methodsCmd(), a.previewCmd(), versionCmd(), updateCmd())
	return rootCmd
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// runFlags are shared by apply and single.
type runFlags struct {
	dir        string
	subFolders bool
	workers    int
	scale      float64
	filename   bool
	grey       bool
	precompute bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.dir, "dir", "d", ".", "folder to process when no paths are given")
	cmd.Flags().BoolVarP(&f.subFolders, "sub-folders", "r", false, "descend into sub-folders")
	cmd.Flags().IntVarP(&f.workers, "workers", "j", 1, "images processed at once (-1 for one per CPU)")
	cmd.Flags().Float64VarP(&f.scale, "scale", "s", 1, "resample images by this factor first")
	cmd.Flags().BoolVar(&f.filename, "filename", false, "write Output/<name>_<method> instead of <method>/<name>")
	cmd.Flags().BoolVar(&f.grey, "grey", false, "load images as greyscale")
	cmd.Flags().BoolVar(&f.precompute, "precompute", true, "compute every window of an image up front")
}

// resolve fills unset flags from the loaded configuration.
func (f *runFlags) resolve(cmd *cobra.Command, cfg Config) {
	if !cmd.Flags().Changed("workers") {
		f.workers = cfg.Workers
	}
	if !cmd.Flags().Changed("scale") {
		f.scale = cfg.Scale
	}
}

func (a *app) applyCmd() *cobra.Command {
	var (
		flags      runFlags
		methodSpec string
		methodFile string
	)
	cmd := &cobra.Command{
		Use:   "apply [paths...]",
		Short: "Apply named methods to images or folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.resolve(cmd, a.cfg)
			if !cmd.Flags().Changed("method") {
				methodSpec = a.cfg.Methods
			}
			if !cmd.Flags().Changed("method-file") {
				methodFile = a.cfg.MethodFile
			}
			var extra []method.Named
			if methodFile != "" {
				loaded, err := method.LoadFile(methodFile)
				if err != nil {
					return err
				}
				extra = loaded
			}
			methods, err := method.Select(methodSpec, extra)
			if err != nil {
				return err
			}
			return a.run(cmd, args, flags, methods)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&methodSpec, "method", "m", "all", "comma separated method names, or all")
	cmd.Flags().StringVar(&methodFile, "method-file", "", "YAML file with extra named methods")
	return cmd
}

func (a *app) singleCmd() *cobra.Command {
	var (
		flags    runFlags
		windows  string
		combiner string
	)
	cmd := &cobra.Command{
		Use:   "single [paths...]",
		Short: "Combine plain statistics of the given window sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.resolve(cmd, a.cfg)
			m, err := ParseSingle(windows, combiner)
			if err != nil {
				return err
			}
			return a.run(cmd, args, flags, []method.Named{m})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&windows, "windows", "w", "3", "comma separated window sizes")
	cmd.Flags().StringVarP(&combiner, "combine", "c", "avg", "avg, dist or pow; a leading - reverses dist and pow")
	return cmd
}

func (a *app) run(cmd *cobra.Command, args []string, flags runFlags, methods []method.Named) error {
	names := make([]string, 0, len(methods)+1)
	for _, m := range methods {
		names = append(names, m.Name)
	}
	names = append(names, imageio.OutputDir)

	paths, err := collect(args, flags.dir, flags.subFolders, names)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		a.logger.Warn("no images found", zap.String("dir", flags.dir))
		return nil
	}

	mode := imageio.Colour
	if flags.grey {
		mode = imageio.Grey
	}
	a.logger.Info("run started",
		zap.Int("images", len(paths)),
		zap.Strings("methods", names[:len(methods)]),
		zap.Int("workers", flags.workers))
	res, err := batch.Run(cmd.Context(), batch.Sources(paths), methods, batch.Options{
		Workers:        flags.workers,
		Precompute:     flags.precompute,
		Scale:          flags.scale,
		ModifyFilename: flags.filename,
		Mode:           mode,
		Logger:         a.logger,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d written, %d failed\n", res.Written, len(res.Failed))
	if len(res.Failed) > 0 {
		return fmt.Errorf("%w: %d of %d", ErrFailures, len(res.Failed), res.Written+len(res.Failed))
	}
	return nil
}

// collect expands the command arguments into image paths. Folders are
// discovered, skipping output folders named in skip; with no arguments dir is
// used.
func collect(args []string, dir string, recursive bool, skip []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{dir}
	}
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if !imageio.Supported(arg) {
				return nil, fmt.Errorf("%s: %w", arg, imageio.ErrUnsupported)
			}
			out = append(out, arg)
			continue
		}
		found, err := imageio.Discover(arg, recursive, skip...)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

// ParseSingle builds the method for a window list and a combiner name:
// avg, dist, pow, -dist or -pow. A single window is the plain statistic.
func ParseSingle(windows, combiner string) (method.Named, error) {
	var ws []int
	for _, field := range strings.Split(windows, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		w, err := strconv.Atoi(field)
		if err != nil {
			return method.Named{}, fmt.Errorf("window %q: %w", field, err)
		}
		ws = append(ws, w)
	}
	if len(ws) == 0 {
		return method.Named{}, errors.New("no window sizes given")
	}

	suffix := make([]string, len(ws))
	for i, w := range ws {
		suffix[i] = strconv.Itoa(w)
	}
	if len(ws) == 1 {
		m := method.Named{Name: "std_" + suffix[0], Node: method.Stdev(ws[0])}
		return m, method.Validate(m.Node)
	}

	children := method.Stdevs(ws...)
	var node method.Node
	name := strings.ToLower(strings.TrimSpace(combiner))
	switch name {
	case "avg", "average", "":
		name = "avg"
		node = method.Avg(children...)
	case "dist", "distribute":
		name = "dist"
		node = method.Dist(children...)
	case "-dist", "-distribute":
		name = "rdist"
		node = method.DistRev(children...)
	case "pow", "power":
		name = "pow"
		node = method.Pow(children...)
	case "-pow", "-power":
		name = "rpow"
		node = method.PowRev(children...)
	default:
		return method.Named{}, fmt.Errorf("unknown combiner %q", combiner)
	}
	m := method.Named{Name: name + "_" + strings.Join(suffix, "_"), Node: node}
	return m, method.Validate(m.Node)
}

func (a *app) methodsCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "methods",
		Short: "List the named methods",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			listMethods(out, method.PresetNames())
			if all {
				fmt.Fprintln(out)
				listMethods(out, method.VariantNames())
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include variants selectable by name only")
	return cmd
}

func listMethods(out io.Writer, names []string) {
	for _, name := range names {
		n, _ := method.Lookup(name)
		fmt.Fprintf(out, "%-24s %s\n", name, method.Format(n))
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}

func updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Check GitHub for a newer release and install it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Updater{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}.Check(cmd.Context())
		},
	}
}
