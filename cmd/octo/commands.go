package main

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"octo/pkg/config"
	"octo/pkg/engine"
	"octo/pkg/logging"
	"octo/pkg/raster"
	"octo/pkg/text"
)

// app carries what the persistent pre-run resolved to the subcommands.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	rootCmd := &cobra.Command{
		Use:           "octo",
		Short:         "octo renders a subset of HTML and CSS",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for key, flag := range map[string]string{
				"render.width":       "width",
				"render.measurer":    "measurer",
				"render.view_source": "view-source",
				"log.level":          "log-level",
			} {
				if err := a.v.BindPFlag(key, cmd.Root().PersistentFlags().Lookup(flag)); err != nil {
					return err
				}
			}
			cfg, err := config.LoadWith(a.v, a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logging.New(cfg.Log)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (yaml, json or toml)")
	flags.Float64("width", 800, "viewport width in px")
	flags.String("measurer", config.MeasurerFace, "text measurer: face or mono")
	flags.Bool("view-source", false, "render the markup as text")
	flags.String("log-level", "info", "log level")

	rootCmd.AddCommand(newRenderCmd(a), newDumpCmd(a), newCompareCmd())
	return rootCmd
}

func (a *app) engine() *engine.Engine {
	return engine.New(engine.WithConfig(*a.cfg), engine.WithLogger(a.log))
}

func (a *app) render(input, cssFile string) (*engine.Engine, *engine.Result, error) {
	markup, err := os.ReadFile(input)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", input, err)
	}
	var sheet []byte
	if cssFile != "" {
		if sheet, err = os.ReadFile(cssFile); err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", cssFile, err)
		}
	}
	eng := a.engine()
	res, err := eng.Render(string(markup), string(sheet), a.cfg.Render.Width)
	if err != nil {
		return nil, nil, err
	}
	return eng, res, nil
}

func newRenderCmd(a *app) *cobra.Command {
	var cssFile string
	var height int
	cmd := &cobra.Command{
		Use:   "render <input.html> <output.png>",
		Short: "Render a document to a PNG image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, res, err := a.render(args[0], cssFile)
			if err != nil {
				return err
			}
			if height <= 0 {
				height = int(math.Ceil(res.Height))
			}
			width := int(math.Ceil(a.cfg.Render.Width))
			if width <= 0 || height <= 0 {
				return fmt.Errorf("nothing to render: canvas is %dx%d", width, height)
			}

			faces, ok := eng.Measurer().(*text.FaceMeasurer)
			if !ok {
				faces = text.NewFaceMeasurer()
			}
			out, err := os.Create(args[1])
			if err != nil {
				return err
			}
			defer out.Close()

			r := raster.New(faces, raster.WithLogger(a.log))
			if err := r.EncodePNG(out, res.Commands.Visible(0, float64(height)), width, height); err != nil {
				return fmt.Errorf("writing %s: %w", args[1], err)
			}
			a.log.Info("rendered",
				zap.String("input", args[0]),
				zap.String("output", args[1]),
				zap.Int("width", width),
				zap.Int("height", height))
			return out.Close()
		},
	}
	cmd.Flags().StringVar(&cssFile, "css", "", "author stylesheet applied before the document's own")
	cmd.Flags().IntVar(&height, "height", 0, "canvas height in px (default: content height)")
	return cmd
}

func newDumpCmd(a *app) *cobra.Command {
	var cssFile, what string
	cmd := &cobra.Command{
		Use:   "dump <input.html>",
		Short: "Print the document, box tree or display list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, res, err := a.render(args[0], cssFile)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			switch what {
			case "dom":
				fmt.Fprint(w, res.Document.Root.Dump())
			case "boxes":
				fmt.Fprint(w, res.Tree.Dump())
			case "paint":
				for _, c := range res.Commands {
					fmt.Fprintf(w, "%T %+v\n", c, c)
				}
			default:
				return fmt.Errorf("unknown dump %q: want dom, boxes or paint", what)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cssFile, "css", "", "author stylesheet applied before the document's own")
	cmd.Flags().StringVar(&what, "what", "boxes", "what to print: dom, boxes or paint")
	return cmd
}

func newCompareCmd() *cobra.Command {
	var opts raster.CompareOptions
	var diffFile string
	cmd := &cobra.Command{
		Use:   "compare <actual.png> <expected.png>",
		Short: "Compare a rendering against a reference image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actual, err := readPNG(args[0])
			if err != nil {
				return err
			}
			expected, err := readPNG(args[1])
			if err != nil {
				return err
			}
			d, err := raster.Compare(actual, expected, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d pixels differ (%.2f%%), max channel delta %d\n",
				d.Different, d.Pixels, d.Ratio()*100, d.MaxDelta)
			if d.Match() {
				return nil
			}
			if diffFile != "" {
				if err := writePNG(diffFile, d.Image); err != nil {
					return err
				}
			}
			return fmt.Errorf("%s does not match %s", args[0], args[1])
		},
	}
	cmd.Flags().IntVar(&opts.Tolerance, "tolerance", 2, "largest channel difference treated as equal")
	cmd.Flags().IntVar(&opts.Radius, "radius", 0, "match pixels up to this many px away")
	cmd.Flags().StringVar(&diffFile, "diff", "", "write an image marking differing pixels")
	return cmd
}

func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
