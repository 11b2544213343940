package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cartogram/pkg/cartogram"
	pkgio "github.com/matzehuels/cartogram/pkg/io"
	"github.com/matzehuels/cartogram/pkg/pipeline"
)

// transformFlags holds the command-line flags that are not pipeline options.
type transformFlags struct {
	output  string // output file (single format) or base path (multiple)
	formats string // comma-separated output formats
	noCache bool   // bypass the result cache entirely
	tui     bool   // show the interactive progress view
}

// transformCommand creates the transform command, which computes a
// cartogram and writes it in one or more formats.
func (c *CLI) transformCommand() *cobra.Command {
	var flags transformFlags
	opts := pipeline.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "transform [file]",
		Short: "Compute a cartogram from a GeoJSON or shapefile",
		Long: `Transform reads polygon regions from a GeoJSON FeatureCollection or an
ESRI shapefile and resizes them so each region's area is proportional to the
chosen attribute. The result is written as GeoJSON, SVG or PNG.`,
		Example: `  cartogram transform states.geojson -a population
  cartogram transform counties.shp -a votes -f geojson,svg -o out/counties
  cartogram transform world.geojson -a gdp --max-iterations 50 --max-error 0.02 --tui`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyConfig(cmd, &opts)
			opts.Formats = parseFormats(flags.formats, pipeline.FormatGeoJSON)
			if err := opts.Validate(); err != nil {
				return err
			}
			return c.runTransform(cmd.Context(), args[0], opts, flags)
		},
	}

	cmd.Flags().StringVarP(&opts.Attribute, "attribute", "a", "", "numeric attribute that drives the region sizes (required)")
	cmd.Flags().IntVar(&opts.MaxIterations, "max-iterations", opts.MaxIterations, "maximum number of displacement passes")
	cmd.Flags().Float64Var(&opts.MaxAverageError, "max-error", opts.MaxAverageError, "stop once the average size error is at or below this value")
	cmd.Flags().IntVar(&opts.Workers, "workers", opts.Workers, "goroutines used to displace geometries within one pass")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even if a cached result exists")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "output format(s): geojson (default), svg, png (comma-separated)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&flags.tui, "tui", false, "show live iteration progress")
	addRenderFlags(cmd, &opts)
	_ = cmd.MarkFlagRequired("attribute")

	return cmd
}

// runTransform loads the input, runs the pipeline and writes the artifacts.
func (c *CLI) runTransform(ctx context.Context, input string, opts pipeline.Options, flags transformFlags) error {
	prog := newProgress(c.Logger)

	coll, err := pkgio.Import(input, opts.Attribute)
	if err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}
	c.Logger.Debug("loaded input", "path", input, "features", coll.Len(), "vertices", coll.VertexCount())

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	var result *pipeline.Result
	if flags.tui {
		result, err = runWithProgress(ctx, runner, coll, opts)
		if err != nil {
			return fmt.Errorf("transform: %w", err)
		}
	} else {
		spinner := newSpinnerWithContext(ctx, "Transforming...")
		opts.Observer = cartogram.ObserverFunc(func(p cartogram.Progress) {
			spinner.SetMessage(fmt.Sprintf("Iteration %d · average error %.4f", p.Iteration, p.AverageError))
		})
		spinner.Start()
		result, err = runner.Execute(ctx, coll, opts)
		if err != nil {
			spinner.StopWithError("Transform failed")
			return err
		}
		spinner.Stop()
	}

	printTransformSummary(result)
	if err := writeArtifacts(result.Artifacts, opts.Formats, input, flags.output); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Wrote %d output(s)", len(opts.Formats)))
	return nil
}

// =============================================================================
// Output Files
// =============================================================================

// formatExtensions maps each output format to its file extension.
var formatExtensions = map[string]string{
	pipeline.FormatGeoJSON: ".geojson",
	pipeline.FormatSVG:     ".svg",
	pipeline.FormatPNG:     ".png",
}

// outputPath chooses where one format is written. With a single format an
// explicit output is used as is; otherwise it is a base path that receives
// the format extension. Without an output the input name is reused with a
// ".cartogram" suffix.
func outputPath(input, output, format string, multi bool) string {
	ext := formatExtensions[format]
	if output != "" {
		if multi {
			return strings.TrimSuffix(output, filepath.Ext(output)) + ext
		}
		return output
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + ".cartogram" + ext
}

// writeArtifacts writes every requested format to disk and prints the paths.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) error {
	multi := len(formats) > 1
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			return fmt.Errorf("no %s output produced", format)
		}
		path := outputPath(input, output, format, multi)
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}
