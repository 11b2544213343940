package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/cartogram/pkg/io"
	"github.com/matzehuels/cartogram/pkg/pipeline"
)

// renderCommand creates the render command, which draws a collection as is.
// It is useful for previewing the input or re-rendering a computed
// cartogram with different frame settings.
func (c *CLI) renderCommand() *cobra.Command {
	var output, formatsStr string
	var noCache bool
	opts := pipeline.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a GeoJSON or shapefile without transforming it",
		Example: `  cartogram render states.geojson -a population -f svg
  cartogram render states.cartogram.geojson -a population -f png --palette viridis`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyConfig(cmd, &opts)
			opts.Formats = parseFormats(formatsStr, pipeline.FormatSVG)
			if err := opts.ValidateForRender(); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&opts.Attribute, "attribute", "a", "", "numeric attribute that colours the regions (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, geojson (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	addRenderFlags(cmd, &opts)
	_ = cmd.MarkFlagRequired("attribute")

	return cmd
}

// runRender loads the input and renders it through the cached runner.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	coll, err := pkgio.Import(input, opts.Attribute)
	if err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}
	if err := coll.Validate(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()

	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, coll, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	printStats(coll.Len(), coll.VertexCount(), cacheHit)
	return writeArtifacts(artifacts, opts.Formats, input, output)
}
