package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cartogram/pkg/cache"
	"github.com/matzehuels/cartogram/pkg/config"
	pkgio "github.com/matzehuels/cartogram/pkg/io"
	"github.com/matzehuels/cartogram/pkg/pipeline"
)

// twoSquares is a pair of adjacent unit squares where the east one carries
// three times the value of the west one.
const twoSquares = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "west", "pop": 1},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[0,1],[1,1],[1,0],[0,0]]]}},
    {"type": "Feature", "properties": {"name": "east", "pop": 3},
     "geometry": {"type": "Polygon", "coordinates": [[[1,0],[1,1],[2,1],[2,0],[1,0]]]}}
  ]
}`

// isolate points every per-user location at temporary directories and
// disables the cache unless a test opts back in.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("CARTOGRAM_CACHE_BACKEND", config.BackendNone)
}

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "squares.geojson")
	if err := os.WriteFile(path, []byte(twoSquares), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, c *CLI, args ...string) error {
	t.Helper()
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"geojson"}},
		{"  ", []string{"geojson"}},
		{"svg", []string{"svg"}},
		{"svg,png", []string{"svg", "png"}},
		{" SVG , geojson ,", []string{"svg", "geojson"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseFormats(tt.in, pipeline.FormatGeoJSON)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		output string
		format string
		multi  bool
		want   string
	}{
		{"derived geojson", "data/states.geojson", "", "geojson", false, "data/states.cartogram.geojson"},
		{"derived svg", "data/counties.shp", "", "svg", true, "data/counties.cartogram.svg"},
		{"explicit single", "states.geojson", "out.json", "geojson", false, "out.json"},
		{"explicit base", "states.geojson", "out/map", "png", true, "out/map.png"},
		{"explicit base with ext", "states.geojson", "out/map.svg", "png", true, "out/map.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPath(tt.input, tt.output, tt.format, tt.multi)
			if got != tt.want {
				t.Errorf("outputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewCache(t *testing.T) {
	ctx := context.Background()
	logger := newLogger(io.Discard, LogInfo)

	tests := []struct {
		name    string
		cfg     config.Cache
		noCache bool
		want    string
	}{
		{"no cache flag", config.Cache{Backend: config.BackendFile, Dir: t.TempDir()}, true, "null"},
		{"none backend", config.Cache{Backend: config.BackendNone}, false, "null"},
		{"file backend", config.Cache{Backend: config.BackendFile, Dir: t.TempDir()}, false, "file"},
		{"file without dir", config.Cache{Backend: config.BackendFile}, false, "null"},
		{"unreachable redis", config.Cache{Backend: config.BackendRedis, RedisAddr: "127.0.0.1:1"}, false, "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := newCache(ctx, tt.cfg, tt.noCache, logger)
			if err != nil {
				t.Fatalf("newCache() error: %v", err)
			}
			defer c.Close()

			var got string
			switch c.(type) {
			case *cache.NullCache:
				got = "null"
			case *cache.FileCache:
				got = "file"
			case *cache.RedisCache:
				got = "redis"
			}
			if got != tt.want {
				t.Errorf("newCache() = %T, want %s", c, tt.want)
			}
		})
	}
}

func TestLoadConfigFromFlag(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "cartogram.toml")
	data := "[cartogram]\nmax_iterations = 25\n\n[render]\npalette = \"viridis\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	c.ConfigPath = path
	if err := c.loadConfig(); err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}

	cfg := c.Config()
	if cfg.Cartogram.MaxIterations != 25 {
		t.Errorf("MaxIterations = %d, want 25", cfg.Cartogram.MaxIterations)
	}
	if cfg.Render.Palette != "viridis" {
		t.Errorf("Palette = %q, want viridis", cfg.Render.Palette)
	}
	if cfg.Cache.Backend != config.BackendNone {
		t.Errorf("Backend = %q, want environment override %q", cfg.Cache.Backend, config.BackendNone)
	}
	if !strings.HasSuffix(cfg.Cache.Dir, appName) {
		t.Errorf("Cache.Dir = %q, want per-user default", cfg.Cache.Dir)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	isolate(t)
	c := New(io.Discard, LogInfo)
	c.ConfigPath = filepath.Join(t.TempDir(), "missing.toml")
	if err := c.loadConfig(); err == nil {
		t.Fatal("loadConfig() with missing file should fail")
	}
}

func TestApplyConfigFlagsWin(t *testing.T) {
	isolate(t)
	c := New(io.Discard, LogInfo)
	c.config = config.Default()
	c.config.Cartogram.MaxIterations = 40
	c.config.Render.Palette = "greys"

	opts := pipeline.DefaultOptions()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().IntVar(&opts.MaxIterations, "max-iterations", opts.MaxIterations, "")
	addRenderFlags(cmd, &opts)
	if err := cmd.Flags().Parse([]string{"--palette", "viridis"}); err != nil {
		t.Fatal(err)
	}

	c.applyConfig(cmd, &opts)
	if opts.MaxIterations != 40 {
		t.Errorf("MaxIterations = %d, want config value 40", opts.MaxIterations)
	}
	if opts.Palette != "viridis" {
		t.Errorf("Palette = %q, want flag value viridis", opts.Palette)
	}
	if opts.Logger != c.Logger {
		t.Error("applyConfig should attach the CLI logger")
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := []string{"cache", "completion", "inspect", "render", "serve", "transform"}
	var got []string
	for _, cmd := range root.Commands() {
		got = append(got, cmd.Name())
	}
	for _, name := range want {
		found := false
		for _, g := range got {
			if g == name {
				found = true
			}
		}
		if !found {
			t.Errorf("root command missing %q (have %v)", name, got)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("root command should define --config")
	}
}

func TestTransformCommand(t *testing.T) {
	isolate(t)
	input := writeInput(t)
	base := filepath.Join(t.TempDir(), "out", "squares")

	c := New(io.Discard, LogInfo)
	err := execute(t, c, "transform", input, "-a", "pop", "-f", "geojson,svg", "-o", base, "--max-iterations", "20")
	if err != nil {
		t.Fatalf("transform error: %v", err)
	}

	out, err := pkgio.ImportGeoJSON(base+".geojson", "pop")
	if err != nil {
		t.Fatalf("read transformed output: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("output has %d features, want 2", out.Len())
	}
	areas := out.Areas()
	if areas[1] <= areas[0] {
		t.Errorf("east area %v should exceed west area %v after transform", areas[1], areas[0])
	}

	svg, err := os.ReadFile(base + ".svg")
	if err != nil {
		t.Fatalf("read svg: %v", err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(svg), []byte("<svg")) {
		t.Errorf("svg output does not start with <svg: %.40q", svg)
	}
}

func TestTransformCommandErrors(t *testing.T) {
	isolate(t)
	input := writeInput(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing attribute flag", []string{"transform", input}},
		{"unknown attribute", []string{"transform", input, "-a", "area"}},
		{"bad format", []string{"transform", input, "-a", "pop", "-f", "pdf"}},
		{"bad palette", []string{"transform", input, "-a", "pop", "--palette", "neon"}},
		{"negative iterations", []string{"transform", input, "-a", "pop", "--max-iterations", "-1"}},
		{"missing input", []string{"transform", filepath.Join(t.TempDir(), "nope.geojson"), "-a", "pop"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := execute(t, New(io.Discard, LogInfo), tt.args...); err == nil {
				t.Errorf("transform %v should fail", tt.args[1:])
			}
		})
	}
}

func TestRenderCommand(t *testing.T) {
	isolate(t)
	input := writeInput(t)
	output := filepath.Join(t.TempDir(), "preview.png")

	if err := execute(t, New(io.Discard, LogInfo), "render", input, "-a", "pop", "-f", "png", "-o", output); err != nil {
		t.Fatalf("render error: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read png: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("render output is not a PNG")
	}
}

func TestCompletionCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"completion", "bash"})
	if err := root.Execute(); err != nil {
		t.Fatalf("completion error: %v", err)
	}
	if !strings.Contains(buf.String(), appName) {
		t.Error("bash completion should mention the command name")
	}
}
