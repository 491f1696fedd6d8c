package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/skinlens/internal/config"
	"github.com/bryanwahyu/skinlens/internal/domain/concerns"
	"github.com/bryanwahyu/skinlens/internal/logging"
)

var (
	name    = "fuse"
	version = "v0.0.1-default"
	commit  = ""

	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	configFlag = &cli.StringFlag{
		Name:    "config",
		Usage:   "Path to config.yaml; its fusion section configures the engine (optional)",
		EnvVars: []string{"CONFIG_PATH"},
	}

	modeFlag = &cli.StringFlag{
		Name:  "mode",
		Usage: "Override the fusion mode: sectioned or pooled (optional)",
	}

	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "Output format: json or yaml",
		Value: "json",
	}
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    name,
		Version: fmt.Sprintf("%s - (commit: %s)", version, commit),
		Usage:   "Fuse skin classifier outputs into ranked concerns",
		Flags: []cli.Flag{
			debugFlag,
			configFlag,
			modeFlag,
		},
		Commands: []*cli.Command{
			runCmd,
			taxonomyCmd,
			catalogCmd,
		},
		Before: func(c *cli.Context) error {
			level := slog.LevelWarn
			if c.Bool(debugFlag.Name) {
				level = slog.LevelDebug
			}
			logging.Init(level, "text", c.App.ErrWriter)
			return nil
		},
	}
}

// engineFor builds the engine from --config and --mode. Without a config file the production
// defaults are used.
func engineFor(c *cli.Context) (*concerns.Engine, error) {
	cfg := &config.Config{}
	baseDir := ""
	if path := c.String(configFlag.Name); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		baseDir = filepath.Dir(path)
	} else {
		cfg.Fusion.Mode = string(concerns.ModeSectioned)
	}
	if mode := c.String(modeFlag.Name); mode != "" {
		cfg.Fusion.Mode = mode
	}
	return cfg.NewEngine(baseDir)
}

// render writes v as indented JSON or as YAML with the same field names.
func render(w io.Writer, format string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	switch format {
	case "", "json":
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml", "yml":
		var doc any
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(doc)
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}
