package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/skinlens/internal/domain/concerns"
)

var (
	conditionsFlag = &cli.StringFlag{
		Name:  "conditions",
		Usage: "JSON or YAML file with the condition classifier output, - for stdin (optional)",
	}
	lesionsFlag = &cli.StringFlag{
		Name:  "lesions",
		Usage: "JSON or YAML file with the lesion classifier output, - for stdin (optional)",
	}

	runCmd = &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Fuse prediction files and print the result",
		Flags: []cli.Flag{
			conditionsFlag,
			lesionsFlag,
			formatFlag,
		},
		Action: func(c *cli.Context) error {
			if c.String(conditionsFlag.Name) == "" && c.String(lesionsFlag.Name) == "" {
				return cli.Exit("at least one of --conditions or --lesions is required", 2)
			}
			if c.String(conditionsFlag.Name) == "-" && c.String(lesionsFlag.Name) == "-" {
				return cli.Exit("only one input can be read from stdin", 2)
			}

			engine, err := engineFor(c)
			if err != nil {
				return err
			}
			conditions, err := readPredictions(c.String(conditionsFlag.Name), os.Stdin)
			if err != nil {
				return fmt.Errorf("conditions: %w", err)
			}
			lesions, err := readPredictions(c.String(lesionsFlag.Name), os.Stdin)
			if err != nil {
				return fmt.Errorf("lesions: %w", err)
			}
			slog.Debug("fusing", "conditions", len(conditions), "lesions", len(lesions))

			return render(c.App.Writer, c.String(formatFlag.Name), engine.Fuse(conditions, lesions))
		},
	}
)

// readPredictions accepts a list of {label, probability} objects, in JSON or YAML.
// An empty path yields no predictions.
func readPredictions(path string, stdin io.Reader) (concerns.PredictionSet, error) {
	var (
		data []byte
		err  error
	)
	switch path {
	case "":
		return nil, nil
	case "-":
		data, err = io.ReadAll(stdin)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var set concerns.PredictionSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse predictions: %w", err)
	}
	return set, nil
}
