package main

import (
	"github.com/urfave/cli/v2"
)

var (
	classifierFlag = &cli.StringFlag{
		Name:  "classifier",
		Usage: "Which vocabulary to print: conditions or lesions",
		Value: "lesions",
	}

	taxonomyCmd = &cli.Command{
		Name:    "taxonomy",
		Aliases: []string{"t"},
		Usage:   "Print the effective label to concern mapping",
		Flags: []cli.Flag{
			classifierFlag,
			formatFlag,
		},
		Action: func(c *cli.Context) error {
			engine, err := engineFor(c)
			if err != nil {
				return err
			}
			tax, ok := engine.Taxonomy(c.String(classifierFlag.Name))
			if !ok {
				return cli.Exit("classifier must be conditions or lesions", 2)
			}
			return render(c.App.Writer, c.String(formatFlag.Name), tax.Entries())
		},
	}
)
