// Command-line front end for the GNSS test-case generator. It scans a
// directory of field measurements and appends one catalog record per matched
// navigation/observation pair, downloading the broadcast-ephemeris and
// precise-orbit file each pair needs.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/gnsslab/tcgen/pkg/pipeline"
	"github.com/gnsslab/tcgen/pkg/products"
)

func main() {
	app := &cli.App{
		Name:    "tcgen",
		Usage:   "generate GNSS positioning test cases from measured data",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "dir",
				Aliases:  []string{"d"},
				Usage:    "directory holding the recorded nmea and observation files",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "catalog",
				Aliases:  []string{"c"},
				Usage:    "test-case catalog file to append to",
				Required: true,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: products.DefaultTimeout,
				Usage: "network timeout per download",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	logger := zap.NewNop()
	if c.Bool("verbose") {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
		defer logger.Sync()
	}

	timeout := c.Duration("timeout")
	gen, err := pipeline.New(pipeline.Config{
		DataDir:     c.String("dir"),
		CatalogPath: c.String("catalog"),
		Ephemeris:   products.NewSource(products.Ephemeris, timeout),
		Orbit:       products.NewSource(products.Orbit, timeout),
		Progress: func(line string, completed int) {
			fmt.Printf("[%d] %s\n", completed, line)
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	sum, err := gen.Run()
	if err != nil {
		return err
	}

	fmt.Println(sum)
	return nil
}
