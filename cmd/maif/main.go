package main

import (
	"fmt"
	goimage "image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/ljp-projects/maif"
	"github.com/ljp-projects/maif/image"
	"github.com/urfave/cli/v2"
)

const defaultDB = "maif.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newMAIF(c *cli.Context) (*maif.MAIF, error) {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}

	return maif.New(c.String("db"), logger)
}

func decodeAction(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	format, err := maif.ParseFormat(c.String("format"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	m, err := image.DecodeFile(c.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	if c.Bool("strict") {
		if err := m.Validate(); err != nil {
			return cli.NewExitError(err, 1)
		}
	}

	if err := maif.Export(os.Stdout, m, format); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func convertAction(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	m, err := image.DecodeFile(c.Args().Get(0))
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	var out goimage.Image = m.Gray()
	if c.Bool("mask") {
		out = m.SignMask()
	}

	f, err := os.Create(c.Args().Get(1))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer f.Close()

	if err := png.Encode(f, out); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func encodeAction(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	threshold := c.Uint("threshold")
	if threshold > 0xff {
		return cli.NewExitError(fmt.Errorf("threshold %d out of range", threshold), 1)
	}

	o := &image.Options{
		Levels:    c.Int("levels"),
		Threshold: uint8(threshold),
	}

	if s := c.String("time"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		o.Time = t
	}

	in, err := os.Open(c.Args().Get(0))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer in.Close()

	src, _, err := goimage.Decode(in)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	out, err := os.Create(c.Args().Get(1))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer out.Close()

	if err := image.Encode(out, src, o); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func importAction(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	m, err := newMAIF(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer m.Close()

	if err := m.Import(c.Args().Slice()...); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func scanAction(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	m, err := newMAIF(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer m.Close()

	if err := m.Scan(c.Args().First()); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func listAction(c *cli.Context) error {
	m, err := newMAIF(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer m.Close()

	entries, err := m.Catalog().List()
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 1, ' ', 0)
	fmt.Fprintln(w, "ID\tSIZE\tPIXELS\tTIMESTAMP\tPATH")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%dx%d\t%d\t%s\t%s\n", e.ID, e.Header.Width, e.Header.Height, e.Pixels, e.Header.Timestamp, e.Path)
	}

	return w.Flush()
}

func showAction(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	format, err := maif.ParseFormat(c.String("format"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	m, err := newMAIF(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer m.Close()

	img, err := m.Catalog().Image(c.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	if err := maif.Export(os.Stdout, img, format); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "maif"
	app.Usage = "MAIF image decoding and cataloging utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	formatFlag := &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   maif.FormatText.String(),
		Usage:   "output format: text, json, yaml or cbor",
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"MAIF_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "decode",
			Usage:     "Decode a MAIF file and print it",
			ArgsUsage: "FILE",
			Flags: []cli.Flag{
				formatFlag,
				&cli.BoolFlag{
					Name:  "strict",
					Usage: "fail on a truncated header or a pixel count that doesn't match the dimensions",
				},
			},
			Action: decodeAction,
		},
		{
			Name:      "convert",
			Usage:     "Convert a MAIF file to PNG",
			ArgsUsage: "FILE OUTPUT",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "mask",
					Usage: "write the sign bits instead of the intensities",
				},
			},
			Action: convertAction,
		},
		{
			Name:      "encode",
			Usage:     "Encode a PNG, JPEG or GIF image as MAIF",
			ArgsUsage: "INPUT OUTPUT",
			Flags: []cli.Flag{
				&cli.UintFlag{
					Name:  "threshold",
					Usage: "set the sign bit for luminance at or above this value (1-255)",
				},
				&cli.IntFlag{
					Name:  "levels",
					Value: 128,
					Usage: "number of intensity levels (1-128)",
				},
				&cli.StringFlag{
					Name:  "time",
					Usage: "RFC 3339 timestamp to write in the header",
				},
			},
			Action: encodeAction,
		},
		{
			Name:      "import",
			Usage:     "Add MAIF files to the catalog",
			ArgsUsage: "FILE...",
			Action:    importAction,
		},
		{
			Name:      "scan",
			Usage:     "Scan filesystem and add every MAIF file to the catalog",
			ArgsUsage: "DIRECTORY",
			Action:    scanAction,
		},
		{
			Name:   "list",
			Usage:  "List cataloged images",
			Action: listAction,
		},
		{
			Name:      "show",
			Usage:     "Print a cataloged image",
			ArgsUsage: "ID",
			Flags:     []cli.Flag{formatFlag},
			Action:    showAction,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
