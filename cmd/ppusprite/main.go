package main

import (
	"fmt"
	"image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	"github.com/bodgit/ppusprite"
	"github.com/bodgit/ppusprite/asset"
	"github.com/bodgit/ppusprite/tile"
	"github.com/urfave/cli/v2"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newPacker(c *cli.Context) (*ppusprite.Packer, func(), error) {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}

	opts := ppusprite.Options{
		Reduce:  c.Bool("reduce"),
		Workers: c.Int("workers"),
	}

	if c.String("db") == "" {
		return ppusprite.New(nil, logger, opts), func() {}, nil
	}

	db, err := ppusprite.NewSpriteDB(c.String("db"))
	if err != nil {
		return nil, nil, err
	}

	return ppusprite.New(db, logger, opts), func() { db.Close() }, nil
}

func readSprites(file string) ([]asset.Sprite, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sprites, err := asset.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return sprites, nil
}

func pack(c *cli.Context) error {
	if c.NArg() < 1 || c.String("output") == "" {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	p, closer, err := newPacker(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer closer()

	f, err := os.Create(c.String("output"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	if err := p.Pack(f, c.Args().Slice()); err != nil {
		f.Close()
		os.Remove(c.String("output"))
		return cli.NewExitError(err, 1)
	}

	if err := f.Close(); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func list(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	sprites, err := readSprites(c.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	for _, s := range sprites {
		fmt.Fprintf(c.App.Writer, "%s\t%d palettes\t%d tiles\n", s.Name, len(s.Palettes), len(s.Tiles))
	}

	return nil
}

func unpack(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	sprites, err := readSprites(c.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	dir := c.String("output")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return cli.NewExitError(err, 1)
	}

	for i, s := range sprites {
		if len(s.Palettes) == 0 || len(s.Tiles) == 0 {
			continue
		}

		name := s.Name
		if name == "" {
			name = fmt.Sprintf("sprite%d", i)
		}

		f, err := os.Create(filepath.Join(dir, filepath.Base(name)+".png"))
		if err != nil {
			return cli.NewExitError(err, 1)
		}

		if err := png.Encode(f, tile.Image(s.Palettes[0], s.Tiles, c.Int("width"))); err != nil {
			f.Close()
			return cli.NewExitError(err, 1)
		}

		if err := f.Close(); err != nil {
			return cli.NewExitError(err, 1)
		}
	}

	return nil
}

func scan(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	p, closer, err := newPacker(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer closer()

	if err := p.Scan(c.Args().First()); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "ppusprite"
	app.Usage = "4 color tile sprite conversion utility"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"PPUSPRITE_DB"},
			Usage:   "path to conversion cache database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
		&cli.BoolFlag{
			Name:  "reduce",
			Usage: "reduce images to 3 colors instead of failing",
		},
		&cli.IntFlag{
			Name:  "workers",
			Value: 10,
			Usage: "number of directories to convert concurrently",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "pack",
			Usage:       "Convert images into a sprite container",
			Description: "Each image becomes one sprite named after the file",
			ArgsUsage:   "FILE...",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "container to write",
				},
			},
			Action: pack,
		},
		{
			Name:        "list",
			Usage:       "List the sprites in a container",
			Description: "",
			ArgsUsage:   "FILE",
			Action:      list,
		},
		{
			Name:        "unpack",
			Usage:       "Render the sprites in a container as PNG images",
			Description: "",
			ArgsUsage:   "FILE",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Value:   ".",
					Usage:   "directory to write images to",
				},
				&cli.IntFlag{
					Name:  "width",
					Usage: "tiles per row, 0 for a single row",
				},
			},
			Action: unpack,
		},
		{
			Name:        "scan",
			Usage:       "Scan filesystem and write a container to each directory of images",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Action:      scan,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
