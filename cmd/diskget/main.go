// Command diskget extracts a single file from a FAT12 disk image's root
// directory to the current working directory on the host.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/faucetlabs/fat12vol/internal/fat12errors"
	"github.com/faucetlabs/fat12vol/internal/volume"
)

func main() {
	app := &cli.App{
		Name:      "diskget",
		Usage:     "Extract a file from a FAT12 disk image",
		ArgsUsage: "IMAGE NAME",
		Action:    runGet,
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}

func runGet(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("Usage: diskget IMAGE NAME", 1)
	}

	imagePath := c.Args().Get(0)
	name := c.Args().Get(1)

	vol, f, err := volume.OpenFile(imagePath, false)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer f.Close()

	// The host file isn't created until volume.Get has actually located
	// the entry in the image, so a failed lookup leaves no empty file
	// behind on the host.
	out := &lazyFileWriter{path: name}
	defer out.Close()

	err = volume.Get(vol, name, out)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fat12errors.ErrNotFound):
		fmt.Println("File not found.")
		return cli.Exit("", 1)
	case errors.Is(err, fat12errors.ErrShortFile):
		fmt.Println("Warning: file is shorter on disk than its recorded size.")
		return cli.Exit("", 1)
	default:
		return cli.Exit(err.Error(), 1)
	}
}

// lazyFileWriter defers creating the backing host file until the first
// Write, so a caller that never writes to it (a failed lookup) never
// creates an empty file.
type lazyFileWriter struct {
	path string
	f    *os.File
}

func (w *lazyFileWriter) Write(p []byte) (int, error) {
	if w.f == nil {
		f, err := os.Create(w.path)
		if err != nil {
			return 0, err
		}
		w.f = f
	}
	return w.f.Write(p)
}

func (w *lazyFileWriter) Close() error {
	if w.f == nil {
		return nil
	}
	return w.f.Close()
}
