// Command diskput copies a host file into a FAT12 disk image.
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
		Name:      "diskput",
		Usage:     "Copy a host file into a FAT12 disk image",
		ArgsUsage: "IMAGE [DIR/]NAME",
		Action:    runPut,
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}

func runPut(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("Usage: diskput IMAGE [DIR/]NAME", 1)
	}

	imagePath := c.Args().Get(0)
	target := c.Args().Get(1)

	vol, f, err := volume.OpenFile(imagePath, true)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer f.Close()

	dirPath, baseName := volume.SplitPutArgument(target)

	err = volume.Put(vol, dirPath, baseName, baseName)
	switch {
	case err == nil:
		fmt.Println("File copied successfully.")
		return nil
	case errors.Is(err, fat12errors.ErrDirectoryNotFound):
		fmt.Println("The directory not found.")
		return cli.Exit("", 1)
	case errors.Is(err, fat12errors.ErrNotFound):
		fmt.Println("File not found.")
		return cli.Exit("", 1)
	case errors.Is(err, fat12errors.ErrNotEnoughSpace):
		fmt.Println("No enough free space in the disk image.")
		return cli.Exit("", 1)
	case errors.Is(err, fat12errors.ErrDirFull):
		fmt.Println("Directory is full.")
		return cli.Exit("", 1)
	default:
		return cli.Exit(err.Error(), 1)
	}
}
