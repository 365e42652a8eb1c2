// Command disklist recursively lists the contents of a FAT12 disk image.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/faucetlabs/fat12vol/internal/volume"
)

func main() {
	app := &cli.App{
		Name:      "disklist",
		Usage:     "List the contents of a FAT12 disk image",
		ArgsUsage: "IMAGE",
		Action:    runList,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runList(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("Usage: disklist IMAGE", 1)
	}

	vol, f, err := volume.OpenFile(c.Args().Get(0), false)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer f.Close()

	groups, err := volume.List(vol)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	for _, group := range groups {
		fmt.Printf("\n%s\n", group.Path)
		for _, entry := range group.Entries {
			kind := "F"
			size := fmt.Sprintf("%10d", entry.Size)
			if entry.IsDir {
				kind = "D"
				size = fmt.Sprintf("%10s", "")
			}
			fmt.Printf("%s %s %-20s %s\n",
				kind, size, entry.Name, entry.ModTime.Format("2006-01-02 15:04:05"))
		}
	}

	return nil
}
