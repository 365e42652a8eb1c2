// Command diskinfo prints a summary of a FAT12 volume image.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/faucetlabs/fat12vol/internal/volume"
)

func main() {
	app := &cli.App{
		Name:      "diskinfo",
		Usage:     "Summarize a FAT12 disk image",
		ArgsUsage: "IMAGE",
		Action:    runInfo,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runInfo(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("Usage: diskinfo IMAGE", 1)
	}

	vol, f, err := volume.OpenFile(c.Args().Get(0), false)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer f.Close()

	info, err := volume.GetInfo(vol)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	fmt.Printf("OS Name: %s\n", info.OEMName)
	fmt.Printf("Label of the disk: %s\n", info.Label)
	fmt.Printf("Total size of the disk: %d bytes\n", info.TotalBytes)
	fmt.Printf("Free size of the disk: %d bytes\n", info.FreeBytes)
	fmt.Println("=============")
	fmt.Printf("The number of files in the disk: %d\n", info.FileCount)
	fmt.Printf("Number of FAT copies: %d\n", info.NumFATs)
	fmt.Printf("Sectors per FAT: %d\n", info.SectorsPerFAT)

	return nil
}
