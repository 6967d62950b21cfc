// Command jrnlfmt creates a fresh, empty journal store over a flat image
// file, formatting it from scratch.
package main

import (
	"fmt"
	"os"

	"github.com/dsoprea/go-logging"
	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"

	jrnl "github.com/espjrnl/go-jrnl"
)

type rootParameters struct {
	Filepath         string `short:"f" long:"filepath" description:"File-path of the volume image to create" required:"true"`
	VolumeSize       int64  `short:"s" long:"volume-size" description:"Total volume size in bytes" required:"true"`
	SectorSize       uint32 `short:"b" long:"sector-size" description:"Sector size in bytes" default:"4096"`
	StoreSizeSectors uint64 `short:"k" long:"store-size-sectors" description:"Sectors reserved for the journal store" default:"32"`
}

var rootArguments = new(rootParameters)

func main() {
	defer func() {
		if state := recover(); state != nil {
			err := log.Wrap(state.(error))
			log.PrintError(err)
			os.Exit(-1)
		}
	}()

	p := flags.NewParser(rootArguments, flags.Default)

	_, err := p.Parse()
	if err != nil {
		os.Exit(1)
	}

	fd, err := jrnl.CreateImage(rootArguments.Filepath, rootArguments.VolumeSize)
	log.PanicIf(err)

	defer fd.Close()

	cfg := jrnl.Config{
		VolumeSize:        rootArguments.VolumeSize,
		SectorSize:        rootArguments.SectorSize,
		StoreSizeSectors:  rootArguments.StoreSizeSectors,
		OverwriteExisting: true,
		ForceFSFormat:     true,
	}

	j, err := jrnl.MountJournal(fd, cfg)
	log.PanicIf(err)

	err = j.SetDirectIO(false)
	log.PanicIf(err)

	targetSectors := j.GetSectorCount()
	targetBytes := targetSectors * uint64(j.GetSectorSize())

	fmt.Printf("formatted %s: %s total, %s usable by the file system\n",
		rootArguments.Filepath,
		humanize.Bytes(uint64(rootArguments.VolumeSize)),
		humanize.Bytes(targetBytes))
}
