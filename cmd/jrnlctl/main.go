// Command jrnlctl reports the status, sector size and FS-visible sector count
// of a journal store. It mounts with replay disabled, so an existing store is
// left as it is; an image with no valid master record gets a fresh one
// written by the mount. Magic validity and the log tail are not printed.
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
	Filepath         string `short:"f" long:"filepath" description:"File-path of the volume image" required:"true"`
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

	fd, err := jrnl.OpenFileDiskIO(rootArguments.Filepath)
	log.PanicIf(err)

	defer fd.Close()

	cfg := jrnl.Config{
		VolumeSize:              rootArguments.VolumeSize,
		SectorSize:              rootArguments.SectorSize,
		StoreSizeSectors:        rootArguments.StoreSizeSectors,
		OverwriteExisting:       false,
		ReplayJournalAfterMount: false,
	}

	j, err := jrnl.MountJournal(fd, cfg)
	log.PanicIf(err)

	defer j.Unmount()

	fmt.Printf("status:       %s\n", j.Status())
	fmt.Printf("sector size:  %d\n", j.GetSectorSize())
	fmt.Printf("fs sectors:   %d (%s)\n", j.GetSectorCount(), humanize.Bytes(j.GetSectorCount()*uint64(j.GetSectorSize())))
}
