// Command jrnlreplay mounts a journal store with replay enabled, forcing
// any pending transaction (rollback or roll-forward) to be resolved, then
// exits. Useful after a crash when the FS layer itself isn't available to
// drive the mount.
package main

import (
	"fmt"
	"os"

	"github.com/dsoprea/go-logging"
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
		ReplayJournalAfterMount: true,
	}

	j, err := jrnl.MountJournal(fd, cfg)
	log.PanicIf(err)

	defer j.Unmount()

	fmt.Printf("replay complete; status is now %s\n", j.Status())
}
