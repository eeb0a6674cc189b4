// Command c64emu boots a D64/D81 disk image into the emulator core and
// either drives an interactive ebiten window, or (via the headless
// subcommand) runs a fixed number of frames and checksums the result for
// toolchain-free regression testing.
package main

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const defaultDiskImage = "steelrangerdemo"

// cliConfig is one flat struct carrying every flag this binary understands,
// no viper/koanf layer.
type cliConfig struct {
	DiskImageName  string
	DiskDir        string
	SaveDir        string
	BugJMPIndirect bool
	ZeroCostIRQ    bool
	Scale          int
}

var cfg = cliConfig{
	DiskImageName:  defaultDiskImage,
	DiskDir:        "disks",
	SaveDir:        "savedata",
	BugJMPIndirect: true,
	ZeroCostIRQ:    true,
	Scale:          3,
}

func main() {
	// cobra (like the standard flag package) has no idiom for an unprefixed
	// "key=value" positional argument, so the bare "diskimage=<name>" form
	// is scanned out of os.Args before cobra ever sees them.
	os.Args = extractDiskImageArg(os.Args, &cfg.DiskImageName)

	root := &cobra.Command{
		Use:   "c64emu",
		Short: "A Commodore 64 emulator core driven by a disk image",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runInteractive(cfg); err != nil {
				log.Fatal(err)
			}
		},
	}
	root.PersistentFlags().StringVar(&cfg.DiskDir, "diskdir", cfg.DiskDir, "directory holding .d64/.d81 images")
	root.PersistentFlags().StringVar(&cfg.SaveDir, "savedir", cfg.SaveDir, "directory holding save-file overlays")
	root.PersistentFlags().BoolVar(&cfg.BugJMPIndirect, "jmp-bug", cfg.BugJMPIndirect, "emulate the JMP ($xxFF) page-wrap bug")
	root.PersistentFlags().BoolVar(&cfg.ZeroCostIRQ, "zero-cost-irq", cfg.ZeroCostIRQ, "omit the +7 cycle cost of IRQ entry")
	root.Flags().IntVar(&cfg.Scale, "scale", cfg.Scale, "window scale factor")

	var headlessCfg headlessConfig
	headlessCmd := &cobra.Command{
		Use:   "headless",
		Short: "Run N frames without a window and checksum the framebuffer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeadless(cfg, headlessCfg)
		},
	}
	headlessCmd.Flags().IntVar(&headlessCfg.Frames, "frames", 300, "frames to run")
	headlessCmd.Flags().StringVar(&headlessCfg.PNGOut, "png", "", "write the final framebuffer to this PNG path")
	headlessCmd.Flags().StringVar(&headlessCfg.Expect, "expect", "", "assert the framebuffer CRC32 (hex)")
	root.AddCommand(headlessCmd)

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

// extractDiskImageArg scans argv for a bare "diskimage=<name>" token,
// stores the name in out, and returns argv with that token removed so
// cobra never has to parse it.
func extractDiskImageArg(argv []string, out *string) []string {
	filtered := argv[:1]
	for _, a := range argv[1:] {
		if strings.HasPrefix(a, "diskimage=") {
			*out = strings.TrimPrefix(a, "diskimage=")
			continue
		}
		filtered = append(filtered, a)
	}
	return filtered
}
