// Command psxdisc builds bootable PlayStation CD-ROM images from a YAML
// project description: an ISO9660/CD-XA data track plus any number of
// CD-DA audio tracks, emitted as a raw .bin and its accompanying .cue.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
