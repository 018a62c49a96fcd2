package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "psxdisc",
	Short: "Author bootable PlayStation CD-ROM images",
	Long: `psxdisc builds a bootable PlayStation CD-ROM image from a YAML
project description: an ISO9660/CD-XA data track plus any number of CD-DA
audio tracks.

Examples:
  psxdisc build project.yaml
  psxdisc inspect project.yaml`,
}
