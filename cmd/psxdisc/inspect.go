package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/charlesthegreat77/psxdisc/cmd/psxdisc/project"
	"github.com/charlesthegreat77/psxdisc/internal/build"
	"github.com/charlesthegreat77/psxdisc/internal/progress"
	"github.com/charlesthegreat77/psxdisc/internal/tree"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [project.yaml]",
	Short: "Print the computed LBA listing without writing an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := project.Load(args[0])
		if err != nil {
			return err
		}
		t, err := p.BuildTree(project.StatSize)
		if err != nil {
			return fmt.Errorf("building directory tree: %w", err)
		}
		if err := addAudioTracks(t, p, progress.Silent{}); err != nil {
			return fmt.Errorf("adding audio tracks: %w", err)
		}
		t.SortChildren(0)

		b := build.New(p.Config(), t)
		plan, err := b.Plan()
		if err != nil {
			return fmt.Errorf("calculating layout: %w", err)
		}

		fmt.Printf("total sectors: %d\n", plan.TotalSectors)
		fmt.Printf("path table: %d bytes, LBAs L=%d/%d M=%d/%d\n",
			plan.PathTableSizeBytes, plan.LPathTableLBA, plan.LPathTableLBA2, plan.MPathTableLBA, plan.MPathTableLBA2)
		fmt.Println()
		fmt.Printf("%-8s %-10s %-10s %s\n", "LBA", "SIZE", "KIND", "PATH")
		printEntry(t, 0, "")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func printEntry(t *tree.Tree, idx int, prefix string) {
	e := &t.Entries[idx]
	path := prefix
	if e.Name != "" {
		path = prefix + "/" + e.Name
	}
	if path == "" {
		path = "/"
	}
	fmt.Printf("%-8d %-10d %-10s %s\n", e.Sector, e.Size, e.Kind, path)
	for _, c := range e.Children {
		childPrefix := path
		if idx == 0 {
			childPrefix = ""
		}
		printEntry(t, c, childPrefix)
	}
}
