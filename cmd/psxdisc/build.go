package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/charlesthegreat77/psxdisc/cmd/psxdisc/project"
	"github.com/charlesthegreat77/psxdisc/internal/build"
	"github.com/charlesthegreat77/psxdisc/internal/progress"
	"github.com/charlesthegreat77/psxdisc/internal/tree"
	"github.com/charlesthegreat77/psxdisc/internal/wav"
)

var verbose bool

var buildCmd = &cobra.Command{
	Use:   "build [project.yaml]",
	Short: "Build a bootable CD image from a project description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rep := progress.Reporter(progress.Silent{})
		if verbose {
			rep = progress.Verbose{}
		}

		p, err := project.Load(args[0])
		if err != nil {
			return err
		}

		t, err := p.BuildTree(project.StatSize)
		if err != nil {
			return fmt.Errorf("building directory tree: %w", err)
		}

		if err := addAudioTracks(t, p, rep); err != nil {
			return fmt.Errorf("adding audio tracks: %w", err)
		}
		t.SortChildren(0)

		b := build.New(p.Config(), t)
		b.Rep = rep
		if err := b.Build(); err != nil {
			return fmt.Errorf("build failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print progress and warnings")
}

// addAudioTracks appends one DA entry per project track to the root
// directory, in project order, sized from each WAV file's data chunk.
func addAudioTracks(t *tree.Tree, p *project.Project, rep progress.Reporter) error {
	for _, path := range p.TrackSources() {
		info, err := wav.Inspect(path, rep)
		if err != nil {
			return fmt.Errorf("inspecting %q: %w", path, err)
		}
		name := trackIdentifier(path)
		if _, err := t.AddFile(0, tree.KindDA, name, path, uint32(info.DataLength)); err != nil {
			return fmt.Errorf("adding track %q: %w", path, err)
		}
	}
	return nil
}

// trackIdentifier derives a bare (no ";1" version suffix) 8.3 identifier
// from a WAV source path, e.g. "assets/track02.wav" -> "TRACK02".
func trackIdentifier(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ToUpper(base)
	if len(base) > 12 {
		base = base[:12]
	}
	return base
}
