// Package project loads the YAML project description that drives a
// build: image/cue output names, the seven ISO9660 identifier strings,
// the directory tree (dirs, files, dummies), and the CD-DA track list.
// It is deliberately the only place in the module that knows about YAML
// or the filesystem layout of a project file; internal/tree and
// internal/buildcfg never import it.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/charlesthegreat77/psxdisc/internal/buildcfg"
	"github.com/charlesthegreat77/psxdisc/internal/tree"
)

// FileEntry describes one "file:" node in the tree.
type FileEntry struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
	Type   string `yaml:"type"` // data | data-only | mixed | xa | da
}

// DummyEntry describes one "dummy:" node in the tree.
type DummyEntry struct {
	Sectors uint32 `yaml:"sectors"`
}

// DirEntry describes one "dir:" node and its nested entries.
type DirEntry struct {
	ID      string `yaml:"id"`
	Entries []Node `yaml:"entries"`
}

// Node is one entry of a tree list: exactly one of Dir, File, Dummy is set.
type Node struct {
	Dir   *DirEntry   `yaml:"dir,omitempty"`
	File  *FileEntry  `yaml:"file,omitempty"`
	Dummy *DummyEntry `yaml:"dummy,omitempty"`
}

// TrackEntry names one CD-DA audio track's WAV source.
type TrackEntry struct {
	Name string `yaml:"name"`
}

// Project is the decoded shape of a project YAML file.
type Project struct {
	ImageName    string `yaml:"image_name"`
	CueSheet     string `yaml:"cue_sheet"`
	NoXA         bool   `yaml:"no_xa"`
	System       string `yaml:"system"`
	Application  string `yaml:"application"`
	Volume       string `yaml:"volume"`
	VolumeSet    string `yaml:"volumeset"`
	Publisher    string `yaml:"publisher"`
	DataPreparer string `yaml:"datapreparer"`
	Copyright    string `yaml:"copyright"`
	LicenseFile  string `yaml:"license_file"`

	Tree   []Node       `yaml:"tree"`
	Tracks []TrackEntry `yaml:"tracks"`

	baseDir string // directory the project file lives in, for resolving relative sources
}

// Load reads and parses a project file at path.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &buildcfg.SourceIOError{Path: path, Err: err}
	}
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, &buildcfg.FormatError{Path: path, Msg: fmt.Sprintf("invalid project YAML: %v", err)}
	}
	p.baseDir = filepath.Dir(path)
	return &p, nil
}

// Config translates the project's top-level fields into a buildcfg.Config.
func (p *Project) Config() *buildcfg.Config {
	c := buildcfg.DefaultConfig()
	if p.ImageName != "" {
		c.ImageName = p.ImageName
	}
	if p.CueSheet != "" {
		c.CueSheet = p.CueSheet
	}
	c.NoXA = p.NoXA
	if p.System != "" {
		c.SystemIdentifier = p.System
	}
	c.VolumeIdentifier = p.Volume
	c.VolumeSetIdentifier = p.VolumeSet
	c.PublisherIdentifier = p.Publisher
	c.DataPreparerIdentifier = p.DataPreparer
	if p.Application != "" {
		c.ApplicationIdentifier = p.Application
	}
	c.CopyrightFile = p.Copyright
	if p.LicenseFile != "" {
		c.LicenseFile = p.resolvePath(p.LicenseFile)
	}
	return c
}

func (p *Project) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.baseDir, path)
}

// kindForType maps a file node's "type" string to a tree.Kind, defaulting
// to a plain data file when type is empty.
func kindForType(t string) (tree.Kind, error) {
	switch t {
	case "", "data":
		return tree.KindFile, nil
	case "data-only":
		return tree.KindStreamDataOnly, nil
	case "mixed":
		return tree.KindStream, nil
	case "xa":
		return tree.KindXA, nil
	case "da":
		return tree.KindDA, nil
	default:
		return 0, &buildcfg.FormatError{Msg: fmt.Sprintf("unknown file type %q", t)}
	}
}

// BuildTree walks the project's tree nodes into a new tree.Tree, using
// statSize to determine each file's byte length (normally os.Stat, swapped
// in tests for a stub).
func (p *Project) BuildTree(statSize func(path string) (uint32, error)) (*tree.Tree, error) {
	t := tree.New()
	if err := p.addNodes(t, 0, p.Tree, statSize); err != nil {
		return nil, err
	}
	t.SortAll()
	return t, nil
}

func (p *Project) addNodes(t *tree.Tree, parent int, nodes []Node, statSize func(string) (uint32, error)) error {
	for _, n := range nodes {
		switch {
		case n.Dir != nil:
			idx, err := t.AddDir(parent, n.Dir.ID)
			if err != nil {
				return err
			}
			if err := p.addNodes(t, idx, n.Dir.Entries, statSize); err != nil {
				return err
			}
		case n.File != nil:
			kind, err := kindForType(n.File.Type)
			if err != nil {
				return err
			}
			full := p.resolvePath(n.File.Source)
			size, err := statSize(full)
			if err != nil {
				return &buildcfg.SourceIOError{Path: full, Err: err}
			}
			if _, err := t.AddFile(parent, kind, n.File.Name, full, size); err != nil {
				return err
			}
		case n.Dummy != nil:
			t.AddDummy(parent, n.Dummy.Sectors)
		default:
			return &buildcfg.FormatError{Msg: "tree node has neither dir, file, nor dummy set"}
		}
	}
	return nil
}

// StatSize is the default statSize implementation for BuildTree: the
// source file's size on disk.
func StatSize(path string) (uint32, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return uint32(info.Size()), nil
}

// TrackSources returns each audio track's resolved WAV path, in project
// order (which must match the order DA entries were added to the tree).
func (p *Project) TrackSources() []string {
	out := make([]string, len(p.Tracks))
	for i, tr := range p.Tracks {
		out[i] = p.resolvePath(tr.Name)
	}
	return out
}
