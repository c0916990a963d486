// Package pipeline runs tilekit's file-system workflows: slicing a sheet,
// organizing a sliced tileset, and rendering an overview.
//
// The packages below pipeline are pure and work on in-memory data. This
// package loads their inputs from disk, runs them, and materializes the
// results. Output trees are written into a hidden staging directory next to
// the destination and renamed into place only once every file, including
// tileset.json, has been written; a failed or cancelled run leaves no
// output behind.
//
// # Usage
//
//	runner, err := pipeline.NewRunner(logger)
//	if err != nil {
//	    return err
//	}
//	res, err := runner.Organize(ctx, pipeline.Options{
//	    Manifest: "sliced_tilesets/dungeon_16x16/manifest.json",
//	    Config:   "configs/dungeon.toml",
//	})
package pipeline

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tilekit/pkg/errors"
	"github.com/matzehuels/tilekit/pkg/manifest"
	"github.com/matzehuels/tilekit/pkg/organizer"
	"github.com/matzehuels/tilekit/pkg/render/overview"
	"github.com/matzehuels/tilekit/pkg/slicer"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and library callers
// =============================================================================

const (
	// DefaultSlicedRoot holds slicer output directories.
	DefaultSlicedRoot = "sliced_tilesets"

	// DefaultOrganizedRoot holds organized trees, one per tileset id.
	DefaultOrganizedRoot = "organized_tilesets"

	// DefaultOverviewName is the overview file written next to a manifest.
	DefaultOverviewName = "overview.png"

	// DefaultSheetCache is the number of decoded sheets kept in memory.
	DefaultSheetCache = 8
)

// Graph export formats for edge-match groups.
const (
	GraphNone = "none"
	GraphDOT  = "dot"
	GraphSVG  = "svg"
)

// ValidGraphFormats is the set of supported graph export formats.
var ValidGraphFormats = map[string]bool{
	GraphNone: true,
	GraphDOT:  true,
	GraphSVG:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline workflows.
// Each workflow reads only its own section plus Out, Overwrite and Logger.
type Options struct {
	// Shared
	Out       string // Output directory (slice, organize) or file (overview)
	Root      string // Parent of the default Out; DefaultSlicedRoot or DefaultOrganizedRoot when empty
	Overwrite bool

	// Organize options
	Manifest  string // manifest.json, or the sliced directory holding it
	Config    string // Grouping config (.json or .toml); optional for overview
	TilesetID string
	Jobs      int
	Graph     string // none, dot or svg
	GraphAll  bool   // Draw every candidate, not just the best

	// Slice options
	Image            string
	TileSize         [2]int
	Margin           [2]int
	Spacing          [2]int
	TrimEmpty        bool
	TransparentWhite bool

	// Overview options
	Scale  int
	Pad    int
	Label  string
	Swatch bool

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Stats contains workflow timing and size information.
type Stats struct {
	Groups     int
	Tiles      int
	Unassigned int
	Files      int
	LoadTime   time.Duration
	RunTime    time.Duration
	WriteTime  time.Duration
}

// OrganizeResult describes a committed organized tree.
type OrganizeResult struct {
	RunID     string
	OutDir    string
	Organized *organizer.Result
	Files     []string // Relative to OutDir, in write order
	Stats     Stats
}

// SliceResult describes a committed sliced directory.
type SliceResult struct {
	RunID    string
	OutDir   string
	Manifest *manifest.Manifest
	Trimmed  int
	Stats    Stats
}

// OverviewResult describes a written contact sheet.
type OverviewResult struct {
	Path   string
	Width  int
	Height int
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateGraphFormat checks that a graph export format is valid.
func ValidateGraphFormat(format string) error {
	if !ValidGraphFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid graph format: %q (must be one of: none, dot, svg)", format)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForOrganize checks required fields and applies organize defaults.
// The manifest path must already point at the manifest file.
func (o *Options) ValidateForOrganize() error {
	o.setLogger()
	if o.Manifest == "" {
		return errors.New(errors.ErrCodeInvalidInput, "manifest is required")
	}
	if o.Config == "" {
		return errors.New(errors.ErrCodeInvalidInput, "config is required")
	}
	if o.TilesetID == "" {
		o.TilesetID = filepath.Base(filepath.Dir(o.Manifest))
	}
	if err := errors.ValidateTilesetID(o.TilesetID); err != nil {
		return err
	}
	if o.Out == "" {
		o.Out = filepath.Join(orDefault(o.Root, DefaultOrganizedRoot), o.TilesetID)
	}
	if o.Graph == "" {
		o.Graph = GraphNone
	}
	return ValidateGraphFormat(o.Graph)
}

// ValidateForSlice checks required fields and applies slice defaults.
func (o *Options) ValidateForSlice() error {
	o.setLogger()
	if o.Image == "" {
		return errors.New(errors.ErrCodeInvalidInput, "image is required")
	}
	if o.TileSize[0] == 0 {
		o.TileSize[0] = slicer.DefaultTileSize
	}
	if o.TileSize[1] == 0 {
		o.TileSize[1] = slicer.DefaultTileSize
	}
	if o.Out == "" {
		stem := strings.TrimSuffix(filepath.Base(o.Image), filepath.Ext(o.Image))
		o.Out = filepath.Join(orDefault(o.Root, DefaultSlicedRoot), fmt.Sprintf("%s_%dx%d", stem, o.TileSize[0], o.TileSize[1]))
	}
	return o.SliceSpec().Validate()
}

// SliceSpec returns the grid geometry described by the slice options.
func (o *Options) SliceSpec() slicer.Spec {
	return slicer.Spec{
		TileSize: pt(o.TileSize),
		Margin:   pt(o.Margin),
		Spacing:  pt(o.Spacing),
	}
}

// ValidateForOverview checks required fields and applies overview defaults.
func (o *Options) ValidateForOverview() error {
	o.setLogger()
	if o.Manifest == "" {
		return errors.New(errors.ErrCodeInvalidInput, "manifest is required")
	}
	if o.Out == "" {
		o.Out = filepath.Join(filepath.Dir(o.Manifest), DefaultOverviewName)
	}
	if o.Scale <= 0 {
		o.Scale = overview.DefaultScale
	}
	if o.Pad < 0 {
		o.Pad = overview.DefaultPad
	}
	if o.Label == "" {
		o.Label = string(overview.LabelIndexXY)
	}
	_, err := overview.ParseLabel(o.Label)
	return err
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
