// Package pkg provides the core libraries for tilekit, a sprite-sheet tileset
// organizer.
//
// # Overview
//
// A tileset starts as a single sprite sheet. tilekit slices it into a grid
// of tiles, lets a curator describe named groups in a config file, and
// writes one directory per group with the tiles, an assembled composite for
// layout groups, edge-match suggestions for loose groups and a tileset.json
// index. The pkg directory is organized into three areas:
//
//  1. Inputs - [manifest] (slicer output) and [config] (grouping config)
//  2. Core - [pixel], [layout], [edgematch] and [organizer], all pure and
//     in-memory
//  3. Outputs - [metadata], [render/overview], [render/adjacency], and the
//     [pipeline] that loads, runs and commits everything to disk
//
// # Architecture
//
// The typical data flow through tilekit:
//
//	sheet.png
//	    ↓
//	[slicer] → tile_*.png + manifest.json
//	    ↓
//	[manifest] + [config] (resolved against the manifest)
//	    ↓
//	[pixel] index (sheets decoded once through [imageio])
//	    ↓
//	[organizer] → [layout] / [edgematch] per group
//	    ↓
//	[pipeline] staged commit → organized tree + tileset.json
//
// # Quick Start
//
//	runner, err := pipeline.NewRunner(logger)
//	if err != nil {
//	    return err
//	}
//	res, err := runner.Organize(ctx, pipeline.Options{
//	    Manifest: "sliced_tilesets/dungeon_16x16",
//	    Config:   "configs/dungeon.toml",
//	})
//
// # Supporting Packages
//
// [errors] defines code-based structured errors carrying the group path and
// offending tile ids. [observability] exposes no-op hooks for organize runs,
// sheet decoding and output commits. [buildinfo] carries version information
// injected at build time.
//
// [manifest]: https://pkg.go.dev/github.com/matzehuels/tilekit/pkg/manifest
// [config]: https://pkg.go.dev/github.com/matzehuels/tilekit/pkg/config
// [pixel]: https://pkg.go.dev/github.com/matzehuels/tilekit/pkg/pixel
// [layout]: https://pkg.go.dev/github.com/matzehuels/tilekit/pkg/layout
// [edgematch]: https://pkg.go.dev/github.com/matzehuels/tilekit/pkg/edgematch
// [organizer]: https://pkg.go.dev/github.com/matzehuels/tilekit/pkg/organizer
// [metadata]: https://pkg.go.dev/github.com/matzehuels/tilekit/pkg/metadata
// [render/overview]: https://pkg.go.dev/github.com/matzehuels/tilekit/pkg/render/overview
// [render/adjacency]: https://pkg.go.dev/github.com/matzehuels/tilekit/pkg/render/adjacency
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/tilekit/pkg/pipeline
// [slicer]: https://pkg.go.dev/github.com/matzehuels/tilekit/pkg/slicer
// [imageio]: https://pkg.go.dev/github.com/matzehuels/tilekit/pkg/imageio
// [errors]: https://pkg.go.dev/github.com/matzehuels/tilekit/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/tilekit/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/tilekit/pkg/buildinfo
package pkg
