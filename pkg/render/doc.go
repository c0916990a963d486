// Package render groups tilekit's image and graph outputs.
//
// Neither subpackage touches the file system; callers encode and write the
// returned values.
//
//   - [overview]: a scaled, labelled contact sheet of every manifest tile,
//     optionally framed in per-group colours.
//   - [adjacency]: Graphviz DOT for an edge-match group's suggestions, and
//     SVG rendered from it.
//
// [overview]: https://pkg.go.dev/github.com/matzehuels/tilekit/pkg/render/overview
// [adjacency]: https://pkg.go.dev/github.com/matzehuels/tilekit/pkg/render/adjacency
package render
