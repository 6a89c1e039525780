// Package plugin defines the component capability interfaces and the
// type-tag registry the executor resolves them from.
//
// A component type is a string tag (e.g. "env", "archive") mapped to a
// factory. The factory receives the component's raw config and returns a
// ready-to-run implementation; each plugin decodes its own options and
// applies safe defaults.
package plugin
