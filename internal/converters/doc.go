// Package converters resolves document format converters by MIME type and
// filename extension. Individual formats live in subpackages; this package
// holds the registry that dispatches to them.
package converters
