// Package file stores tool configuration as a TOML file, with QUARRY_*
// environment variables taking precedence over file values.
package file
