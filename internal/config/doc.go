// Package config loads kvstored's key=value text configuration file.
//
// Unknown keys are ignored; a missing file yields the defaults unchanged.
// Any other open or read failure, or a non-numeric value for a numeric key,
// is returned as an error.
package config
