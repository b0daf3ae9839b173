// Package utils holds small parsing helpers shared by the HTTP handlers and
// the CLI, mainly for loose query parameter and flag values.
package utils
