//go:build !release

package check

const compiled = true
