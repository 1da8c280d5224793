// Package snapshot provides content mutators that rewrite a working filesystem so it
// matches one historical snapshot while keeping the .git metadata directory intact.
package snapshot
