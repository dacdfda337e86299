// Package poilink exposes module-level metadata.
package poilink

// Version is the poilink release version.
const Version = "v0.1.0"
