// Package types defines the LinkStore interface, link and operation entities,
// configuration, and standard errors shared by the poilink engine packages.
package types
