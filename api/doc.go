// Package api define types and interfaces common to all device memory
// resources implemented by this package, and the accelerator runtime
// interface the resources are built upon.
package api
