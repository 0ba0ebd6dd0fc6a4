// Package lib implement utilities shared by device memory resources,
// not really meant for applications.
package lib
