// Package platform detects which video platform a pasted link belongs to and
// checks whether a value is an absolute URL.
package platform
