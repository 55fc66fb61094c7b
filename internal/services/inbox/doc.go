// Package inbox pulls sealed credential messages for the local peer from the
// relay and hands them to the key agreement service.
package inbox
