// Package domain defines core data models, contracts and errors shared across
// the module. It contains plain types (wire/state), interfaces and the error
// taxonomy only; no behaviour.
package domain
