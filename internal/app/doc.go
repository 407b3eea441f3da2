// Package app provides the application service layer.
//
// Service owns the live edit sessions of this instance: it opens new ones,
// resumes stored ones on demand, closes them, and suspends sessions that sat
// idle. HTTP handlers reach every session through it.
package app
