// Package context defines the ambient application state shared by all
// commands.
package context
