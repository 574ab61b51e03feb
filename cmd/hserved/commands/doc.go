// Package commands holds the cobra command tree for the hserved daemon.
package commands
