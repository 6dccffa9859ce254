// Package schema provides the principal schematics for all other packages. It
// defines the shared storage data model, the closed set of result-kind errors
// and provides implementations for handling (Unix-based) operating system
// syscalls and wall-clock time. The package serves as a foundational layer for
// the driver, filesystem and user interface packages of the storage stack.
package schema
