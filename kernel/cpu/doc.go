// Package cpu exposes the privileged instructions of the supported CPUs as Go
// functions. The implementations live in the per-architecture assembly files;
// on host builds the package is empty.
package cpu
