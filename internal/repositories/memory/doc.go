// Package memory implements the repository contracts in process memory.
// Each store guards its state with a mutex, so insert-if-absent and
// compare-and-set are atomic the same way the database versions are.
// Values are copied on the way in and out.
package memory
