// Package workers sizes the lookup pool used by batch verification.
//
// Lookups are dominated by filesystem metadata calls (stat, readdir), so the
// pool runs more workers than there are CPUs. The count is still bounded so a
// large library cannot exhaust file descriptors or directory handles.
//
// CPU count comes from GOMAXPROCS, which follows container CPU limits. The
// memory signal is read from MEMORY_LIMIT (bytes, as exposed by the
// Kubernetes downward API) or, on Linux, from the kernel's total RAM figure.
// A user override always wins and is clamped to [MinOverride, MaxOverride].
package workers
