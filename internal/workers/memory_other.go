//go:build !linux

package workers

func systemMemoryBytes() (uint64, bool) {
	return 0, false
}
