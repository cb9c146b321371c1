//go:build !windows

package host

func hiddenAttribute(string) bool {
	return false
}
