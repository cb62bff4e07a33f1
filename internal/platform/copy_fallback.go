//go:build !linux && !darwin

package platform

// Copy falls back to read/write on unsupported platforms.
func Copy(params CopyParams) (CopyResult, error) {
	return copyReadWrite(params)
}
