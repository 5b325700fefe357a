//go:build !linux && !darwin

package platform

import "os"

// copyFile falls back to read/write on unsupported platforms.
func copyFile(src, dst string, srcInfo os.FileInfo) (CopyResult, error) {
	dstFd, err := openDst(dst, srcInfo)
	if err != nil {
		return CopyResult{}, err
	}
	preallocate(dstFd, srcInfo.Size())

	result, err := copyReadWrite(src, dstFd, srcInfo.Size())
	if cerr := dstFd.Close(); err == nil {
		err = cerr
	}
	return result, err
}
