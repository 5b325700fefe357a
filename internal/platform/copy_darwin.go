//go:build darwin

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// copyFile tries clonefile first (CoW whole-file copy), then falls back
// to read/write on macOS.
func copyFile(src, dst string, srcInfo os.FileInfo) (CopyResult, error) {
	// clonefile requires the destination not to exist.
	if _, err := os.Lstat(dst); err != nil && os.IsNotExist(err) {
		err := unix.Clonefile(src, dst, 0)
		if err == nil {
			return CopyResult{BytesWritten: srcInfo.Size(), Method: Clonefile}, nil
		}
		if !isFallbackCloneErr(err) {
			return CopyResult{}, err
		}
	}

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

func isFallbackCloneErr(err error) bool {
	switch err {
	case unix.ENOTSUP, unix.EXDEV, unix.EEXIST:
		return true
	}
	return false
}
