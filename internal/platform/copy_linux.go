//go:build linux

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// copyFile tries the most efficient copy method available on Linux,
// falling through on unsupported/cross-device errors.
func copyFile(src, dst string, srcInfo os.FileInfo) (CopyResult, error) {
	dstFd, err := openDst(dst, srcInfo)
	if err != nil {
		return CopyResult{}, err
	}

	result, err := copyContents(src, dstFd, srcInfo.Size())
	if cerr := dstFd.Close(); err == nil {
		err = cerr
	}
	return result, err
}

func copyContents(src string, dstFd *os.File, size int64) (CopyResult, error) {
	preallocate(dstFd, size)

	// Try copy_file_range first.
	result, err := copyFileRange(src, dstFd, size)
	if err == nil {
		return result, nil
	}
	if !isFallbackErr(err) {
		return result, err
	}

	// Try sendfile.
	result, err = copySendfile(src, dstFd, size)
	if err == nil {
		return result, nil
	}
	if !isFallbackErr(err) {
		return result, err
	}

	// Fall back to read/write.
	return copyReadWrite(src, dstFd, size)
}

func copyFileRange(src string, dstFd *os.File, size int64) (CopyResult, error) {
	srcFd, err := os.Open(src)
	if err != nil {
		return CopyResult{}, err
	}
	defer srcFd.Close()

	remaining := size
	var roff, woff int64

	var totalWritten int64
	for remaining > 0 {
		n, err := unix.CopyFileRange(int(srcFd.Fd()), &roff, int(dstFd.Fd()), &woff, int(remaining), 0)
		if err != nil {
			if totalWritten == 0 {
				return CopyResult{}, err
			}
			return CopyResult{BytesWritten: totalWritten, Method: CopyFileRange}, err
		}
		if n == 0 {
			break
		}
		remaining -= int64(n)
		totalWritten += int64(n)
	}

	return CopyResult{BytesWritten: totalWritten, Method: CopyFileRange}, nil
}

func copySendfile(src string, dstFd *os.File, size int64) (CopyResult, error) {
	srcFd, err := os.Open(src)
	if err != nil {
		return CopyResult{}, err
	}
	defer srcFd.Close()

	remaining := size
	var offset int64

	var totalWritten int64
	for remaining > 0 {
		n, err := unix.Sendfile(int(dstFd.Fd()), int(srcFd.Fd()), &offset, int(remaining))
		if err != nil {
			if totalWritten == 0 {
				return CopyResult{}, err
			}
			return CopyResult{BytesWritten: totalWritten, Method: Sendfile}, err
		}
		if n == 0 {
			break
		}
		remaining -= int64(n)
		totalWritten += int64(n)
	}

	return CopyResult{BytesWritten: totalWritten, Method: Sendfile}, nil
}
