package common

import (
	"math/rand"
	"os"
	"path"
	"path/filepath"
	"strconv"
)

func MkdirForFile(fileName string) error {
	if err := os.MkdirAll(filepath.Dir(fileName), os.ModePerm); err != nil {
		return err
	}
	return nil
}

func OpenTempFile(fullPath string) (f *os.File, tmpName string, err error) {
	tmpName = fullPath + ".tmp." + strconv.Itoa(rand.Int())
	f, err = os.OpenFile(tmpName, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
	return f, tmpName, err
}

// WriteFileAtomic writes data to a temp file in the same directory as name,
// then renames it over name. Readers never observe a partially written file:
// they see either the previous contents or the complete new ones.
func WriteFileAtomic(name string, data []byte) error {
	if err := MkdirForFile(name); err != nil {
		return err
	}

	f, tmpName, err := OpenTempFile(name)
	if err != nil {
		return err
	}

	_, err = f.Write(data)
	if err1 := f.Close(); err1 != nil && err == nil {
		err = err1
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, name)
}

func WriteFile(name string, data []byte) error {
	if err := MkdirForFile(name); err != nil {
		return err
	}
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}

	_, err = f.Write(data)
	if err1 := f.Close(); err1 != nil && err == nil {
		err = err1
	}

	return err
}

func ReplaceFileExt(fileName string, newExt string) string {
	ext := path.Ext(fileName)
	return fileName[0:len(fileName)-len(ext)] + newExt
}

// CopyFileBitExact copies src to dst verbatim, creating dst's parent
// directory if needed. It does not attempt to preserve src's mode bits
// beyond the default permission, matching artifact-store semantics: content
// is what's captured, not ownership or mode.
func CopyFileBitExact(src, dst string) error {
	if err := MkdirForFile(dst); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, tmpName, err := OpenTempFile(dst)
	if err != nil {
		return err
	}

	_, copyErr := out.ReadFrom(in)
	closeErr := out.Close()
	if copyErr != nil {
		_ = os.Remove(tmpName)
		return copyErr
	}
	if closeErr != nil {
		_ = os.Remove(tmpName)
		return closeErr
	}

	return os.Rename(tmpName, dst)
}

func FileExists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}
