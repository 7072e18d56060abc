package internal

import (
	"os"
	"path/filepath"
	"strings"
)

// directory entries read per ReadDir call
const dirBatch = 256

// DetectRoots returns every local disk root: drive letters on Windows, "/" and
// mounted volumes elsewhere.
func DetectRoots(goos string) []string {
	if goos == "windows" {
		var drives []string
		for c := 'C'; c <= 'Z'; c++ {
			p := string(c) + ":\\"
			if st, err := os.Stat(p); err == nil && st.IsDir() {
				drives = append(drives, p)
			}
		}
		return drives
	}
	roots := []string{"/"}
	mounts := []string{"/mnt", "/media", "/run/media", "/Volumes"} // macOS at the end
	for _, m := range mounts {
		if st, err := os.Stat(m); err == nil && st.IsDir() {
			ents, _ := os.ReadDir(m)
			for _, e := range ents {
				roots = append(roots, filepath.Join(m, e.Name()))
			}
		}
	}
	return roots
}

// extensionOf returns the text after the last dot of name. Unlike
// filepath.Ext it does not stop at path separators, so archive entry names
// can be passed as they are.
func extensionOf(name string) (string, bool) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "", false
	}
	return name[i+1:], true
}

func isDirPath(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// entryIsDir reports whether a directory entry is, or links to, a directory.
func entryIsDir(path string, d os.DirEntry) bool {
	if d.Type()&os.ModeSymlink != 0 {
		return isDirPath(path)
	}
	return d.IsDir()
}
