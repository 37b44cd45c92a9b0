package utils

import (
	"path/filepath"
	"strings"
	"unicode"
)

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// OutputPath returns where the Groovy class for inPath goes: next to the
// input, or in outDir when it is set, with the extension replaced.
func OutputPath(inPath, outDir string) string {
	base := filepath.Base(inPath)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	dir := filepath.Dir(inPath)
	if outDir != "" {
		dir = outDir
	}
	return filepath.Join(dir, base+".groovy")
}

// ClassName derives a Groovy class name from a style file name:
// "alpha-num.bst" becomes "AlphaNum".
func ClassName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var sb strings.Builder
	upper := true
	for _, r := range base {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}
	name := sb.String()
	if name == "" || unicode.IsDigit(rune(name[0])) {
		name = "Style" + name
	}
	return name
}
