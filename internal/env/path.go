package env

import "path/filepath"

func isAbs(p string) bool {
	return filepath.IsAbs(p)
}

func resolvePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
