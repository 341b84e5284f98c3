package migration

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// sqlExt is the only extension picked up by the loader.
const sqlExt = ".sql"

// LoadFromDir reads every *.sql file directly under dir and returns them
// unsorted. Subdirectories and files with other extensions are ignored.
func LoadFromDir(dir string) ([]File, error) {
	files, err := LoadFromFS(os.DirFS(dir), ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory %s: %w", dir, err)
	}

	for i := range files {
		files[i].Path = filepath.Join(dir, files[i].Filename)
	}

	return files, nil
}

// LoadFromFS is LoadFromDir for an fs.FS, such as an embedded migration set.
func LoadFromFS(fsys fs.FS, dir string) ([]File, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by LoadFromDir or the caller
	}

	var files []File

	for _, entry := range entries {
		if entry.IsDir() || !isSQLFile(entry.Name()) {
			continue
		}

		f, err := readFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		files = append(files, f)
	}

	return files, nil
}

func isSQLFile(name string) bool {
	return strings.HasSuffix(name, sqlExt) && len(name) > len(sqlExt)
}

// readFile reads one migration and computes its checksum over the trimmed content.
func readFile(fsys fs.FS, name string) (File, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return File{}, fmt.Errorf("reading migration file %s: %w", name, err)
	}

	sql := strings.TrimSpace(string(data))

	return File{
		Filename: path.Base(name),
		Path:     name,
		SQL:      sql,
		Checksum: ComputeChecksum(sql),
	}, nil
}
