package migration

import "sort"

// Sort returns a new slice of files sorted by Filename in byte-wise
// lexicographic order, so "010_index.sql" comes after "001_init.sql" and
// "10_x.sql" comes before "9_y.sql".
func Sort(files []File) []File {
	sorted := make([]File, len(files))
	copy(sorted, files)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Filename < sorted[j].Filename
	})

	return sorted
}

// Filenames returns the filenames of files in their current order.
func Filenames(files []File) []string {
	names := make([]string, len(files))
	for i := range files {
		names[i] = files[i].Filename
	}

	return names
}
