package fat12

import (
	"strings"

	"github.com/faucetlabs/fat12vol/internal/fat12errors"
)

// Resolve walks path component by component starting from the root,
// returning the directory cluster the path names (0 for the root), per
// spec.md §4.6. Empty string and "/" both map to the root.
func Resolve(dir *Directory, path string) (DirLocation, error) {
	current := RootLocation()

	for _, component := range strings.Split(path, "/") {
		if component == "" {
			continue
		}

		var match *Dirent
		err := dir.Iterate(current, func(s Slot) bool {
			if s.Kind != SlotLive || !s.Entry.IsDir() {
				return true
			}
			if NormalizeForCompare(s.Entry.Name) == NormalizeForCompare(component) {
				e := s.Entry
				match = &e
				return false
			}
			return true
		})
		if err != nil {
			return DirLocation{}, err
		}
		if match == nil {
			return DirLocation{}, fat12errors.ErrNotFound
		}

		if match.FirstCluster == 0 {
			current = RootLocation()
		} else {
			current = ChainLocation(match.FirstCluster)
		}
	}

	return current, nil
}
