package volume

import (
	"time"

	bitmap "github.com/boljen/go-bitmap"
	"github.com/hashicorp/go-multierror"

	"github.com/faucetlabs/fat12vol/internal/fat12"
)

// ListEntry is one row under a ListGroup's path header, per spec.md §4.7.2.
type ListEntry struct {
	IsDir   bool
	Size    uint32
	Name    string
	ModTime time.Time
}

// ListGroup is one directory's worth of listing output: a path header
// followed by its entries.
type ListGroup struct {
	Path    string
	Entries []ListEntry
}

type queueItem struct {
	loc  fat12.DirLocation
	path string
}

// List performs the breadth-first traversal spec.md §4.7.2 describes,
// returning one ListGroup per directory visited in BFS order. `.`/`..`,
// LFN fragments, volume-label entries, and entries whose starting cluster
// is 0 or 1 are never emitted. A malformed subtree logs a warning and is
// skipped rather than aborting the whole listing.
func List(v *Volume) ([]ListGroup, error) {
	totalClusters := v.Table.TotalClusters()
	visited := bitmap.New(int(totalClusters) + 2)
	var groups []ListGroup
	var warnings error

	queue := []queueItem{{loc: fat12.RootLocation(), path: "/"}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		group := ListGroup{Path: item.path}

		err := v.Dir.Iterate(item.loc, func(s fat12.Slot) bool {
			if s.Kind != fat12.SlotLive {
				return true
			}
			entry := s.Entry
			if entry.IsVolumeLabel() || fat12.IsDotEntry(entry.RawName) {
				return true
			}
			if entry.FirstCluster == 0 || entry.FirstCluster == 1 {
				return true
			}

			group.Entries = append(group.Entries, ListEntry{
				IsDir:   entry.IsDir(),
				Size:    entry.FileSize,
				Name:    entry.Name,
				ModTime: entry.ModTime(),
			})

			if entry.IsDir() {
				c := int(entry.FirstCluster - 2)
				if c < 0 || c >= int(totalClusters) || visited.Get(c) {
					return true
				}
				visited.Set(c, true)

				childPath := item.path
				if childPath != "/" {
					childPath += "/"
				}
				childPath += entry.Name
				queue = append(queue, queueItem{loc: fat12.ChainLocation(entry.FirstCluster), path: childPath})
			}
			return true
		})
		if err != nil {
			warnings = multierror.Append(warnings, err)
		}

		groups = append(groups, group)
	}

	if warnings != nil {
		Logger.Printf("list: continuing past malformed subtree(s): %s", warnings)
	}
	return groups, nil
}
