package volume

import (
	"io"

	"github.com/faucetlabs/fat12vol/internal/fat12"
	"github.com/faucetlabs/fat12vol/internal/fat12errors"
)

// Get implements spec.md §4.7.3: scans the root directory only for a Live
// non-directory entry whose normalized name equals name, walks its chain,
// and copies its bytes to out. Returns ErrNotFound if no such entry
// exists, or ErrShortFile if the chain ends before file_size bytes were
// produced (out still receives everything that was read).
func Get(v *Volume, name string, out io.Writer) error {
	var match *fat12.Dirent
	err := v.Dir.Iterate(fat12.RootLocation(), func(s fat12.Slot) bool {
		if s.Kind != fat12.SlotLive || s.Entry.IsDir() {
			return true
		}
		if fat12.NormalizeForCompare(s.Entry.Name) == fat12.NormalizeForCompare(name) {
			e := s.Entry
			match = &e
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	if match == nil {
		return fat12errors.ErrNotFound
	}

	// The entry is confirmed to exist; touch out now so a caller using a
	// lazily-created host file (cmd/diskget) only creates it once the
	// lookup has succeeded, even for a zero-byte match that never reaches
	// the Write calls below.
	if _, err := out.Write(nil); err != nil {
		return fat12errors.ErrIOFailed.WrapError(err)
	}

	remaining := int64(match.FileSize)
	if match.FirstCluster < 2 {
		if remaining == 0 {
			return nil
		}
		return fat12errors.ErrShortFile
	}

	clusters, err := v.Chain.Walk(match.FirstCluster)
	if err != nil {
		return err
	}

	clusterSize := int64(v.Chain.ClusterSize())
	for _, cluster := range clusters {
		data, err := v.Chain.ReadCluster(cluster)
		if err != nil {
			return err
		}

		n := clusterSize
		if remaining < n {
			n = remaining
		}
		if n <= 0 {
			break
		}
		if _, err := out.Write(data[:n]); err != nil {
			return fat12errors.ErrIOFailed.WrapError(err)
		}
		remaining -= n
	}

	if remaining > 0 {
		return fat12errors.ErrShortFile
	}
	return nil
}
