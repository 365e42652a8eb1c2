package fat12

import (
	bitmap "github.com/boljen/go-bitmap"

	"github.com/faucetlabs/fat12vol/internal/bpb"
	"github.com/faucetlabs/fat12vol/internal/fat12errors"
	"github.com/faucetlabs/fat12vol/internal/ioimage"
)

// Chain gives cluster-level access to the data region: offset computation,
// chain walking, and chain allocation/extension (C4 of the volume engine).
type Chain struct {
	img        *ioimage.Image
	table      *Table
	dataSector uint
	bps        uint
	clustSize  uint
}

// NewChain builds a Chain helper over img using geom and table.
func NewChain(img *ioimage.Image, geom bpb.Geometry, table *Table) *Chain {
	return &Chain{
		img:        img,
		table:      table,
		dataSector: geom.DataSector,
		bps:        geom.BytesPerSector,
		clustSize:  geom.ClusterSize,
	}
}

// ClusterSize is the number of bytes in a single cluster.
func (c *Chain) ClusterSize() uint { return c.clustSize }

// ClusterOffset returns the byte offset of cluster number cluster in the
// data region.
func (c *Chain) ClusterOffset(cluster uint) int64 {
	return int64(c.dataSector)*int64(c.bps) + int64(cluster-2)*int64(c.clustSize)
}

// ReadCluster returns the full contents of one cluster.
func (c *Chain) ReadCluster(cluster uint) ([]byte, error) {
	return c.img.ReadAt(c.ClusterOffset(cluster), int(c.clustSize))
}

// WriteCluster overwrites the full contents of one cluster. data must be
// exactly ClusterSize() bytes; callers pad the final, partial cluster of a
// file with zeroes before calling this.
func (c *Chain) WriteCluster(cluster uint, data []byte) error {
	return c.img.WriteAt(c.ClusterOffset(cluster), data)
}

// Walk follows the chain starting at start, yielding every cluster number
// up to but not including the terminating EOC marker. It fails with
// ErrBadChain on a cycle, or on encountering a free/reserved/bad value
// where a link was expected.
func (c *Chain) Walk(start uint) ([]uint, error) {
	if !c.table.IsValidCluster(start) {
		return nil, fat12errors.ErrBadChain.WithMessage("chain does not start on a valid cluster")
	}

	totalClusters := c.table.TotalClusters()
	visited := bitmap.New(int(totalClusters) + 2)
	var chain []uint
	cur := start

	for {
		if !c.table.IsValidCluster(cur) || visited.Get(int(cur-2)) {
			return chain, fat12errors.ErrBadChain.WithMessage("cluster chain cycle detected")
		}
		visited.Set(int(cur-2), true)
		chain = append(chain, cur)

		class, v, err := c.table.Classify(cur)
		if err != nil {
			return chain, err
		}
		if class == ClassEOC {
			return chain, nil
		}
		if class != ClassData {
			return chain, fat12errors.ErrBadChain.WithMessage("chain interrupted by a non-data FAT entry")
		}
		cur = uint(v)
	}
}

// WriteChain writes src to a freshly allocated chain, allocating successor
// clusters on demand (monotonically, not necessarily contiguously). Per
// spec.md §5, the write order within the call is: data for each cluster,
// then the FAT link from its predecessor, and finally the EOC marker on
// the last cluster only once its payload is on disk. It returns the full
// list of clusters used, in order.
func (c *Chain) WriteChain(src []byte) ([]uint, error) {
	totalBytes := len(src)
	clustersNeeded := (totalBytes + int(c.clustSize) - 1) / int(c.clustSize)
	if clustersNeeded == 0 {
		clustersNeeded = 1
	}

	clusters := make([]uint, 0, clustersNeeded)
	reserved := make(map[uint]bool, clustersNeeded)
	var prev uint

	for i := 0; i < clustersNeeded; i++ {
		next, err := c.table.AllocateFreeSkipping(reserved)
		if err != nil {
			return clusters, err
		}
		reserved[next] = true

		start := i * int(c.clustSize)
		end := start + int(c.clustSize)
		if end > totalBytes {
			end = totalBytes
		}

		buf := make([]byte, c.clustSize) // zero-pads the final, partial cluster
		copy(buf, src[start:end])
		if err := c.WriteCluster(next, buf); err != nil {
			return clusters, err
		}

		if prev != 0 {
			// prev's payload is already on disk, so it's now safe to point
			// the chain at this new, now-also-written cluster.
			if err := c.table.Put(prev, uint16(next)); err != nil {
				return clusters, err
			}
		}
		prev = next
		clusters = append(clusters, next)
	}

	if err := c.table.Put(prev, EOCValue); err != nil {
		return clusters, err
	}

	return clusters, nil
}
