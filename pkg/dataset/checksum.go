package dataset

import (
	"github.com/cespare/xxhash/v2"
	"github.com/lintang-b-s/roadfacade/pkg/storage"
)

// checksum folds the xxhash of every resource body, in storage.AllResources order, into 32 bits.
func checksum(bodies map[storage.ResourceName][]byte) uint32 {
	digest := xxhash.New()
	for _, name := range storage.AllResources {
		digest.WriteString(string(name))
		digest.Write(bodies[name])
	}
	sum := digest.Sum64()
	return uint32(sum ^ sum>>32)
}
