package connection

import "github.com/treeverse/fileconn/block"

// Params holds adapter construction parameters.
type Params = block.Params

// Merge returns a new map with every key of base, then every key of overrides.
// Overrides win on identical keys. Neither input is modified.
func Merge(base, overrides Params) Params {
	merged := make(Params, len(base)+len(overrides))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
