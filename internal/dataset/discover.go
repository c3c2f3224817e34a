package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
)

var shardRegexp = regexp.MustCompile(`^shard-[0-9]{6,}\.tar$`)

// ErrNoShards is returned when a root holds no recorded-output shards.
var ErrNoShards = errors.New("dataset: no shards found")

// DiscoverShards returns the paths of shard TAR files beneath root in
// lexical order, so replays are deterministic.
func DiscoverShards(root string) ([]string, error) {
	entries := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && shardRegexp.MatchString(d.Name()) {
			entries = append(entries, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover shards: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoShards, root)
	}
	sort.Strings(entries)
	return entries, nil
}
