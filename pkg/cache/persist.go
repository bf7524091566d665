package cache

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/bastiangx/addrcomplete/internal/utils"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
	"github.com/vmihailenco/msgpack/v5"
)

const snapshotVersion = 1

type record struct {
	Query  string   `msgpack:"q"`
	Labels []string `msgpack:"l"`
	Access int64    `msgpack:"a"`
}

type snapshot struct {
	Version int      `msgpack:"v"`
	Records []record `msgpack:"r"`
}

// Save writes the store to path as msgpack.
func (s *Store) Save(path string) error {
	s.mu.Lock()
	snap := snapshot{Version: snapshotVersion, Records: make([]record, 0, s.size)}
	_ = s.trie.Visit(func(p patricia.Prefix, item patricia.Item) error {
		e := item.(*entry)
		snap.Records = append(snap.Records, record{Query: string(p), Labels: e.labels, Access: e.access})
		return nil
	})
	s.mu.Unlock()

	err := utils.WriteFileAtomic(path, func(w io.Writer) error {
		if err := msgpack.NewEncoder(w).Encode(&snap); err != nil {
			return fmt.Errorf("encoding cache: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Debugf("Saved %d cached queries to %s", len(snap.Records), path)
	return nil
}

// Load merges a snapshot written by Save. A missing file is not an error.
// When the snapshot holds more than maxEntries records the most recent win.
func (s *Store) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer file.Close()

	var snap snapshot
	if err := msgpack.NewDecoder(bufio.NewReader(file)).Decode(&snap); err != nil {
		return fmt.Errorf("decoding cache %s: %w", path, err)
	}
	if snap.Version != snapshotVersion {
		log.Warnf("Ignoring cache %s with unknown version %d", path, snap.Version)
		return nil
	}

	sort.Slice(snap.Records, func(i, j int) bool {
		return snap.Records[i].Access < snap.Records[j].Access
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range snap.Records {
		key := Key(r.Query)
		if key == "" {
			continue
		}
		s.put(key, r.Labels, s.nextAccess())
	}
	log.Debugf("Loaded %d cached queries from %s", len(snap.Records), path)
	return nil
}
