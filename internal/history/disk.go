package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"enhancer-backend/pkg/logger"
)

// DiskStore keeps the full history in memory and mirrors every mutation to
// a JSON file, so the host service survives restarts. Persistence failures
// degrade to memory-only operation; they never block the primary flow.
type DiskStore struct {
	mem     *MemoryStore
	dataDir string
}

func NewDiskStore(dataDir string) *DiskStore {
	return &DiskStore{
		mem:     NewMemoryStore(),
		dataDir: dataDir,
	}
}

func (d *DiskStore) historyPath() string {
	return filepath.Join(d.dataDir, "history.json")
}

func (d *DiskStore) Init() error {
	if err := os.MkdirAll(d.dataDir, 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	if err := d.load(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	logger.Infof("history: disk store initialized at %s", d.dataDir)
	return nil
}

func (d *DiskStore) load() error {
	raw, err := os.ReadFile(d.historyPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var entries []*Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return err
	}

	for _, e := range entries {
		if err := d.mem.Append(e); err != nil {
			return err
		}
	}
	return nil
}

// persist writes the whole history atomically. Errors are logged and
// swallowed: the in-memory state stays authoritative.
func (d *DiskStore) persist() {
	entries, err := d.mem.List()
	if err != nil {
		return
	}

	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		logger.Errorf("history: marshal for persist failed: %v", err)
		return
	}

	tmp := d.historyPath() + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		logger.Errorf("history: persist failed: %v", err)
		return
	}
	if err := os.Rename(tmp, d.historyPath()); err != nil {
		logger.Errorf("history: persist rename failed: %v", err)
	}
}

func (d *DiskStore) Append(e *Entry) error {
	if err := d.mem.Append(e); err != nil {
		return err
	}
	d.persist()
	return nil
}

func (d *DiskStore) Update(e *Entry) error {
	if err := d.mem.Update(e); err != nil {
		return err
	}
	// Streaming appends arrive many times per second; only finished rows
	// are worth a disk write.
	if !e.Streaming {
		d.persist()
	}
	return nil
}

func (d *DiskStore) Remove(id string) error {
	if err := d.mem.Remove(id); err != nil {
		return err
	}
	d.persist()
	return nil
}

func (d *DiskStore) Get(id string) (*Entry, error) {
	return d.mem.Get(id)
}

func (d *DiskStore) List() ([]*Entry, error) {
	return d.mem.List()
}

func (d *DiskStore) Clear() error {
	if err := d.mem.Clear(); err != nil {
		return err
	}
	d.persist()
	return nil
}

func (d *DiskStore) Close() error {
	d.persist()
	return nil
}
