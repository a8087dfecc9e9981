package promo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/noah-isme/kinda-storefront/internal/obs"
)

const inventoryLimit = 50

// InventoryEntry describes one parsed document in the debug inventory.
type InventoryEntry struct {
	File       string `json:"file"`
	Code       string `json:"code,omitempty"`
	Status     string `json:"status,omitempty"`
	Amount     any    `json:"amount,omitempty"`
	ParseError bool   `json:"parseError,omitempty"`
	Err        string `json:"err,omitempty"`
}

// Inventory is the unfiltered view returned by the debug endpoint.
type Inventory struct {
	Version    string           `json:"version"`
	Cwd        string           `json:"cwd"`
	DirTried   []string         `json:"dirTried"`
	DirUsed    string           `json:"dirUsed"`
	FilesFound []string         `json:"filesFound"`
	Parsed     []InventoryEntry `json:"parsed"`
	LoadedAt   time.Time        `json:"loadedAt"`
}

type snapshot struct {
	dirUsed  string
	files    []string
	entries  []InventoryEntry
	records  map[string]Record
	loadedAt time.Time
}

// Index maps normalized codes to promo records. It is rebuilt as a whole and
// swapped in atomically so lookups never see a partial directory scan.
type Index struct {
	Dirs     []string
	Fallback map[string]Record
	Version  string
	Logger   zerolog.Logger
	Debounce time.Duration

	snap atomic.Pointer[snapshot]
}

// NewIndex builds an index over the candidate directories and loads it once.
func NewIndex(dirs []string, fallback map[string]Record, version string, logger zerolog.Logger) (*Index, error) {
	idx := &Index{Dirs: dirs, Fallback: fallback, Version: version, Logger: logger}
	if err := idx.Reload(); err != nil {
		return nil, err
	}
	return idx, nil
}

// DecodeFallback turns the configured JSON allowlist into records keyed by normalized code.
func DecodeFallback(raw map[string]json.RawMessage) (map[string]Record, error) {
	out := make(map[string]Record, len(raw))
	for code, data := range raw {
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("promo fallback %s: %w", code, err)
		}
		if rec.Code == "" {
			rec.Code = code
		}
		out[NormalizeCode(code)] = rec
	}
	return out, nil
}

// Reload rescans the first existing candidate directory. Files are read in
// lexical order and the first document carrying a code wins.
func (i *Index) Reload() error {
	dirUsed := i.resolveDir()
	files, err := listDocuments(dirUsed)
	if err != nil {
		obs.Inc(obs.PromoIndexReloads, "error")
		return err
	}

	next := &snapshot{
		dirUsed:  dirUsed,
		files:    files,
		entries:  make([]InventoryEntry, 0, len(files)),
		records:  make(map[string]Record, len(files)+len(i.Fallback)),
		loadedAt: time.Now().UTC(),
	}
	for _, name := range files {
		raw, err := os.ReadFile(filepath.Join(dirUsed, name))
		if err == nil {
			var rec Record
			rec, err = ParseDocument(raw)
			if err == nil {
				next.entries = append(next.entries, InventoryEntry{
					File:   name,
					Code:   rec.Code,
					Status: rec.Status,
					Amount: rec.RawAmount(),
				})
				code := NormalizeCode(rec.Code)
				if _, dup := next.records[code]; code != "" && !dup {
					next.records[code] = rec
				}
				continue
			}
		}
		i.Logger.Warn().Err(err).Str("file", name).Msg("promo document skipped")
		next.entries = append(next.entries, InventoryEntry{File: name, ParseError: true, Err: err.Error()})
	}
	for code, rec := range i.Fallback {
		if _, ok := next.records[code]; !ok {
			next.records[code] = rec
		}
	}

	i.snap.Store(next)
	obs.Inc(obs.PromoIndexReloads, "ok")
	i.Logger.Info().Str("dir", dirUsed).Int("files", len(files)).Int("codes", len(next.records)).Msg("promo index loaded")
	return nil
}

// Get returns the record for an already normalized code.
func (i *Index) Get(code string) (Record, bool) {
	snap := i.snap.Load()
	if snap == nil {
		return Record{}, false
	}
	rec, ok := snap.records[code]
	return rec, ok
}

// FileCount reports how many documents the last scan found.
func (i *Index) FileCount() int {
	snap := i.snap.Load()
	if snap == nil {
		return 0
	}
	return len(snap.files)
}

// Ready reports whether a scan has completed.
func (i *Index) Ready() bool {
	return i.snap.Load() != nil
}

// Inventory returns the debug view of the last scan.
func (i *Index) Inventory() Inventory {
	cwd, _ := os.Getwd()
	inv := Inventory{Version: i.Version, Cwd: cwd, DirTried: i.Dirs, FilesFound: []string{}, Parsed: []InventoryEntry{}}
	snap := i.snap.Load()
	if snap == nil {
		return inv
	}
	inv.DirUsed = snap.dirUsed
	inv.FilesFound = append(inv.FilesFound, snap.files...)
	parsed := snap.entries
	if len(parsed) > inventoryLimit {
		parsed = parsed[:inventoryLimit]
	}
	inv.Parsed = append(inv.Parsed, parsed...)
	inv.LoadedAt = snap.loadedAt
	return inv
}

// Watch rebuilds the index whenever a candidate directory changes. It blocks
// until ctx is cancelled.
func (i *Index) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("promo watch: %w", err)
	}
	defer watcher.Close()

	watched := 0
	for _, dir := range i.Dirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("promo watch %s: %w", dir, err)
			}
			watched++
		}
	}
	if watched == 0 {
		i.Logger.Warn().Strs("dirs", i.Dirs).Msg("no promo directory to watch")
		<-ctx.Done()
		return nil
	}

	debounce := i.Debounce
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(evt.Name), ".md") {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			i.Logger.Error().Err(err).Msg("promo watcher error")
		case <-timer.C:
			if err := i.Reload(); err != nil {
				i.Logger.Error().Err(err).Msg("promo index reload failed")
			}
		}
	}
}

func (i *Index) resolveDir() string {
	for _, dir := range i.Dirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	if len(i.Dirs) > 0 {
		return i.Dirs[0]
	}
	return ""
}

func listDocuments(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read promo dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".md") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}
