package deck

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cardroom-server/internal/game"
)

var ErrInvalidName = errors.New("INVALID_DECK: deck name is not allowed")

// FillerSize is the number of cards in the deck handed out when no deck
// file can be found.
const FillerSize = 40

// MaxQty caps a single entry's quantity in a rich deck file.
const MaxQty = 250

// Loader resolves a deck name into the card descriptors to mint.
type Loader interface {
	Load(ctx context.Context, name string) ([]game.Descriptor, error)
	List(ctx context.Context) ([]string, error)
}

// FileLoader reads decks from <dir>/<name>.json.
type FileLoader struct {
	dir string
}

func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{dir: dir}
}

// richDeck is the export format written by the deck downloader.
type richDeck struct {
	Source string     `json:"source"`
	Cards  []richCard `json:"cards"`
}

type richCard struct {
	Name            string  `json:"name"`
	Qty             *int    `json:"qty"`
	Image           *string `json:"image"`
	ScryfallID      *string `json:"scryfall_id"`
	Set             *string `json:"set"`
	CollectorNumber *string `json:"collector_number"`
}

// Filler returns the generic deck used when no deck file is available.
func Filler() []game.Descriptor {
	deck := make([]game.Descriptor, FillerSize)
	for i := range deck {
		deck[i] = game.Descriptor{Name: fmt.Sprintf("Card %d", i+1)}
	}
	return deck
}

// Load returns the descriptors for a deck. A missing deck file yields the
// filler deck rather than an error.
func (l *FileLoader) Load(ctx context.Context, name string) ([]game.Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := l.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Filler(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read deck %s: %w", name, err)
	}

	cards, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse deck %s: %w", name, err)
	}
	return cards, nil
}

// List returns the names of every deck file in the directory, sorted.
func (l *FileLoader) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(l.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	slices.Sort(names)
	return names, nil
}

func (l *FileLoader) path(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if !strings.EqualFold(filepath.Ext(name), ".json") {
		name += ".json"
	}
	return filepath.Join(l.dir, name), nil
}

// Parse decodes either deck format. A top-level array is the legacy list of
// names (or descriptor objects); a top-level object is the rich export.
func Parse(data []byte) ([]game.Descriptor, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty deck file")
	}

	switch trimmed[0] {
	case '[':
		return parseLegacy(trimmed)
	case '{':
		return parseRich(trimmed)
	default:
		return nil, errors.New("deck must be a JSON array or object")
	}
}

func parseLegacy(data []byte) ([]game.Descriptor, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	cards := make([]game.Descriptor, 0, len(entries))
	for i, raw := range entries {
		var name string
		if err := json.Unmarshal(raw, &name); err == nil {
			cards = append(cards, game.Descriptor{Name: name})
			continue
		}
		var d game.Descriptor
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		d.Image = NormalizeImage(d.Image)
		cards = append(cards, d)
	}
	return cards, nil
}

func parseRich(data []byte) ([]game.Descriptor, error) {
	var rd richDeck
	if err := json.Unmarshal(data, &rd); err != nil {
		return nil, err
	}
	var cards []game.Descriptor
	for i, c := range rd.Cards {
		if c.Name == "" {
			return nil, fmt.Errorf("card %d has no name", i)
		}
		qty := 1
		if c.Qty != nil {
			qty = *c.Qty
		}
		if qty > MaxQty {
			return nil, fmt.Errorf("card %d (%s) has qty %d, more than %d", i, c.Name, qty, MaxQty)
		}
		d := game.Descriptor{
			Name:            c.Name,
			Image:           NormalizeImage(c.Image),
			ScryfallID:      c.ScryfallID,
			Set:             c.Set,
			CollectorNumber: c.CollectorNumber,
		}
		for range qty {
			cards = append(cards, d)
		}
	}
	if cards == nil {
		cards = []game.Descriptor{}
	}
	return cards, nil
}
