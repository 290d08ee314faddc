package board

import (
	"fmt"
	"sort"

	"github.com/victornm/quizladder/internal/domain"
)

const DefaultMaxBox = 28

// DefaultShortcuts is the board shipped with the game.
var DefaultShortcuts = []domain.Shortcut{
	{From: 3, To: 10},
	{From: 6, To: 15},
	{From: 12, To: 20},
	{From: 18, To: 8},
	{From: 22, To: 12},
	{From: 25, To: 5},
}

type Config struct {
	MaxBox    int
	Shortcuts []ShortcutConfig
}

type ShortcutConfig struct {
	From int
	To   int
}

// Board is the static geometry shared by every room. It is read-only once built.
type Board struct {
	maxBox    int
	shortcuts map[int]domain.Shortcut
	highest   int
}

// Default returns the standard 28 square board.
func Default() *Board {
	b, err := New(DefaultMaxBox, DefaultShortcuts)
	if err != nil {
		panic(err)
	}

	return b
}

// FromConfig builds a board, falling back to the defaults for empty fields.
func FromConfig(c Config) (*Board, error) {
	maxBox := c.MaxBox
	if maxBox == 0 {
		maxBox = DefaultMaxBox
	}

	if len(c.Shortcuts) == 0 {
		return New(maxBox, DefaultShortcuts)
	}

	ss := make([]domain.Shortcut, 0, len(c.Shortcuts))
	for _, s := range c.Shortcuts {
		ss = append(ss, domain.Shortcut{From: s.From, To: s.To})
	}

	return New(maxBox, ss)
}

// New validates and builds a board. Shortcut squares must lie strictly between the start
// and the winning square, origins must be unique and no shortcut may land on another origin.
func New(maxBox int, shortcuts []domain.Shortcut) (*Board, error) {
	if maxBox < 2 {
		return nil, fmt.Errorf("board: max box must be at least 2, got %d", maxBox)
	}

	b := &Board{
		maxBox:    maxBox,
		shortcuts: make(map[int]domain.Shortcut, len(shortcuts)),
	}

	for _, s := range shortcuts {
		if s.From == s.To {
			return nil, fmt.Errorf("board: shortcut %d->%d goes nowhere", s.From, s.To)
		}
		if !b.inner(s.From) || !b.inner(s.To) {
			return nil, fmt.Errorf("board: shortcut %d->%d outside [1, %d]", s.From, s.To, maxBox-1)
		}
		if _, ok := b.shortcuts[s.From]; ok {
			return nil, fmt.Errorf("board: duplicate shortcut origin %d", s.From)
		}

		b.shortcuts[s.From] = s
		b.highest = max(b.highest, s.From, s.To)
	}

	for _, s := range b.shortcuts {
		if _, ok := b.shortcuts[s.To]; ok {
			return nil, fmt.Errorf("board: shortcut %d->%d lands on another shortcut", s.From, s.To)
		}
	}

	return b, nil
}

func (b *Board) inner(square int) bool {
	return square >= 1 && square < b.maxBox
}

func (b *Board) MaxBox() int {
	return b.maxBox
}

// MinMaxBox is the smallest board size a room may use with these shortcuts.
func (b *Board) MinMaxBox() int {
	return b.highest + 1
}

// Lookup returns the shortcut whose origin is square.
func (b *Board) Lookup(square int) (domain.Shortcut, bool) {
	s, ok := b.shortcuts[square]
	return s, ok
}

// Shortcuts lists every shortcut ordered by origin.
func (b *Board) Shortcuts() []domain.Shortcut {
	ss := make([]domain.Shortcut, 0, len(b.shortcuts))
	for _, s := range b.shortcuts {
		ss = append(ss, s)
	}

	sort.Slice(ss, func(i, j int) bool { return ss[i].From < ss[j].From })
	return ss
}
