package board_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quizladder/internal/board"
	"github.com/victornm/quizladder/internal/domain"
)

func TestDefault(t *testing.T) {
	b := board.Default()

	assert.Equal(t, 28, b.MaxBox())
	assert.Equal(t, 26, b.MinMaxBox())

	s, ok := b.Lookup(3)
	require.True(t, ok)
	assert.Equal(t, domain.ShortcutLadder, s.Kind())
	assert.Equal(t, 10, s.To)

	s, ok = b.Lookup(25)
	require.True(t, ok)
	assert.Equal(t, domain.ShortcutSnake, s.Kind())
	assert.Equal(t, 5, s.To)

	_, ok = b.Lookup(4)
	assert.False(t, ok)

	got := b.Shortcuts()
	require.Len(t, got, 6)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].From, got[i].From, "shortcuts should be ordered by origin")
	}
}

func TestNew_Validation(t *testing.T) {
	tests := map[string]struct {
		maxBox    int
		shortcuts []domain.Shortcut
		wantErr   bool
	}{
		"valid board": {
			maxBox:    10,
			shortcuts: []domain.Shortcut{{From: 2, To: 7}, {From: 8, To: 1}},
		},
		"board too small": {
			maxBox:  1,
			wantErr: true,
		},
		"shortcut to itself": {
			maxBox:    10,
			shortcuts: []domain.Shortcut{{From: 4, To: 4}},
			wantErr:   true,
		},
		"origin on the winning square": {
			maxBox:    10,
			shortcuts: []domain.Shortcut{{From: 10, To: 2}},
			wantErr:   true,
		},
		"target on the start square": {
			maxBox:    10,
			shortcuts: []domain.Shortcut{{From: 5, To: 0}},
			wantErr:   true,
		},
		"duplicate origin": {
			maxBox:    10,
			shortcuts: []domain.Shortcut{{From: 5, To: 8}, {From: 5, To: 2}},
			wantErr:   true,
		},
		"chained shortcut": {
			maxBox:    10,
			shortcuts: []domain.Shortcut{{From: 2, To: 5}, {From: 5, To: 9}},
			wantErr:   true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := board.New(tt.maxBox, tt.shortcuts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFromConfig(t *testing.T) {
	b, err := board.FromConfig(board.Config{})
	require.NoError(t, err)
	assert.Equal(t, board.DefaultMaxBox, b.MaxBox())
	assert.Len(t, b.Shortcuts(), len(board.DefaultShortcuts))

	b, err = board.FromConfig(board.Config{
		MaxBox:    12,
		Shortcuts: []board.ShortcutConfig{{From: 2, To: 9}},
	})
	require.NoError(t, err)
	assert.Equal(t, 12, b.MaxBox())
	assert.Equal(t, 10, b.MinMaxBox())
}
