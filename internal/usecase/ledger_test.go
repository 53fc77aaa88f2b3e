package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgtao/stapp-mpeg4-clipper/internal/domain/entity"
)

func TestPropose(t *testing.T) {
	l := NewSelectionLedger()

	assert.True(t, l.Propose("00:10", []byte("a")))
	assert.True(t, l.Propose("01:30", []byte("b")))
	assert.Equal(t, 2, l.Len())

	assert.False(t, l.Propose("00:10", []byte("a2")), "duplicate timecode rejected")
	assert.Equal(t, 2, l.Len(), "rejected propose leaves length unchanged")
}

func TestRows_InsertionOrder(t *testing.T) {
	l := NewSelectionLedger()
	l.Propose("02:00", []byte("x"))
	l.Propose("00:05", []byte("y"))
	l.Propose("01:00", []byte("z"))

	rows := l.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, []entity.SelectionRow{
		{Ordinal: 1, Timecode: "02:00"},
		{Ordinal: 2, Timecode: "00:05"},
		{Ordinal: 3, Timecode: "01:00"},
	}, rows)
}

func TestAddBatch_RejectsInternalDuplicates(t *testing.T) {
	l := NewSelectionLedger()
	l.Propose("00:10", []byte("existing"))

	added := l.AddBatch([]Pick{
		{Timecode: "00:10", PNG: []byte("dup of existing")},
		{Timecode: "00:20", PNG: []byte("new")},
		{Timecode: "00:20", PNG: []byte("dup inside batch")},
		{Timecode: "00:30", PNG: []byte("new too")},
	})

	assert.Equal(t, 2, added)
	assert.Equal(t, 3, l.Len())
}

func TestImages_MatchRowsOrder(t *testing.T) {
	l := NewSelectionLedger()
	l.Propose("00:10", []byte("first"))
	l.Propose("00:20", []byte("second"))

	images := l.Images()
	rows := l.Rows()
	require.Len(t, images, 2)
	for i := range images {
		assert.Equal(t, rows[i].Ordinal, images[i].Ordinal)
		assert.Equal(t, rows[i].Timecode, images[i].Timecode)
	}
	assert.Equal(t, []byte("first"), images[0].PNG)
	assert.Equal(t, []byte("second"), images[1].PNG)
}

func TestClear(t *testing.T) {
	l := NewSelectionLedger()
	l.Propose("00:10", []byte("a"))
	l.Clear()

	assert.Equal(t, 0, l.Len())
	assert.True(t, l.Propose("00:10", []byte("a")), "cleared timecode is selectable again")
	rows := l.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Ordinal, "ordinals restart after clear")
}
