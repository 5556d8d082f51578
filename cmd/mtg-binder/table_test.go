package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTable_AlignsNumericColumns(t *testing.T) {
	out := renderTable([]column{{title: "Card"}, {title: "Qty", numeric: true}},
		[][]string{{"Shock", "12"}})

	assert.Contains(t, out, "│ Card  │ Qty │")
	assert.Contains(t, out, "│ Shock │  12 │")
}

func TestRenderTable_Footer(t *testing.T) {
	out := renderTable(cardColumns, [][]string{{"1", "Shock", "M19156", "Instant", "Common", "2"}},
		"", "1 cards, 2 copies")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines[len(lines)-2], "1 cards, 2 copies")
}

func TestRenderTable_WrapsLongCells(t *testing.T) {
	name := "Asmoranomardicadaistinaculdacar the Lengthy Legend of Names"
	out := renderTable(cardColumns, [][]string{{"1", name, "MH2186", "Legendary Creature", "Rare", "1"}})

	assert.NotContains(t, out, name)
	assert.Contains(t, out, "Asmoranomardicadaistinaculdacar")
}

func TestRenderTable_PadsShortRows(t *testing.T) {
	out := renderTable(setColumns, [][]string{{"WAR"}})

	assert.Contains(t, out, "WAR")
	assert.Equal(t, "", renderTable(nil, nil))
}
