package board

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeBoard(t *testing.T, dir, name string, entries []rleEntry, w, h int) string {
	t.Helper()
	boardPath := filepath.Join(dir, name+".board.json")
	cfgPath := filepath.Join(dir, name+".board.config.json")

	data, err := json.Marshal(entries)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(boardPath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	dim := dimensions{Width: w, Height: h}
	dimData, err := json.Marshal(dim)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfgPath, dimData, 0o644); err != nil {
		t.Fatal(err)
	}
	return boardPath
}

// bordered builds a w*h board with perimeter walls and an empty interior,
// plus one spawn point at (1,1).
func bordered(t *testing.T, dir string, w, h int) string {
	t.Helper()
	entries := []rleEntry{}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			code := CellEmpty
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				code = CellWall
			} else if x == 1 && y == 1 {
				code = CellSpawn
			}
			entries = append(entries, rleEntry{Entity: code})
		}
	}
	return writeBoard(t, dir, "bordered", entries, w, h)
}

func TestLoadBorderedBoard(t *testing.T) {
	dir := t.TempDir()
	path := bordered(t, dir, 5, 4)

	b, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.Width() != 5 || b.Height() != 4 {
		t.Fatalf("got %dx%d, want 5x4", b.Width(), b.Height())
	}
	if !b.IsWall(0, 0) || !b.IsWall(4, 3) {
		t.Fatalf("expected perimeter walls")
	}
	if b.IsWall(2, 2) {
		t.Fatalf("expected interior cell to be empty")
	}
	sp := b.SpawnPoints()
	if len(sp) != 1 || sp[0] != (Point{X: 1, Y: 1}) {
		t.Fatalf("spawn points = %+v, want [(1,1)]", sp)
	}
}

func TestInBounds(t *testing.T) {
	dir := t.TempDir()
	path := bordered(t, dir, 3, 3)
	b, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		x, y int
		want bool
	}{
		{0, 0, true},
		{2, 2, true},
		{-1, 0, false},
		{0, -1, false},
		{3, 0, false},
		{0, 3, false},
	}
	for _, c := range cases {
		if got := b.InBounds(c.x, c.y); got != c.want {
			t.Errorf("InBounds(%d,%d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestLoadRejectsUnknownCellCode(t *testing.T) {
	dir := t.TempDir()
	entries := []rleEntry{{Entity: 9, Repeat: 4}}
	path := writeBoard(t, dir, "bad", entries, 2, 2)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown cell code")
	}
}

func TestLoadRejectsRectangularMismatch(t *testing.T) {
	dir := t.TempDir()
	entries := []rleEntry{{Entity: CellEmpty, Repeat: 3}}
	path := writeBoard(t, dir, "short", entries, 2, 2)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for cell count mismatch")
	}
}

func TestLoadNeverPlacesSpawnOnWall(t *testing.T) {
	dir := t.TempDir()
	entries := []rleEntry{
		{Entity: CellSpawn}, {Entity: CellWall},
		{Entity: CellEmpty}, {Entity: CellEmpty},
	}
	path := writeBoard(t, dir, "spawnwall", entries, 2, 2)
	// This board is written but not loaded: a spawn cell and a wall cell are
	// always distinct cells, so it cannot reach Load's wall-on-spawn branch.
	_ = path

	entries2 := []rleEntry{
		{Entity: CellWall}, {Entity: CellEmpty},
		{Entity: CellEmpty}, {Entity: CellEmpty},
	}
	// There is no cell code for "wall that is also declared a spawn point"
	// in the persisted format (a cell is one code), so we instead assert
	// that a spawn point is never produced on a wall cell by construction.
	path2 := writeBoard(t, dir, "nospawnonwall", entries2, 2, 2)
	b, err := Load(path2)
	if err != nil {
		t.Fatal(err)
	}
	for _, sp := range b.SpawnPoints() {
		if b.IsWall(sp.X, sp.Y) {
			t.Fatalf("spawn point %+v sits on a wall", sp)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.board.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
