package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/mtg-binder/internal/cards"
	"github.com/ramonehamilton/mtg-binder/internal/cards/mtgio"
	"github.com/ramonehamilton/mtg-binder/internal/config"
)

type fakeService struct {
	records []cards.Record
	sets    []mtgio.Set
	queries int
}

func (f *fakeService) Where(_ context.Context, filter cards.Filter) ([]cards.Record, error) {
	f.queries++
	var out []cards.Record
	for _, r := range f.records {
		if r.SetCode == filter.Set && r.Number == filter.Number {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeService) Sets(context.Context) ([]mtgio.Set, error) {
	return f.sets, nil
}

type cliTestEnv struct {
	dir        string
	configPath string
	service    *fakeService
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(`
[collection]
path = %q

[cache]
archive_path = %q
ram_entries = 5

[storage]
db_path = %q
`,
		filepath.Join(dir, "collection.mtgb"),
		filepath.Join(dir, "images.zip"),
		filepath.Join(dir, "catalog.db"),
	)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	return &cliTestEnv{
		dir:        dir,
		configPath: configPath,
		service: &fakeService{
			records: []cards.Record{
				{Identity: cards.Identity{SetCode: "M19", Number: "156"}, Name: "Shock", Type: "Instant", Rarity: "Common", CMC: 1},
				{Identity: cards.Identity{SetCode: "M19", Number: "38"}, Name: "Serra Angel", Type: "Creature — Angel", Rarity: "Uncommon", CMC: 5},
				{Identity: cards.Identity{SetCode: "WAR", Number: "56a"}, Name: "Struggle", Type: "Instant", Rarity: "Uncommon", CMC: 3},
				{Identity: cards.Identity{SetCode: "WAR", Number: "56b"}, Name: "Survive", Type: "Instant", Rarity: "Uncommon", CMC: 2},
			},
			sets: []mtgio.Set{
				{Code: "M19", Name: "Core Set 2019", Type: "core", ReleaseDate: "2018-07-13"},
				{Code: "WAR", Name: "War of the Spark", Type: "expansion", ReleaseDate: "2019-05-03"},
			},
		},
	}
}

func (env *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := buildRootCommand(func(*config.Config, *slog.Logger) (cardService, error) {
		return env.service, nil
	})
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLI_AddListPersists(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "add", "M19156", "WAR056", "M19156")
	require.NoError(t, err)
	assert.Contains(t, out, "Added Shock [M19156]")
	assert.Contains(t, out, "Added Struggle // Survive [WAR56a]")
	assert.Contains(t, out, "Added Shock (x2) [M19156]")

	out, _, err = env.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Shock (x2)")
	assert.Contains(t, out, "Struggle // Survive")
	assert.Contains(t, out, "2 cards, 3 copies")
}

func TestCLI_ListSortAndFilter(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := env.run(t, "add", "M19156", "M19038")
	require.NoError(t, err)

	out, _, err := env.run(t, "list", "--filter", "creature")
	require.NoError(t, err)
	assert.Contains(t, out, "Serra Angel")
	assert.NotContains(t, out, "Shock")

	out, _, err = env.run(t, "list", "--filter", "nothing matches this")
	require.NoError(t, err)
	assert.Contains(t, out, "No cards match the filter")

	_, _, err = env.run(t, "list", "--sort", "price")
	assert.Error(t, err)
}

func TestCLI_IncDec(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := env.run(t, "add", "M19156")
	require.NoError(t, err)

	out, _, err := env.run(t, "inc", "M19156")
	require.NoError(t, err)
	assert.Contains(t, out, "Shock (x2)")

	out, _, err = env.run(t, "dec", "M19156")
	require.NoError(t, err)
	assert.Contains(t, out, "Shock")

	// Not a terminal and no --yes: the last copy stays.
	out, _, err = env.run(t, "dec", "M19156")
	require.NoError(t, err)
	assert.Contains(t, out, "Kept the last copy")

	out, _, err = env.run(t, "dec", "--yes", "M19156")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed M19156")

	out, _, err = env.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Collection is empty")
}

func TestCLI_IncByCombinedNumber(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := env.run(t, "add", "WAR056")
	require.NoError(t, err)

	out, _, err := env.run(t, "inc", "WAR056")
	require.NoError(t, err)
	assert.Contains(t, out, "Struggle // Survive (x2)")
}

func TestCLI_AddNotFound(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := env.run(t, "add", "ZZZ999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ZZZ999")

	_, err = os.Stat(filepath.Join(env.dir, "collection.mtgb"))
	assert.True(t, os.IsNotExist(err), "nothing to save")
}

func TestCLI_AddInvalidIdentifier(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := env.run(t, "add", "hello")
	assert.Error(t, err)
	assert.Equal(t, 0, env.service.queries)
}

func TestCLI_Sets(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "sets", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Set catalog is empty")

	out, _, err = env.run(t, "sets", "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "Synced 2 sets")

	out, _, err = env.run(t, "sets", "find", "spark")
	require.NoError(t, err)
	assert.Contains(t, out, "War of the Spark")
	assert.NotContains(t, out, "Core Set 2019")

	out, _, err = env.run(t, "sets", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Core Set 2019")
	assert.Contains(t, out, "2 sets")
}

func TestCLI_Chart(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := env.run(t, "add", "M19156", "M19038")
	require.NoError(t, err)

	path := filepath.Join(env.dir, "rarity.html")
	out, _, err := env.run(t, "chart", "--by", "rarity", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Uncommon")

	_, _, err = env.run(t, "chart", "--by", "color")
	assert.Error(t, err)
}

func TestCLI_Show(t *testing.T) {
	env := setupCLITestEnv(t)

	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var art bytes.Buffer
	require.NoError(t, png.Encode(&art, img))

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(art.Bytes())
	}))
	defer server.Close()

	env.service.records[0].ImageURL = server.URL + "/shock.png"
	env.service.records[0].MultiverseID = 447335

	_, _, err := env.run(t, "add", "M19156")
	require.NoError(t, err)

	path := filepath.Join(env.dir, "shock.png")
	out, _, err := env.run(t, "show", "M19156", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "(3x2 png)")

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, art.Bytes(), written)

	// Second run is served from the archive.
	_, _, err = env.run(t, "show", "M19156", "-o", path)
	require.NoError(t, err)
	assert.Equal(t, int32(1), requests.Load())
}

func TestCLI_Version(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "mtg-binder "))
}

func TestCLI_ConfigInit(t *testing.T) {
	env := setupCLITestEnv(t)
	env.configPath = filepath.Join(env.dir, "fresh", "config.toml")

	out, _, err := env.run(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")

	cfg, err := config.LoadFrom(env.configPath)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Cache.RAMEntries)
}
