package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/quizbank/qbank/internal/importer"
	"github.com/quizbank/qbank/internal/store"
	"github.com/quizbank/qbank/internal/testutil"
)

var _ importer.Indexer = (*Catalog)(nil)

const biologyBank = `{"questions":[
	{"question":"Which organelle performs photosynthesis?","options":["Mitochondrion","Chloroplast"],"answer":"Chloroplast","chapter":"Chapter 1"},
	{"question":"What does ATP stand for?","chapter":"Chapter 1"},
	{"question":"Where does the Krebs cycle take place?","options":{"A":"Cytoplasm","B":"Mitochondrial matrix"},"chapter":"Chapter 2"}
]}`

const physicsBank = `[
	{"question":"State Newton's second law.","chapter":"Mechanics"},
	{"question":"What is the unit of electric charge?","answer":"coulomb","chapter":"Electricity"}
]`

func setupCatalog(t *testing.T) (*testutil.TestData, *store.Store, *Catalog) {
	t.Helper()
	d := testutil.NewTestData(t).
		WithSource("biology.json", biologyBank).
		WithSource("physics.json", physicsBank).
		Build()

	st := store.New(d.Root)
	if err := st.EnsureSetup(); err != nil {
		t.Fatalf("EnsureSetup: %v", err)
	}

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	im := importer.New(st, importer.WithClock(func() time.Time { return clock }))
	for _, imp := range []struct{ file, subject string }{
		{"biology.json", "biology"},
		{"physics.json", "physics"},
	} {
		if ok, msg := im.ProcessFileWithSubject(d.Source(imp.file), imp.subject); !ok {
			t.Fatalf("import %s: %s", imp.file, msg)
		}
	}

	c, err := Open(st)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return d, st, c
}

func TestOpenCreatesDatabase(t *testing.T) {
	d, st, _ := setupCatalog(t)
	d.AssertFileExists(filepath.Join(store.PrivateDir, FileName))
	if Path(st) != filepath.Join(d.Root, store.PrivateDir, FileName) {
		t.Errorf("Path = %s", Path(st))
	}
}

func TestRebuildAndStats(t *testing.T) {
	_, _, c := setupCatalog(t)

	res, err := c.Rebuild()
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if res.Subjects != 2 || len(res.Skipped) != 0 {
		t.Errorf("result = %+v", res)
	}

	stats, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Subjects != 2 || stats.Chapters != 4 || stats.Questions != 5 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.PerSubject[0].Subject != "biology" || stats.PerSubject[0].Chapters != 2 || stats.PerSubject[0].Questions != 3 {
		t.Errorf("biology = %+v", stats.PerSubject[0])
	}

	// Rebuilding again does not duplicate rows.
	if _, err := c.Rebuild(); err != nil {
		t.Fatalf("second Rebuild: %v", err)
	}
	again, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if again.Questions != 5 {
		t.Errorf("questions after second rebuild = %d", again.Questions)
	}
}

func TestRebuildSkipsMissingSubject(t *testing.T) {
	d, st, c := setupCatalog(t)

	if err := os.RemoveAll(st.SubjectDir("physics")); err != nil {
		t.Fatal(err)
	}
	res, err := c.Rebuild()
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if res.Subjects != 1 || len(res.Skipped) != 1 || res.Skipped[0] != "physics" {
		t.Errorf("result = %+v", res)
	}
	d.AssertFileExists(store.SubjectsFile)
}

func TestRebuildLocked(t *testing.T) {
	_, st, c := setupCatalog(t)

	lock, err := store.TryLockFile(st.PrivatePath("locks", "catalog.lock"))
	if err != nil {
		t.Fatalf("TryLockFile: %v", err)
	}
	defer lock.Release()

	// flock locks are per open file description, so a second open in the
	// same process still conflicts.
	if _, err := c.Rebuild(); !errors.Is(err, ErrCatalogLocked) {
		t.Errorf("Rebuild err = %v, want ErrCatalogLocked", err)
	}
}

func TestSearch(t *testing.T) {
	_, _, c := setupCatalog(t)
	if _, err := c.Rebuild(); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	tests := []struct {
		name     string
		query    string
		subjects []string
		want     []string
	}{
		{"question text", "photosynthesis", nil, []string{"biology/Chapter 1/0"}},
		{"stemmed", "laws", nil, []string{"physics/Mechanics/0"}},
		{"keyed option", "matrix", nil, []string{"biology/Chapter 2/0"}},
		{"answer", "coulomb", nil, []string{"physics/Electricity/0"}},
		{"subject filter excludes", "photosynthesis", []string{"physics"}, nil},
		{"subject filter list", "photosynthesis", []string{"physics", "biology"}, []string{"biology/Chapter 1/0"}},
		{"hyphenated token", "Krebs-cycle", nil, []string{"biology/Chapter 2/0"}},
		{"no match", "zebra", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := c.Search(tt.query, tt.subjects, 0)
			if err != nil {
				t.Fatalf("Search(%q): %v", tt.query, err)
			}
			var got []string
			for _, r := range results {
				got = append(got, r.Subject+"/"+r.Chapter+"/"+strconv.Itoa(r.Position))
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Search(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestSearchSnippetHighlights(t *testing.T) {
	_, _, c := setupCatalog(t)
	if err := c.IndexSubject("biology"); err != nil {
		t.Fatalf("IndexSubject: %v", err)
	}

	results, err := c.Search("ATP", []string{"biology"}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || !strings.Contains(results[0].Snippet, "»ATP«") {
		t.Errorf("results = %+v", results)
	}
}

func TestIndexSubjectReplacesRows(t *testing.T) {
	d, st, c := setupCatalog(t)
	if err := c.IndexSubject("physics"); err != nil {
		t.Fatalf("IndexSubject: %v", err)
	}

	later := time.Date(2024, 5, 2, 12, 0, 0, 0, time.Local)
	im := importer.New(st, importer.WithClock(func() time.Time { return later }), importer.WithIndexer(c))
	src := d.WriteSource("mech.json", `[{"question":"Define inertia.","chapter":"Mechanics"}]`)
	if ok, msg := im.ProcessFileWithSubject(src, "physics"); !ok {
		t.Fatalf("import: %s", msg)
	}

	if res, _ := c.Search("Newton", nil, 0); len(res) != 0 {
		t.Errorf("replaced chapter still searchable: %+v", res)
	}
	if res, _ := c.Search("inertia", nil, 0); len(res) != 1 {
		t.Errorf("new chapter not searchable: %+v", res)
	}

	if err := c.RemoveSubject("physics"); err != nil {
		t.Fatalf("RemoveSubject: %v", err)
	}
	stats, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Subjects != 0 {
		t.Errorf("stats after remove = %+v", stats)
	}
}

func TestIndexSubjectUnknown(t *testing.T) {
	_, _, c := setupCatalog(t)
	if err := c.IndexSubject("chemistry"); !errors.Is(err, store.ErrSubjectNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestOpenRecreatesOutdatedSchema(t *testing.T) {
	_, st, c := setupCatalog(t)
	if err := c.IndexSubject("biology"); err != nil {
		t.Fatalf("IndexSubject: %v", err)
	}
	if _, err := c.db.Exec(`UPDATE meta SET value = '1' WHERE key = 'version'`); err != nil {
		t.Fatal(err)
	}
	c.Close()

	reopened, err := Open(st)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reopened.Close()

	stats, err := reopened.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Questions != 0 {
		t.Errorf("expected empty catalog after schema change, got %+v", stats)
	}
}

func TestBuildFTSQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", `content:""`},
		{"  ", `content:""`},
		{"cell", "content: (cell)"},
		{"cell OR nucleus", "content: (cell OR nucleus)"},
		{"Krebs-cycle", `content: ("Krebs-cycle")`},
		{"-cell", `content: ("-cell")`},
		{"photosynthesis?", `content: ("photosynthesis?")`},
		{"Newton's", `content: ("Newton's")`},
		{"ATP, cell", `content: ("ATP," cell)`},
		{"content:cell", `content: ("content:cell")`},
		{"NEAR", `content: ("NEAR")`},
		{"OR cell", `content: ("OR" cell)`},
		{"cell AND", `content: (cell "AND")`},
		{"cell AND OR atp", `content: (cell AND "OR" atp)`},
		{"(cell OR atp", "content: ((cell OR atp))"},
		{"cell) atp", "content: (cell atp)"},
		{"cell OR ()", `content: (cell "OR")`},
		{"()", `content:""`},
		{"célula", "content: (célula)"},
		{`"Krebs cycle"`, `content: ("Krebs cycle")`},
		{`"open phrase`, `content: ("open phrase")`},
		{"v1.2", `content: ("v1.2")`},
		{"photo*", "content: (photo*)"},
	}
	for _, tt := range tests {
		if got := BuildFTSQuery(tt.in); got != tt.want {
			t.Errorf("BuildFTSQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}


func TestSearchPunctuatedQueries(t *testing.T) {
	_, _, c := setupCatalog(t)
	if _, err := c.Rebuild(); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	tests := []struct {
		query   string
		subject string
	}{
		{"photosynthesis?", "biology"},
		{"Newton's", "physics"},
		{"ATP,", "biology"},
		{"-ATP", "biology"},
		{"(Krebs", "biology"},
		{"unit)", "physics"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			results, err := c.Search(tt.query, nil, 0)
			if err != nil {
				t.Fatalf("Search(%q): %v", tt.query, err)
			}
			if len(results) != 1 || results[0].Subject != tt.subject {
				t.Errorf("Search(%q) = %+v", tt.query, results)
			}
		})
	}
}
