package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "data"))
	if err := s.EnsureSetup(); err != nil {
		t.Fatalf("EnsureSetup: %v", err)
	}
	return s
}

func mustSubjectDir(t *testing.T, s *Store, subject string) {
	t.Helper()
	if err := s.EnsureSubjectDir(subject); err != nil {
		t.Fatalf("EnsureSubjectDir: %v", err)
	}
}

func titles(chs []Chapter) []string {
	out := make([]string, 0, len(chs))
	for _, ch := range chs {
		out = append(out, ch.Title)
	}
	return out
}

func TestEnsureSetupIsIdempotent(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nested", "data"))

	if err := s.EnsureSetup(); err != nil {
		t.Fatalf("first EnsureSetup: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(s.Root(), SubjectsFile))
	if err != nil {
		t.Fatalf("registry not created: %v", err)
	}
	if string(data) != "[]" {
		t.Fatalf("registry = %q, want []", data)
	}

	if err := s.SaveSubjects([]Subject{{ID: "sub_1", Name: "Math", Dir: "Math"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.EnsureSetup(); err != nil {
		t.Fatalf("second EnsureSetup: %v", err)
	}
	if got := s.Subjects(); len(got) != 1 {
		t.Fatalf("EnsureSetup clobbered registry: %#v", got)
	}
}

func TestSubjectsSoftFailsOnCorruptRegistry(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(filepath.Join(s.Root(), SubjectsFile), []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := s.LoadSubjects(); err == nil {
		t.Fatal("LoadSubjects should report the parse error")
	}
	got := s.Subjects()
	if got == nil || len(got) != 0 {
		t.Fatalf("Subjects() = %#v, want empty slice", got)
	}
}

func TestSubjectsSoftFailsOnMissingRegistry(t *testing.T) {
	s := New(t.TempDir())
	if got := s.Subjects(); len(got) != 0 {
		t.Fatalf("Subjects() = %#v, want empty", got)
	}
}

func TestSaveSubjectsKeepsNonASCII(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveSubjects([]Subject{{ID: "sub_1", Name: "管理学", Dir: "管理学"}}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(s.Root(), SubjectsFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"name": "管理学"`) {
		t.Fatalf("expected literal non-ASCII, pretty printed:\n%s", data)
	}
}

func TestTouchSubjectUpserts(t *testing.T) {
	s := newTestStore(t)
	first := time.Date(2024, 3, 1, 9, 30, 0, 0, time.Local)
	later := first.Add(26 * time.Hour)

	sub, created, err := s.TouchSubject("Biology", first)
	if err != nil {
		t.Fatalf("TouchSubject: %v", err)
	}
	if !created {
		t.Fatal("expected entry to be created")
	}
	want := Subject{
		ID:        "sub_" + itoa(first.Unix()),
		Name:      "Biology",
		Dir:       "Biology",
		CreatedAt: "2024-03-01",
		UpdatedAt: "2024-03-01 09:30:00",
	}
	if !reflect.DeepEqual(sub, want) {
		t.Fatalf("got %#v, want %#v", sub, want)
	}

	sub2, created, err := s.TouchSubject("Biology", later)
	if err != nil {
		t.Fatalf("TouchSubject: %v", err)
	}
	if created {
		t.Fatal("second touch must not create")
	}
	if sub2.ID != want.ID || sub2.CreatedAt != want.CreatedAt {
		t.Fatalf("id/created_at changed: %#v", sub2)
	}
	if sub2.UpdatedAt != "2024-03-02 11:30:00" {
		t.Fatalf("updated_at = %q", sub2.UpdatedAt)
	}
	if n := len(s.Subjects()); n != 1 {
		t.Fatalf("registry has %d entries, want 1", n)
	}
}

func TestTouchSubjectConcurrent(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	var wg sync.WaitGroup
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if _, _, err := s.TouchSubject(name, now); err != nil {
				t.Errorf("TouchSubject(%s): %v", name, err)
			}
		}(name)
	}
	wg.Wait()

	if n := len(s.Subjects()); n != 6 {
		t.Fatalf("registry has %d entries, want 6", n)
	}
}

func TestUpdateSubjectIndexInsertAndSort(t *testing.T) {
	s := newTestStore(t)
	mustSubjectDir(t, s, "Math")

	for i, title := range []string{"Chapter 10", "Intro", "Chapter 2", "Chapter 1"} {
		upd, err := s.UpdateSubjectIndex("Math", Chapter{ID: "c", Title: title, File: "ch_" + itoa(int64(i)) + ".json", Count: 1})
		if err != nil {
			t.Fatalf("UpdateSubjectIndex(%s): %v", title, err)
		}
		if upd.Count != i+1 || upd.Replaced {
			t.Fatalf("unexpected update result %#v", upd)
		}
	}

	chs, err := s.Chapters("Math")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"Chapter 1", "Chapter 2", "Chapter 10", "Intro"}; !reflect.DeepEqual(titles(chs), want) {
		t.Fatalf("order = %v, want %v", titles(chs), want)
	}
}

func TestUpdateSubjectIndexReplacesAndRemovesStaleFile(t *testing.T) {
	s := newTestStore(t)
	mustSubjectDir(t, s, "Math")
	dir := s.SubjectDir("Math")

	if err := os.WriteFile(filepath.Join(dir, "ch_1_0.json"), []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpdateSubjectIndex("Math", Chapter{ID: "c_1_0", Title: "Ch1", File: "ch_1_0.json", Count: 3}); err != nil {
		t.Fatal(err)
	}

	upd, err := s.UpdateSubjectIndex("Math", Chapter{ID: "c_2_0", Title: "Ch1", File: "ch_2_0.json", Count: 5})
	if err != nil {
		t.Fatal(err)
	}
	if !upd.Replaced || upd.Count != 1 || upd.RemovedFile != "ch_1_0.json" || upd.CleanupErr != nil {
		t.Fatalf("unexpected update result %#v", upd)
	}
	if _, err := os.Stat(filepath.Join(dir, "ch_1_0.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("stale chapter file still present: %v", err)
	}

	chs, _ := s.Chapters("Math")
	if len(chs) != 1 || chs[0].File != "ch_2_0.json" || chs[0].Count != 5 || chs[0].ID != "c_2_0" {
		t.Fatalf("index = %#v", chs)
	}
}

func TestUpdateSubjectIndexSameFileKeepsFile(t *testing.T) {
	s := newTestStore(t)
	mustSubjectDir(t, s, "Math")
	path := filepath.Join(s.SubjectDir("Math"), "ch_1_0.json")
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if _, err := s.UpdateSubjectIndex("Math", Chapter{Title: "Ch1", File: "ch_1_0.json"}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("chapter file removed although unchanged: %v", err)
	}
}

func TestUpdateSubjectIndexIgnoresMissingOrUnsafeStaleFile(t *testing.T) {
	s := newTestStore(t)
	mustSubjectDir(t, s, "Math")

	if _, err := s.UpdateSubjectIndex("Math", Chapter{Title: "A", File: "gone.json"}); err != nil {
		t.Fatal(err)
	}
	upd, err := s.UpdateSubjectIndex("Math", Chapter{Title: "A", File: "new.json"})
	if err != nil {
		t.Fatalf("missing stale file must not fail: %v", err)
	}
	if upd.CleanupErr != nil || upd.RemovedFile != "" {
		t.Fatalf("unexpected cleanup result %#v", upd)
	}

	if _, err := s.UpdateSubjectIndex("Math", Chapter{Title: "B", File: "../subjects.json"}); err != nil {
		t.Fatal(err)
	}
	upd, err = s.UpdateSubjectIndex("Math", Chapter{Title: "B", File: "b.json"})
	if err != nil {
		t.Fatalf("unsafe stale file must not fail the update: %v", err)
	}
	if upd.CleanupErr == nil {
		t.Fatal("expected CleanupErr for path outside the subject")
	}
	if _, err := os.Stat(filepath.Join(s.Root(), SubjectsFile)); err != nil {
		t.Fatalf("registry was deleted: %v", err)
	}
}

func TestUpdateSubjectIndexCorruptIndexIsFatal(t *testing.T) {
	s := newTestStore(t)
	mustSubjectDir(t, s, "Math")
	if err := os.WriteFile(filepath.Join(s.SubjectDir("Math"), IndexFile), []byte("oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpdateSubjectIndex("Math", Chapter{Title: "A", File: "a.json"}); err == nil {
		t.Fatal("expected error for corrupt index")
	}
}

func TestChaptersUnknownSubject(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Chapters("Nope"); !errors.Is(err, ErrSubjectNotFound) {
		t.Fatalf("err = %v, want ErrSubjectNotFound", err)
	}
	mustSubjectDir(t, s, "Empty")
	chs, err := s.Chapters("Empty")
	if err != nil || len(chs) != 0 {
		t.Fatalf("Chapters(Empty) = %v, %v", chs, err)
	}
}

func TestFindChapter(t *testing.T) {
	s := newTestStore(t)
	mustSubjectDir(t, s, "Math")
	for _, ch := range []Chapter{
		{ID: "c_1_0", Title: "Algebra", File: "a.json"},
		{ID: "c_1_1", Title: "Geometry 2", File: "g.json"},
	} {
		if _, err := s.UpdateSubjectIndex("Math", ch); err != nil {
			t.Fatal(err)
		}
	}

	for ref, want := range map[string]string{"c_1_0": "Algebra", "Geometry 2": "Geometry 2", "algebra": "Algebra"} {
		ch, err := s.FindChapter("Math", ref)
		if err != nil {
			t.Fatalf("FindChapter(%q): %v", ref, err)
		}
		if ch.Title != want {
			t.Fatalf("FindChapter(%q) = %q, want %q", ref, ch.Title, want)
		}
	}
	if _, err := s.FindChapter("Math", "Calculus"); !errors.Is(err, ErrChapterNotFound) {
		t.Fatalf("err = %v, want ErrChapterNotFound", err)
	}
}

func TestSortChaptersStableAndNumeric(t *testing.T) {
	chs := []Chapter{
		{Title: "Intro", ID: "1"},
		{Title: "Part 3 (v2)", ID: "2"},
		{Title: "Ch 03", ID: "3"},
		{Title: "Appendix", ID: "4"},
		{Title: "第１２章", ID: "5"},
		{Title: "Chapter 100000000000000000000", ID: "6"},
		{Title: "Ch 2 of 10", ID: "7"},
	}
	SortChapters(chs)

	var ids []string
	for _, ch := range chs {
		ids = append(ids, ch.ID)
	}
	// 2, 3 (v2) and 03 tie at 3, 12, huge, then no-digit titles in input order.
	if want := []string{"7", "2", "3", "5", "6", "1", "4"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("order = %v, want %v", ids, want)
	}
}

func TestTitleNumber(t *testing.T) {
	tests := map[string]string{
		"Chapter 10":   "10",
		"Ch 007 and 8": "7",
		"v0":           "0",
		"Intro":        "",
		"":             "",
		"第１２章":         "12",
		"٣ arabic":     "3",
	}
	for in, want := range tests {
		if got := TitleNumber(in); got != want {
			t.Errorf("TitleNumber(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidSubjectName(t *testing.T) {
	valid := []string{"Math", "管理学", "Intro to CS"}
	invalid := []string{"", "   ", ".", "..", "a/b", `a\b`, PrivateDir,
		SubjectsFile, "Subjects.JSON", "qbank.yaml", ".gitignore"}
	for _, n := range valid {
		if !ValidSubjectName(n) {
			t.Errorf("ValidSubjectName(%q) = false", n)
		}
	}
	for _, n := range invalid {
		if ValidSubjectName(n) {
			t.Errorf("ValidSubjectName(%q) = true", n)
		}
	}
}

func TestLockSubjectSerializes(t *testing.T) {
	s := newTestStore(t)

	unlock, err := s.LockSubject("Math")
	if err != nil {
		t.Fatal(err)
	}

	acquired := make(chan struct{})
	go func() {
		u, err := s.LockSubject("Math")
		if err != nil {
			t.Errorf("LockSubject: %v", err)
			close(acquired)
			return
		}
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second LockSubject acquired while first held")
	case <-time.After(50 * time.Millisecond):
	}
	unlock()
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second LockSubject never acquired")
	}
}

func TestTryLockFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.lock")
	l, err := TryLockFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Release()

	// flock locks are per open file description, so a second open in the
	// same process conflicts just like another process would.
	if _, err := TryLockFile(path); !errors.Is(err, ErrLocked) {
		t.Fatalf("err = %v, want ErrLocked", err)
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func TestRegistryAndIndexKeepUnknownFields(t *testing.T) {
	s := newTestStore(t)
	mustSubjectDir(t, s, "Math")

	registry := `[{"id":"sub_1","name":"Math","dir":"Math","created_at":"2024-01-01","updated_at":"2024-01-01 00:00:00","color":"#f80","tags":["core"]}]`
	if err := os.WriteFile(filepath.Join(s.Root(), SubjectsFile), []byte(registry), 0o644); err != nil {
		t.Fatal(err)
	}
	index := `[{"id":"c_1_0","title":"Ch1","file":"ch_1_0.json","count":2,"updated_at":"x","progress":{"done":1}}]`
	if err := os.WriteFile(filepath.Join(s.SubjectDir("Math"), IndexFile), []byte(index), 0o644); err != nil {
		t.Fatal(err)
	}

	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.Local)
	if _, _, err := s.TouchSubject("Math", now); err != nil {
		t.Fatalf("TouchSubject: %v", err)
	}
	if _, err := s.UpdateSubjectIndex("Math", Chapter{ID: "c_2_0", Title: "Ch2", File: "ch_2_0.json", Count: 1}); err != nil {
		t.Fatalf("UpdateSubjectIndex: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(s.Root(), SubjectsFile))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"color": "#f80"`, `"core"`, `"updated_at": "2024-06-01 08:00:00"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("registry missing %s:\n%s", want, data)
		}
	}

	chs, err := s.Chapters("Math")
	if err != nil {
		t.Fatal(err)
	}
	if len(chs) != 2 || chs[1].Extra != nil {
		t.Fatalf("chapters = %#v", chs)
	}
	var progress struct{ Done int }
	if err := json.Unmarshal(chs[0].Extra["progress"], &progress); err != nil || progress.Done != 1 {
		t.Errorf("progress = %s (%v)", chs[0].Extra["progress"], err)
	}
}
