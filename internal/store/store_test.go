package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"sync"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), "users", "battles")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestNew_SeedsEmptyCollections(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"users", "battles"} {
		data, err := os.ReadFile(filepath.Join(s.Dir(), name+".json"))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if string(data) != "[]" {
			t.Errorf("%s seeded with %q, want []", name, data)
		}
	}
}

func TestNew_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := New(dir, "users")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := s.Add(ctx, "users", Record{"id": "u1"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	s2, err := New(dir, "users")
	if err != nil {
		t.Fatalf("second New() error = %v", err)
	}
	got, err := s2.Read(ctx, "users")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got) != 1 || got[0]["id"] != "u1" {
		t.Errorf("Read() after reseed = %v, want the existing record", got)
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	want := []Record{
		{"id": "1", "name": "Ash", "favorites": []any{"25", "6"}, "active": true},
		{"id": "2", "lastUpdate": json.Number("1718000000123"), "team": map[string]any{"name": "Rain"}, "note": nil},
	}
	if err := s.Write(ctx, "battles", want); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := s.Read(ctx, "battles")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Read() = %#v, want %#v", got, want)
	}
}

func TestUnknownCollection(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Read(ctx, "pokemon"); !errors.Is(err, ErrUnknownCollection) {
		t.Errorf("Read() error = %v, want ErrUnknownCollection", err)
	}
	if err := s.Write(ctx, "pokemon", nil); !errors.Is(err, ErrUnknownCollection) {
		t.Errorf("Write() error = %v, want ErrUnknownCollection", err)
	}
	if _, err := s.Add(ctx, "pokemon", Record{"id": "x"}); !errors.Is(err, ErrUnknownCollection) {
		t.Errorf("Add() error = %v, want ErrUnknownCollection", err)
	}
}

func TestRead_CorruptData(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := os.WriteFile(filepath.Join(s.Dir(), "users.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Read(ctx, "users"); !errors.Is(err, ErrCorruptData) {
		t.Errorf("Read() error = %v, want ErrCorruptData", err)
	}
	if _, err := s.Update(ctx, "users", FieldEquals("id", "1"), Record{"name": "x"}); !errors.Is(err, ErrCorruptData) {
		t.Errorf("Update() error = %v, want ErrCorruptData", err)
	}
}

func TestFindOne(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for _, id := range []string{"a", "b", "c"} {
		if _, err := s.Add(ctx, "users", Record{"id": id, "team": "red"}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.FindOne(ctx, "users", FieldEquals("team", "red"))
	if err != nil {
		t.Fatalf("FindOne() error = %v", err)
	}
	if got["id"] != "a" {
		t.Errorf("FindOne() id = %v, want first match a", got["id"])
	}

	missing, err := s.FindOne(ctx, "users", FieldEquals("id", "zzz"))
	if err != nil {
		t.Fatalf("FindOne() error = %v", err)
	}
	if missing != nil {
		t.Errorf("FindOne() = %v, want nil", missing)
	}
}

func TestAdd_AppendsInOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		rec := Record{"id": strconv.Itoa(i)}
		got, err := s.Add(ctx, "battles", rec)
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if !reflect.DeepEqual(got, rec) {
			t.Errorf("Add() = %v, want %v", got, rec)
		}

		all, err := s.Read(ctx, "battles")
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != i+1 {
			t.Fatalf("len after add %d = %d, want %d", i, len(all), i+1)
		}
		for j, r := range all {
			if r["id"] != strconv.Itoa(j) {
				t.Errorf("record %d id = %v, want %d", j, r["id"], j)
			}
		}
	}
}

func TestAdd_RejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Add(ctx, "users", Record{"id": "1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(ctx, "users", Record{"id": "1"}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Add() error = %v, want ErrDuplicateID", err)
	}
}

func TestAddUnique_Conflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.AddUnique(ctx, "users", Record{"id": "1", "email": "a@b.c"}, FieldEquals("email", "a@b.c")); err != nil {
		t.Fatal(err)
	}
	_, err := s.AddUnique(ctx, "users", Record{"id": "2", "email": "a@b.c"}, FieldEquals("email", "a@b.c"))
	if !errors.Is(err, ErrConflict) {
		t.Errorf("AddUnique() error = %v, want ErrConflict", err)
	}
}

func TestUpdate_MergesPatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Add(ctx, "users", Record{"id": "1", "name": "Ash", "email": "ash@kanto"}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Update(ctx, "users", FieldEquals("id", "1"), Record{"name": "Red", "badges": json.Number("8")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	want := Record{"id": "1", "name": "Red", "email": "ash@kanto", "badges": json.Number("8")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Update() = %v, want %v", got, want)
	}

	stored, err := s.FindOne(ctx, "users", FieldEquals("id", "1"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(stored, want) {
		t.Errorf("stored = %v, want %v", stored, want)
	}
}

func TestUpdate_NoMatchLeavesCollectionUnchanged(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Add(ctx, "users", Record{"id": "1"}); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(s.Dir(), "users.json")
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.Update(ctx, "users", FieldEquals("id", "nope"), Record{"name": "x"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got != nil {
		t.Errorf("Update() = %v, want nil", got)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Errorf("collection changed:\nbefore %s\nafter  %s", before, after)
	}
}

func TestUpdateFunc_ErrorAborts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := s.Add(ctx, "users", Record{"id": "1", "n": "a"}); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	_, err := s.UpdateFunc(ctx, "users", FieldEquals("id", "1"), func(Record) (Record, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("UpdateFunc() error = %v, want boom", err)
	}

	got, _ := s.FindOne(ctx, "users", FieldEquals("id", "1"))
	if got["n"] != "a" {
		t.Errorf("record modified after aborted update: %v", got)
	}
}

func TestCancelledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Read(ctx, "users"); !errors.Is(err, context.Canceled) {
		t.Errorf("Read() error = %v, want context.Canceled", err)
	}
}

func TestUpdateFunc_ConcurrentIncrementsAreSerialized(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := s.Add(ctx, "battles", Record{"id": "1", "count": json.Number("0")}); err != nil {
		t.Fatal(err)
	}

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpdateFunc(ctx, "battles", FieldEquals("id", "1"), func(r Record) (Record, error) {
				c, err := r["count"].(json.Number).Int64()
				if err != nil {
					return nil, err
				}
				return Record{"count": json.Number(strconv.FormatInt(c+1, 10))}, nil
			})
			if err != nil {
				t.Errorf("UpdateFunc() error = %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := s.FindOne(ctx, "battles", FieldEquals("id", "1"))
	if err != nil {
		t.Fatal(err)
	}
	if got["count"] != json.Number(strconv.Itoa(n)) {
		t.Errorf("count = %v, want %d", got["count"], n)
	}
}

func TestAdd_ConcurrentAppendsAreKept(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	const n = 30
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.Add(ctx, "users", Record{"id": fmt.Sprintf("u%d", i)}); err != nil {
				t.Errorf("Add() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	all, err := s.Read(ctx, "users")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != n {
		t.Errorf("len = %d, want %d", len(all), n)
	}
}

// A read followed by a separate Update is not atomic: concurrent callers computing the
// patch outside the lock overwrite each other.
func TestUpdate_ReadThenPatchCanLoseWrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := s.Add(ctx, "users", Record{"id": "1", "favorites": []any{}}); err != nil {
		t.Fatal(err)
	}

	start := make(chan struct{})
	var read sync.WaitGroup
	var done sync.WaitGroup
	for _, fav := range []string{"25", "6"} {
		read.Add(1)
		done.Add(1)
		go func(fav string) {
			defer done.Done()
			<-start
			r, _ := s.FindOne(ctx, "users", FieldEquals("id", "1"))
			read.Done()
			read.Wait()
			favs := append([]any{}, r["favorites"].([]any)...)
			if _, err := s.Update(ctx, "users", FieldEquals("id", "1"), Record{"favorites": append(favs, fav)}); err != nil {
				t.Errorf("Update() error = %v", err)
			}
		}(fav)
	}
	close(start)
	done.Wait()

	got, _ := s.FindOne(ctx, "users", FieldEquals("id", "1"))
	if n := len(got["favorites"].([]any)); n != 1 {
		t.Errorf("favorites len = %d, want 1 (one write lost)", n)
	}
}
