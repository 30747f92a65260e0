package records

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newCSVStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.csv")
	return NewStore(NewCSVBackend(path)), path
}

func seed(t *testing.T, s *Store, n int) {
	t.Helper()
	ctx := context.Background()
	tbl := numbered(n)
	if err := s.Save(ctx, tbl); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s, _ := newCSVStore(t)
	tbl, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Len() != 0 {
		t.Fatalf("expected empty table, got %d rows", tbl.Len())
	}
}

func TestAppendThenLoad(t *testing.T) {
	s, _ := newCSVStore(t)
	ctx := context.Background()

	var rec Record
	rec.Set(ArmyNo, "JC-1001")
	rec.Set(Name, "John, \"Jack\" Doe")
	rec.Set(ChildrenNames, JoinEntries("Asha\n\n Vikram "))
	rec.Set(CreatedOn, "2024-01-02 03:04:05")

	idx, err := s.Append(ctx, rec)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if idx != 0 {
		t.Fatalf("Append index = %d", idx)
	}

	got, err := s.Get(ctx, 0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != rec {
		t.Fatalf("round trip mismatch:\n got %v\nwant %v", got.Values(), rec.Values())
	}
	if got.Get(ChildrenNames) != "Asha; Vikram" {
		t.Fatalf("multi-entry value = %q", got.Get(ChildrenNames))
	}
	if got.Get(LastModified) != "" {
		t.Fatalf("Last Modified should be empty")
	}
}

func TestUpdateChangesOnlyTargetRow(t *testing.T) {
	s, _ := newCSVStore(t)
	ctx := context.Background()
	seed(t, s, 5)

	before, _ := s.Load(ctx)
	rec, _ := before.Row(2)
	rec.Set(Rank, "Havildar")
	if err := s.Update(ctx, 2, rec); err != nil {
		t.Fatalf("Update: %v", err)
	}

	after, _ := s.Load(ctx)
	for i := 0; i < 5; i++ {
		b, _ := before.Row(i)
		a, _ := after.Row(i)
		if i == 2 {
			if a.Get(Rank) != "Havildar" {
				t.Fatalf("row 2 not updated")
			}
			continue
		}
		if a != b {
			t.Fatalf("row %d changed", i)
		}
	}
}

func TestDeleteShiftsRows(t *testing.T) {
	s, _ := newCSVStore(t)
	ctx := context.Background()
	seed(t, s, 5)

	removed, err := s.Delete(ctx, 1)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if removed.Get(ArmyNo) != "A001" {
		t.Fatalf("removed %q", removed.Get(ArmyNo))
	}

	tbl, _ := s.Load(ctx)
	want := []string{"A000", "A002", "A003", "A004"}
	if tbl.Len() != len(want) {
		t.Fatalf("len = %d", tbl.Len())
	}
	for i, w := range want {
		r, _ := tbl.Row(i)
		if r.Get(ArmyNo) != w {
			t.Fatalf("row %d = %q, want %q", i, r.Get(ArmyNo), w)
		}
	}
}

func TestOutOfRangeDoesNotWrite(t *testing.T) {
	s, path := newCSVStore(t)
	ctx := context.Background()
	seed(t, s, 3)
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Update(ctx, 3, Record{}); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("Update err = %v", err)
	}
	if _, err := s.Delete(ctx, 3); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("Delete err = %v", err)
	}
	if _, err := s.Get(ctx, -1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("Get err = %v", err)
	}

	after, _ := os.ReadFile(path)
	if !bytes.Equal(before, after) {
		t.Fatalf("backing file changed after out-of-range operations")
	}
}

func TestCSVRoundTripStable(t *testing.T) {
	tbl := NewTable()
	var a, b Record
	a.Set(Name, "multi\nline")
	a.Set(Remarks, `quote " and , comma`)
	b.Set(PostingHistory, "Leh; Pune")
	tbl.Append(a)
	tbl.Append(b)
	tbl.Append(Record{})

	first, err := encodeCSV(tbl)
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := decodeCSV(first)
	if err != nil {
		t.Fatal(err)
	}
	second, err := encodeCSV(loaded)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("save(load(save(T))) != save(T)\n%s\n---\n%s", first, second)
	}
	if loaded.Len() != 3 {
		t.Fatalf("loaded %d rows", loaded.Len())
	}
}

func TestCSVMissingColumnsFillEmpty(t *testing.T) {
	data := "\xEF\xBB\xBFName,Army No,Legacy Column\nRavi,A1,x\nShort\n"
	tbl, err := decodeCSV([]byte(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("rows = %d", tbl.Len())
	}
	r0, _ := tbl.Row(0)
	if r0.Get(Name) != "Ravi" || r0.Get(ArmyNo) != "A1" || r0.Get(Rank) != "" {
		t.Fatalf("row 0 = %v", r0.Values())
	}
	r1, _ := tbl.Row(1)
	if r1.Get(Name) != "Short" || r1.Get(ArmyNo) != "" {
		t.Fatalf("row 1 = %v", r1.Values())
	}

	out, _ := encodeCSV(tbl)
	header := strings.SplitN(string(out), "\n", 2)[0]
	if strings.Contains(header, "Legacy Column") || !strings.HasPrefix(header, "Army No,Rank,Name") {
		t.Fatalf("unexpected header after save: %s", header)
	}
}

func TestCSVRejectsUnknownHeader(t *testing.T) {
	if _, err := decodeCSV([]byte("foo,bar\n1,2\n")); err == nil {
		t.Fatal("expected error for header without known columns")
	}
}

func TestCSVEmptyFile(t *testing.T) {
	tbl, err := decodeCSV(nil)
	if err != nil || tbl.Len() != 0 {
		t.Fatalf("empty file: %v rows=%d", err, tbl.Len())
	}
}

func TestCSVPing(t *testing.T) {
	dir := t.TempDir()
	if err := NewCSVBackend(filepath.Join(dir, "r.csv")).Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := NewCSVBackend(filepath.Join(dir, "missing", "r.csv")).Ping(context.Background()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestJSONRecordRoundTrip(t *testing.T) {
	var rec Record
	rec.Set(Name, "Ravi")
	rec.Set(PhotoUploadPath, "uploads/A1/x.png")
	raw, err := encodeJSONRecord(rec)
	if err != nil {
		t.Fatal(err)
	}
	got, err := decodeJSONRecord(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got != rec {
		t.Fatalf("json round trip mismatch")
	}
	partial, err := decodeJSONRecord([]byte(`{"Name":"Mary","Unknown":"x"}`))
	if err != nil || partial.Get(Name) != "Mary" || partial.Get(Rank) != "" {
		t.Fatalf("partial decode: %v %v", err, partial.Values())
	}
}
