package records

import (
	"errors"
	"fmt"
	"testing"
)

func numbered(n int) *Table {
	t := NewTable()
	for i := 0; i < n; i++ {
		var rec Record
		rec.Set(ArmyNo, fmt.Sprintf("A%03d", i))
		t.Append(rec)
	}
	return t
}

func TestSchemaOrder(t *testing.T) {
	if len(FormFields) != 68 {
		t.Fatalf("expected 68 form fields, got %d", len(FormFields))
	}
	if len(AllFields) != len(FormFields)+len(ExtraFields) {
		t.Fatalf("AllFields should be form fields followed by extra fields")
	}
	if AllFields[0] != ArmyNo || AllFields[len(AllFields)-1] != LastModified {
		t.Fatalf("unexpected column order: first=%s last=%s", AllFields[0], AllFields[len(AllFields)-1])
	}
	total := 0
	for _, s := range Sections {
		total += len(s.Fields)
	}
	if total != len(FormFields) {
		t.Fatalf("sections cover %d fields, want %d", total, len(FormFields))
	}
	for _, f := range AllFields {
		got, ok := FieldByName(f.String())
		if !ok || got != f {
			t.Fatalf("FieldByName(%q) = %v, %v", f.String(), got, ok)
		}
	}
}

func TestJoinEntries(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"Delhi", "Delhi"},
		{" Delhi \n\n  Pune\r\n  ", "Delhi; Pune"},
		{"a\rb\n \n c", "a; b; c"},
	}
	for _, c := range cases {
		if got := JoinEntries(c.in); got != c.want {
			t.Errorf("JoinEntries(%q) = %q, want %q", c.in, got, c.want)
		}
	}
	if got := SplitEntries("a; b"); len(got) != 2 || got[1] != "b" {
		t.Errorf("SplitEntries returned %q", got)
	}
	if SplitEntries("") != nil {
		t.Errorf("SplitEntries of empty should be nil")
	}
}

func TestPagination(t *testing.T) {
	tbl := numbered(25)

	if got := tbl.PageCount(10); got != 3 {
		t.Fatalf("PageCount = %d, want 3", got)
	}
	first := tbl.Page(1, 10)
	if len(first) != 10 || first[0].Index != 0 || first[9].Index != 9 {
		t.Fatalf("page 1 = %d rows starting %d", len(first), first[0].Index)
	}
	last := tbl.Page(3, 10)
	if len(last) != 5 || last[0].Index != 20 || last[4].Index != 24 {
		t.Fatalf("page 3 = %d rows", len(last))
	}
	if last[0].Get(ArmyNo) != "A020" {
		t.Fatalf("page 3 first row = %q", last[0].Get(ArmyNo))
	}
	for _, p := range []int{0, -1, 4, 100} {
		if rows := tbl.Page(p, 10); len(rows) != 0 {
			t.Errorf("page %d should be empty, got %d rows", p, len(rows))
		}
	}
}

func TestPageCountEmptyTable(t *testing.T) {
	if got := NewTable().PageCount(10); got != 1 {
		t.Fatalf("empty table should have 1 page, got %d", got)
	}
}

func TestSearch(t *testing.T) {
	tbl := NewTable()
	names := []string{"John Smith", "JOHNSON", "Mary", "Ravi"}
	for _, n := range names {
		var rec Record
		rec.Set(Name, n)
		tbl.Append(rec)
	}
	var withRemark Record
	withRemark.Set(Remarks, "met john at depot")
	tbl.Append(withRemark)

	for _, kw := range []string{"john", "JOHN", "John", "  john "} {
		got := tbl.Search(kw)
		if len(got) != 3 {
			t.Fatalf("Search(%q) returned %d rows, want 3", kw, len(got))
		}
		if got[0].Index != 0 || got[1].Index != 1 || got[2].Index != 4 {
			t.Fatalf("Search(%q) indices = %d,%d,%d", kw, got[0].Index, got[1].Index, got[2].Index)
		}
	}

	if got := tbl.Search(""); got != nil {
		t.Fatalf("empty keyword should perform no search")
	}
	got := tbl.Search("nobody")
	if got == nil || len(got) != 0 {
		t.Fatalf("no matches should be an empty non-nil slice, got %#v", got)
	}
}

func TestReplaceAndRemoveOutOfRange(t *testing.T) {
	tbl := numbered(3)
	for _, i := range []int{-1, 3} {
		if err := tbl.Replace(i, Record{}); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Replace(%d) err = %v", i, err)
		}
		if _, err := tbl.Remove(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Remove(%d) err = %v", i, err)
		}
	}
	if tbl.Len() != 3 {
		t.Fatalf("table mutated by failed operations")
	}
}
