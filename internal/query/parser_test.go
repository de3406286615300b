package query

import "testing"

func TestParseInsert(t *testing.T) {
	stmt, err := Parse(`INSERT INTO users (id, name, age) VALUES ('user_007', 'Ada', 36)`)
	if err != nil {
		t.Fatal(err)
	}
	ins, ok := stmt.(*InsertStatement)
	if !ok {
		t.Fatalf("got %T, want *InsertStatement", stmt)
	}
	if ins.Table != "users" {
		t.Fatalf("Table = %q", ins.Table)
	}
	wantCols := []string{"id", "name", "age"}
	for i, c := range wantCols {
		if ins.Columns[i] != c {
			t.Fatalf("Columns[%d] = %q, want %q", i, ins.Columns[i], c)
		}
	}
	if ins.Values[0].Text != "user_007" || !ins.Values[0].Quoted {
		t.Fatalf("Values[0] = %+v", ins.Values[0])
	}
	if ins.Values[2].Text != "36" || ins.Values[2].Quoted {
		t.Fatalf("Values[2] = %+v", ins.Values[2])
	}
}

func TestParseInsertWithoutID(t *testing.T) {
	stmt, err := Parse(`INSERT INTO users (name) VALUES ('Grace')`)
	if err != nil {
		t.Fatal(err)
	}
	ins := stmt.(*InsertStatement)
	if len(ins.Columns) != 1 || ins.Columns[0] != "name" {
		t.Fatalf("Columns = %v", ins.Columns)
	}
}

func TestParseSelectByID(t *testing.T) {
	stmt, err := Parse(`SELECT * FROM users WHERE id = 'user_007'`)
	if err != nil {
		t.Fatal(err)
	}
	sel, ok := stmt.(*SelectStatement)
	if !ok {
		t.Fatalf("got %T, want *SelectStatement", stmt)
	}
	if sel.Table != "users" || sel.ID != "user_007" {
		t.Fatalf("got %+v", sel)
	}
}

func TestParseSelectDoesNotHardcodeLiteral(t *testing.T) {
	stmt, err := Parse(`SELECT * FROM users WHERE id = 'user_042'`)
	if err != nil {
		t.Fatal(err)
	}
	sel := stmt.(*SelectStatement)
	if sel.ID != "user_042" {
		t.Fatalf("ID = %q, want the literal actually parsed from the WHERE clause, not a hardcoded value", sel.ID)
	}
}

func TestParseRejectsUnsupportedStatements(t *testing.T) {
	cases := []string{
		"DELETE FROM users WHERE id = 'x'",
		"UPDATE users SET name = 'x'",
		"SELECT name FROM users WHERE id = 'x'",
		"SELECT * FROM users",
		"",
		"not sql at all",
	}
	for _, sql := range cases {
		if _, err := Parse(sql); err == nil {
			t.Fatalf("expected Parse(%q) to fail", sql)
		}
	}
}

func TestParseInsertMismatchedColumnsAndValues(t *testing.T) {
	_, err := Parse(`INSERT INTO users (id, name) VALUES ('user_001')`)
	if err == nil {
		t.Fatal("expected error for mismatched column/value counts")
	}
}
