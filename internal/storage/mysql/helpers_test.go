package mysql

import (
	"errors"
	"fmt"
	"testing"

	mysqldrv "github.com/go-sql-driver/mysql"
)

func TestPlaceholders(t *testing.T) {
	if got := placeholders(3); got != "(?,?,?)" {
		t.Fatalf("got %q", got)
	}
	if got := placeholders(1); got != "(?)" {
		t.Fatalf("got %q", got)
	}
}

func TestUniqueSorted(t *testing.T) {
	got := uniqueSorted([]string{"b", "a", "b", "", "c"})
	want := []string{"a", "b", "c"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestIsDuplicate(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &mysqldrv.MySQLError{Number: 1062, Message: "Duplicate entry"})
	if !isDuplicate(dup) {
		t.Fatalf("expected 1062 to be a duplicate")
	}
	if isDuplicate(&mysqldrv.MySQLError{Number: 1213}) {
		t.Fatalf("deadlock is not a duplicate")
	}
	if isDuplicate(errors.New("plain")) {
		t.Fatalf("plain error is not a duplicate")
	}
}
