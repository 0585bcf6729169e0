package migration

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

func TestScan(t *testing.T) {
	t.Run("orders by numeric version and derives descriptions", func(t *testing.T) {
		fsys := fstest.MapFS{
			"migrations/010_add_index.sql":    {Data: []byte("CREATE INDEX idx ON t(a);")},
			"migrations/002_second_step.sql":  {Data: []byte("-- comment\nCREATE TABLE b (id TEXT);")},
			"migrations/001_initial.sql":      {Data: []byte("CREATE TABLE a (id TEXT);")},
			"migrations/README.md":            {Data: []byte("ignored")},
			"migrations/nested/003_other.sql": {Data: []byte("CREATE TABLE c (id TEXT);")},
		}

		migrations, err := Scan(fsys, "migrations")
		if err != nil {
			t.Fatalf("expected scan to succeed, got %v", err)
		}

		var versions, descriptions []string
		for _, m := range migrations {
			versions = append(versions, m.Version)
			descriptions = append(descriptions, m.Description)
			if len(m.Checksum) != 64 {
				t.Fatalf("expected sha256 hex checksum, got %q", m.Checksum)
			}
		}
		if diff := cmp.Diff([]string{"001", "002", "010"}, versions); diff != "" {
			t.Fatalf("unexpected versions (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"initial", "second step", "add index"}, descriptions); diff != "" {
			t.Fatalf("unexpected descriptions (-want +got):\n%s", diff)
		}
	})

	t.Run("rejects files that break the naming convention", func(t *testing.T) {
		fsys := fstest.MapFS{"m/initial.sql": {Data: []byte("CREATE TABLE a (id TEXT);")}}
		_, err := Scan(fsys, "m")
		if !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
		}
	})

	t.Run("rejects comment-only files", func(t *testing.T) {
		fsys := fstest.MapFS{"m/001_empty.sql": {Data: []byte("-- nothing here\n;\n")}}
		_, err := Scan(fsys, "m")
		if !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
		}
	})

	t.Run("rejects duplicate versions", func(t *testing.T) {
		fsys := fstest.MapFS{
			"m/001_a.sql": {Data: []byte("CREATE TABLE a (id TEXT);")},
			"m/1_b.sql":   {Data: []byte("CREATE TABLE b (id TEXT);")},
		}
		_, err := Scan(fsys, "m")
		if !errors.Is(err, ErrDuplicateVersion) {
			t.Fatalf("expected ErrDuplicateVersion, got %v", err)
		}
	})
}

func TestSplitStatements(t *testing.T) {
	script := `
-- header
CREATE TABLE a (
	id TEXT -- trailing comments stay
);

-- between
INSERT INTO a (id) VALUES ('x');
`
	got := splitStatements(script)
	want := []string{
		"CREATE TABLE a (\nid TEXT -- trailing comments stay\n)",
		"INSERT INTO a (id) VALUES ('x')",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected statements (-want +got):\n%s", diff)
	}
}
