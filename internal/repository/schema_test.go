package repository

import (
	"bufio"
	"os"
	"strings"
	"testing"
)

// tableColumns parses CREATE TABLE blocks out of the initial migration so
// the column lists the repositories select can be checked against the DDL
// they run against.
func tableColumns(t *testing.T) map[string]map[string]bool {
	t.Helper()

	f, err := os.Open("../../migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("open migration: %v", err)
	}
	defer f.Close()

	tables := make(map[string]map[string]bool)
	var current map[string]bool

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "CREATE TABLE "):
			name := strings.TrimSuffix(strings.TrimPrefix(line, "CREATE TABLE "), " (")
			current = make(map[string]bool)
			tables[name] = current
		case line == ");":
			current = nil
		case current != nil && line != "":
			word := strings.Trim(strings.Fields(line)[0], ",")
			switch word {
			case "UNIQUE", "PRIMARY", "FOREIGN", "CONSTRAINT", "CHECK":
				continue
			}
			current[word] = true
		}
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan migration: %v", err)
	}
	return tables
}

func TestColumnListsMatchSchema(t *testing.T) {
	t.Parallel()

	tables := tableColumns(t)

	cases := []struct {
		table   string
		columns string
	}{
		{"teams", teamColumns},
		{"team_members", memberColumns},
		{"team_invites", inviteColumns},
		{"projects", projectColumns},
		{"issue_statuses", statusColumns},
		{"issues", issueColumns},
		{"project_labels", labelColumns},
		{"issue_subtasks", subtaskColumns},
		{"comments", commentColumns},
		{"notifications", notificationColumns},
	}

	for _, tc := range cases {
		ddl, ok := tables[tc.table]
		if !ok {
			t.Errorf("table %q not found in migration", tc.table)
			continue
		}
		for _, col := range strings.Split(tc.columns, ", ") {
			if !ddl[col] {
				t.Errorf("%s: selects column %q which the DDL does not define", tc.table, col)
			}
		}
	}
}
