// Package seed loads the fixed 48-entity/12-group ground truth partition
// spec.md §2 describes into the teams table, for local bootstrap and
// integration-test fixtures. Out of scope as an operational concern per
// spec.md §1 (no admin endpoint triggers it), so it exposes a single
// function rather than its own cmd/ entry point.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"database/sql"
)

//go:embed teams.json
var defaultTeams []byte

// Team is the wire shape of a single seed/teams.json entry, matching
// internal/teams.Entity field-for-field.
type Team struct {
	ID      string `json:"id"`
	FaName  string `json:"faName"`
	EngName string `json:"engName"`
	Order   int    `json:"order"`
	Group   string `json:"group"`
	Flag    string `json:"flag"`
}

// Default returns the built-in 48-entity/12-group seed set.
func Default() ([]Team, error) {
	var teams []Team
	if err := json.Unmarshal(defaultTeams, &teams); err != nil {
		return nil, fmt.Errorf("seed: unmarshal default teams: %w", err)
	}
	return teams, nil
}

// Load upserts teams into the teams table, overwriting every non-id column
// of an existing row with a matching id — safe to run repeatedly against
// the same database.
func Load(ctx context.Context, db *sql.DB, teams []Team) error {
	const query = `
		INSERT INTO teams (id, fa_name, eng_name, "order", "group", flag)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			fa_name = EXCLUDED.fa_name,
			eng_name = EXCLUDED.eng_name,
			"order" = EXCLUDED."order",
			"group" = EXCLUDED."group",
			flag = EXCLUDED.flag
	`
	for _, t := range teams {
		if _, err := db.ExecContext(ctx, query, t.ID, t.FaName, t.EngName, t.Order, t.Group, t.Flag); err != nil {
			return fmt.Errorf("seed: upsert team %s: %w", t.ID, err)
		}
	}
	return nil
}
