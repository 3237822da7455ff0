package store

// migration is a single schema change.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is applied in order; applied versions are recorded in
// schema_migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create active flows",
		SQL: `
			CREATE TABLE active_flows (
				session_key TEXT PRIMARY KEY,
				action      TEXT NOT NULL,
				step_index  INTEGER NOT NULL,
				collected   TEXT NOT NULL DEFAULT '{}',
				updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);
		`,
	},
	{
		Version: 2,
		Name:    "add flow expiry",
		SQL: `
			ALTER TABLE active_flows ADD COLUMN expires_at INTEGER NOT NULL DEFAULT 0;
			CREATE INDEX idx_active_flows_expiry ON active_flows (expires_at);
		`,
	},
}
