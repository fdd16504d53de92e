package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist. Monetary columns are TEXT
// holding exact decimal strings; REAL would reintroduce float drift.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    company TEXT NOT NULL,
    name TEXT,
    vat_number TEXT,
    country_code TEXT NOT NULL DEFAULT 'BE',
    street TEXT,
    city TEXT,
    postal_code TEXT,
    peppol_id TEXT
);

CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    from_user_id TEXT NOT NULL,
    to_user_id TEXT NOT NULL,
    value TEXT NOT NULL,
    vat TEXT NOT NULL DEFAULT '0',
    vat_recovery TEXT NOT NULL DEFAULT '1',
    currency TEXT NOT NULL DEFAULT 'EUR',
    start_at INTEGER NOT NULL,
    end_at INTEGER,
    intervat INTEGER NOT NULL DEFAULT 0,
    annotation TEXT,
    proof TEXT,
    FOREIGN KEY (from_user_id) REFERENCES users(id),
    FOREIGN KEY (to_user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS invoices (
    id TEXT PRIMARY KEY,
    external_id TEXT,
    peppol_message_id TEXT,
    supplier_id TEXT,
    buyer_id TEXT,
    issue_date INTEGER,
    currency TEXT,
    total_amount TEXT,
    vat_amount TEXT,
    transaction_id TEXT,
    FOREIGN KEY (supplier_id) REFERENCES users(id),
    FOREIGN KEY (buyer_id) REFERENCES users(id),
    FOREIGN KEY (transaction_id) REFERENCES transactions(id)
);

CREATE INDEX IF NOT EXISTS idx_users_company ON users(company);
CREATE INDEX IF NOT EXISTS idx_invoices_message_id ON invoices(peppol_message_id);
CREATE INDEX IF NOT EXISTS idx_transactions_from_user ON transactions(from_user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_to_user ON transactions(to_user_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
