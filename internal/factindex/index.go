// Package factindex builds an optional in-memory index over a parsed
// facts.Set, giving indexed lookups by pid (PortsForPID, ProcessExists) and
// by listening port (PIDsOnPort) instead of linear scans over the fact
// slices. The analyzer uses it for its stale-PID check.
package factindex

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go driver, keeps the analyzer CGO-free for cross-compilation

	"github.com/fredericcarre/xcprobe/pkg/evidence"
	"github.com/fredericcarre/xcprobe/pkg/facts"
)

// Index is a query surface over a fact.Set backed by an in-memory SQLite
// database. It is built once per analysis run and never mutated.
type Index struct {
	db *sql.DB
}

// Build loads set into a fresh in-memory SQLite database and returns an
// Index over it. The caller must Close the returned Index.
func Build(set *facts.Set) (*Index, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("factindex: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := loadFacts(db, set); err != nil {
		db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

// Close releases the underlying in-memory database.
func (idx *Index) Close() error {
	return idx.db.Close()
}

func createSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE processes (
	pid INTEGER PRIMARY KEY,
	ppid INTEGER NOT NULL,
	user TEXT NOT NULL,
	evidence_ref TEXT NOT NULL
);
CREATE TABLE ports (
	pid INTEGER NOT NULL,
	protocol TEXT NOT NULL,
	port INTEGER NOT NULL,
	evidence_ref TEXT NOT NULL
);
CREATE INDEX idx_ports_pid ON ports(pid);
CREATE INDEX idx_ports_port ON ports(port);
CREATE TABLE services (
	name TEXT PRIMARY KEY,
	pid_refs TEXT NOT NULL,
	evidence_ref TEXT NOT NULL
);
`
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("factindex: create schema: %w", err)
	}
	return nil
}

func loadFacts(db *sql.DB, set *facts.Set) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("factindex: begin: %w", err)
	}
	defer tx.Rollback()

	for _, p := range set.Processes {
		if _, err := tx.Exec(`INSERT INTO processes (pid, ppid, user, evidence_ref) VALUES (?, ?, ?, ?)`,
			p.PID, p.PPID, p.User, string(p.EvidenceRef)); err != nil {
			return fmt.Errorf("factindex: insert process %d: %w", p.PID, err)
		}
	}
	for _, pb := range set.Ports {
		if _, err := tx.Exec(`INSERT INTO ports (pid, protocol, port, evidence_ref) VALUES (?, ?, ?, ?)`,
			pb.PID, string(pb.Protocol), pb.Port, string(pb.EvidenceRef)); err != nil {
			return fmt.Errorf("factindex: insert port binding: %w", err)
		}
	}
	for _, svc := range set.Services {
		refs := joinInts(svc.PIDRefs)
		if _, err := tx.Exec(`INSERT INTO services (name, pid_refs, evidence_ref) VALUES (?, ?, ?)`,
			svc.Name, refs, string(svc.EvidenceRef)); err != nil {
			return fmt.Errorf("factindex: insert service %q: %w", svc.Name, err)
		}
	}
	return tx.Commit()
}

// PortsForPID returns the ports a pid is bound to, via an indexed lookup.
func (idx *Index) PortsForPID(pid int) ([]facts.PortBinding, error) {
	rows, err := idx.db.Query(`SELECT protocol, port, evidence_ref FROM ports WHERE pid = ?`, pid)
	if err != nil {
		return nil, fmt.Errorf("factindex: query ports for pid %d: %w", pid, err)
	}
	defer rows.Close()

	var out []facts.PortBinding
	for rows.Next() {
		var proto, ref string
		var port int
		if err := rows.Scan(&proto, &port, &ref); err != nil {
			return nil, err
		}
		out = append(out, facts.PortBinding{Protocol: facts.Protocol(proto), Port: port, PID: pid, EvidenceRef: evidence.Ref(ref)})
	}
	return out, rows.Err()
}

// PIDsOnPort returns every pid bound to port, via an indexed lookup.
func (idx *Index) PIDsOnPort(port int) ([]int, error) {
	rows, err := idx.db.Query(`SELECT DISTINCT pid FROM ports WHERE port = ?`, port)
	if err != nil {
		return nil, fmt.Errorf("factindex: query pids for port %d: %w", port, err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var pid int
		if err := rows.Scan(&pid); err != nil {
			return nil, err
		}
		out = append(out, pid)
	}
	return out, rows.Err()
}

// ProcessExists reports whether pid was seen in the indexed fact set,
// used by the analyzer's stale-PID check.
func (idx *Index) ProcessExists(pid int) (bool, error) {
	var count int
	err := idx.db.QueryRow(`SELECT COUNT(1) FROM processes WHERE pid = ?`, pid).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("factindex: query process %d: %w", pid, err)
	}
	return count > 0, nil
}

func joinInts(vals []int) string {
	out := ""
	for i, v := range vals {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%d", v)
	}
	return out
}
