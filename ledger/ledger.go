// Package ledger is a local, non-authoritative record of which agent
// binaries have been pushed to which device, backing the Agent Deployer's
// Install short-circuit. The device's /data/local/tmp is still the
// source of truth: a ledger hit only skips the push+chmod steps, it never
// skips the on-device check_file confirmation.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS installed_agents (
	device_serial TEXT NOT NULL,
	kind          TEXT NOT NULL,
	abi           TEXT NOT NULL,
	sdk           INTEGER NOT NULL,
	host_path     TEXT NOT NULL,
	device_path   TEXT NOT NULL,
	checksum      TEXT NOT NULL,
	installed_at  TEXT NOT NULL,
	PRIMARY KEY (device_serial, kind)
);
`

// Ledger is a handle on the sqlite-backed installation record.
type Ledger struct {
	db *sql.DB
}

// Open creates (if needed) and opens the ledger database at path, enabling
// WAL mode the way the teacher's sandbox registry does.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: create schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the underlying database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Entry is one row of the installation ledger.
type Entry struct {
	DeviceSerial string
	Kind         string
	ABI          string
	SDK          int
	HostPath     string
	DevicePath   string
	Checksum     string
	InstalledAt  time.Time
}

// Record upserts the ledger entry for (DeviceSerial, Kind).
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO installed_agents (device_serial, kind, abi, sdk, host_path, device_path, checksum, installed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_serial, kind) DO UPDATE SET
			abi=excluded.abi, sdk=excluded.sdk, host_path=excluded.host_path,
			device_path=excluded.device_path, checksum=excluded.checksum,
			installed_at=excluded.installed_at
	`, e.DeviceSerial, e.Kind, e.ABI, e.SDK, e.HostPath, e.DevicePath, e.Checksum, e.InstalledAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("ledger: record %s/%s: %w", e.DeviceSerial, e.Kind, err)
	}
	return nil
}

// Lookup returns the ledger entry for (deviceSerial, kind), or ok=false if
// none exists.
func (l *Ledger) Lookup(ctx context.Context, deviceSerial, kind string) (entry Entry, ok bool, err error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT device_serial, kind, abi, sdk, host_path, device_path, checksum, installed_at
		FROM installed_agents WHERE device_serial = ? AND kind = ?
	`, deviceSerial, kind)
	var installedAt string
	err = row.Scan(&entry.DeviceSerial, &entry.Kind, &entry.ABI, &entry.SDK, &entry.HostPath, &entry.DevicePath, &entry.Checksum, &installedAt)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("ledger: lookup %s/%s: %w", deviceSerial, kind, err)
	}
	entry.InstalledAt, _ = time.Parse(time.RFC3339, installedAt)
	return entry, true, nil
}

// Forget removes the ledger entry for (deviceSerial, kind), used when a
// device is known to have rebooted (agent binaries don't survive reboot).
func (l *Ledger) Forget(ctx context.Context, deviceSerial, kind string) error {
	_, err := l.db.ExecContext(ctx, `DELETE FROM installed_agents WHERE device_serial = ? AND kind = ?`, deviceSerial, kind)
	if err != nil {
		return fmt.Errorf("ledger: forget %s/%s: %w", deviceSerial, kind, err)
	}
	return nil
}
