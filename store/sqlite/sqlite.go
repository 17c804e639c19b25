/*
Package sqlite provides a SQLite-backed implementation of the engine's
collaborator contracts.

PURPOSE:
  Implements HolidaySource, EmployeeDirectory, LeaveStore, PermissionStore,
  BalanceStore, and CertificateStore using SQLite. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  holidays:          Administrator-managed non-working days
  employees:         Identity records
  leaves:            Leave requests with derived total_units
  half_day_options:  One row per workday in a leave's range (owned by leave)
  permissions:       Short absences with make-up time debt
  replacement_slots: Make-up time blocks (owned by permission)
  leave_balances:    One row per employee per year
  certificates:      Opaque blob references keyed by leave id

OWNERSHIP:
  half_day_options and replacement_slots live and die with their parent
  request: writes replace the child rows inside the same database
  transaction, and ON DELETE CASCADE removes them with the parent.

CONCURRENCY:
  Uses sync.RWMutex for in-process serialization plus WAL mode for better
  reader/writer concurrency. Per-employee-year write serialization beyond
  that is the caller's responsibility, as the engine documents.

USAGE:
  st, err := sqlite.New("./data/leave.db")
  if err != nil { log.Fatal(err) }
  defer st.Close()

SEE ALSO:
  - engine/stores.go: Interface definitions
  - store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/engine"
)

// Store implements all engine store interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Interface checks
var (
	_ engine.HolidaySource     = (*Store)(nil)
	_ engine.EmployeeDirectory = (*Store)(nil)
	_ engine.LeaveStore        = (*Store)(nil)
	_ engine.PermissionStore   = (*Store)(nil)
	_ engine.BalanceStore      = (*Store)(nil)
	_ engine.CertificateStore  = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL"
	if dbPath == ":memory:" {
		// Plain ":memory:" gives every pooled connection its own empty
		// database; shared cache keeps one database visible to all of them.
		dsn = "file::memory:?cache=shared&_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		date TEXT NOT NULL,
		recurring BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_date ON holidays(date);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_unique ON holidays(date, name);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		hire_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS leaves (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		reason TEXT,
		certificate_ref TEXT,
		total_units TEXT NOT NULL,
		decided_by TEXT,
		decided_at TEXT,
		rejection_reason TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leaves_employee ON leaves(employee_id);
	CREATE INDEX IF NOT EXISTS idx_leaves_status ON leaves(status);
	CREATE INDEX IF NOT EXISTS idx_leaves_employee_status_start
		ON leaves(employee_id, status, start_date);

	CREATE TABLE IF NOT EXISTS half_day_options (
		leave_id TEXT NOT NULL REFERENCES leaves(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		unit TEXT NOT NULL,
		PRIMARY KEY (leave_id, date)
	);

	CREATE TABLE IF NOT EXISTS permissions (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		start_minute INTEGER NOT NULL,
		end_minute INTEGER NOT NULL,
		duration_minutes INTEGER NOT NULL,
		reason TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		decided_by TEXT,
		decided_at TEXT,
		rejection_reason TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_permissions_employee ON permissions(employee_id);
	CREATE INDEX IF NOT EXISTS idx_permissions_status ON permissions(status);

	CREATE TABLE IF NOT EXISTS replacement_slots (
		id TEXT PRIMARY KEY,
		permission_id TEXT NOT NULL REFERENCES permissions(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		start_minute INTEGER NOT NULL,
		end_minute INTEGER NOT NULL,
		duration_minutes INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_slots_permission ON replacement_slots(permission_id);

	CREATE TABLE IF NOT EXISTS leave_balances (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		initial_paid TEXT NOT NULL,
		initial_sick TEXT NOT NULL,
		remaining_paid TEXT NOT NULL,
		remaining_sick TEXT NOT NULL,
		carried_in TEXT NOT NULL DEFAULT '0',
		carried_out TEXT NOT NULL DEFAULT '0',
		UNIQUE(employee_id, year)
	);

	CREATE INDEX IF NOT EXISTS idx_balances_year ON leave_balances(year);

	CREATE TABLE IF NOT EXISTS certificates (
		leave_id TEXT PRIMARY KEY,
		ref TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// HOLIDAYS (engine.HolidaySource + admin writes)
// =============================================================================

func (s *Store) ListHolidays(ctx context.Context, fromYear, toYear int) ([]engine.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, name, date, recurring FROM holidays
		WHERE recurring OR (date >= ? AND date <= ?)
		ORDER BY date
	`
	from := fmt.Sprintf("%04d-01-01", fromYear)
	to := fmt.Sprintf("%04d-12-31", toYear)

	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []engine.Holiday
	for rows.Next() {
		var h engine.Holiday
		var dateStr string
		if err := rows.Scan(&h.ID, &h.Name, &dateStr, &h.Recurring); err != nil {
			return nil, err
		}
		if h.Date, err = engine.ParseDate(dateStr); err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// SaveHoliday inserts or replaces a holiday (admin operation).
func (s *Store) SaveHoliday(ctx context.Context, h engine.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO holidays (id, name, date, recurring, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		h.ID, h.Name, h.Date.String(), h.Recurring, now())
	return err
}

// DeleteHoliday removes a holiday (admin operation).
func (s *Store) DeleteHoliday(ctx context.Context, id engine.HolidayID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrNotFound
	}
	return nil
}

// =============================================================================
// EMPLOYEES (engine.EmployeeDirectory + admin writes)
// =============================================================================

func (s *Store) GetEmployee(ctx context.Context, id engine.EmployeeID) (*engine.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(email, ''), hire_date, created_at
		FROM employees WHERE id = ?`, id)

	e, err := scanEmployee(row)
	if err != nil {
		return nil, err
	}
	if err := s.fillBalanceCache(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) ListEmployees(ctx context.Context, filter engine.EmployeeFilter) ([]engine.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, name, COALESCE(email, ''), hire_date, created_at FROM employees`
	var args []any
	if filter.Name != "" {
		query += ` WHERE name LIKE ?`
		args = append(args, "%"+filter.Name+"%")
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []engine.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		if err := s.fillBalanceCache(ctx, e); err != nil {
			return nil, err
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*engine.Employee, error) {
	var e engine.Employee
	var hireDate, createdAt string
	if err := row.Scan(&e.ID, &e.Name, &e.Email, &hireDate, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, engine.ErrNotFound
		}
		return nil, err
	}
	var err error
	if e.HireDate, err = engine.ParseDate(hireDate); err != nil {
		return nil, err
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &e, nil
}

// fillBalanceCache populates the denormalized current-year balance columns
// on the employee from the leave_balances row.
func (s *Store) fillBalanceCache(ctx context.Context, e *engine.Employee) error {
	row := s.db.QueryRowContext(ctx, `
		SELECT remaining_paid, remaining_sick FROM leave_balances
		WHERE employee_id = ? AND year = ?`,
		e.ID, time.Now().UTC().Year())

	var paid, sick string
	if err := row.Scan(&paid, &sick); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return err
	}
	e.PaidLeaveBalance = mustDecimal(paid)
	e.SickLeaveBalance = mustDecimal(sick)
	return nil
}

// SaveEmployee inserts or replaces an employee record (admin operation).
func (s *Store) SaveEmployee(ctx context.Context, e engine.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO employees (id, name, email, hire_date, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Name, nullString(e.Email), e.HireDate.String(), now())
	return err
}

// =============================================================================
// LEAVES (engine.LeaveStore)
// =============================================================================

func (s *Store) GetLeave(ctx context.Context, id engine.LeaveID) (*engine.Leave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, leaveSelect+` WHERE id = ?`, id)
	leave, err := scanLeave(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadHalfDayOptions(ctx, leave); err != nil {
		return nil, err
	}
	return leave, nil
}

func (s *Store) ListLeaves(ctx context.Context, filter engine.LeaveFilter) ([]engine.Leave, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := leaveSelect + ` WHERE 1=1`
	var args []any
	if filter.EmployeeID != "" {
		query += ` AND employee_id = ?`
		args = append(args, filter.EmployeeID)
	}
	if len(filter.Statuses) > 0 {
		query += ` AND status IN (?` + strings.Repeat(",?", len(filter.Statuses)-1) + `)`
		for _, st := range filter.Statuses {
			args = append(args, st)
		}
	}
	if len(filter.Types) > 0 {
		query += ` AND leave_type IN (?` + strings.Repeat(",?", len(filter.Types)-1) + `)`
		for _, t := range filter.Types {
			args = append(args, t)
		}
	}
	if filter.Year != 0 {
		query += ` AND start_date >= ? AND start_date <= ?`
		args = append(args, fmt.Sprintf("%04d-01-01", filter.Year), fmt.Sprintf("%04d-12-31", filter.Year))
	}
	query += ` ORDER BY start_date, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leaves []engine.Leave
	for rows.Next() {
		leave, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, *leave)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range leaves {
		if err := s.loadHalfDayOptions(ctx, &leaves[i]); err != nil {
			return nil, err
		}
	}
	return leaves, nil
}

const leaveSelect = `
	SELECT id, employee_id, leave_type, start_date, end_date, status,
	       COALESCE(reason, ''), COALESCE(certificate_ref, ''), total_units,
	       COALESCE(decided_by, ''), decided_at, COALESCE(rejection_reason, ''),
	       created_at, updated_at
	FROM leaves`

func scanLeave(row rowScanner) (*engine.Leave, error) {
	var l engine.Leave
	var start, end, units, createdAt, updatedAt string
	var decidedAt sql.NullString
	err := row.Scan(&l.ID, &l.EmployeeID, &l.Type, &start, &end, &l.Status,
		&l.Reason, &l.CertificateRef, &units,
		&l.DecidedBy, &decidedAt, &l.RejectionReason,
		&createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, engine.ErrNotFound
		}
		return nil, err
	}
	if l.StartDate, err = engine.ParseDate(start); err != nil {
		return nil, err
	}
	if l.EndDate, err = engine.ParseDate(end); err != nil {
		return nil, err
	}
	l.TotalUnits = mustDecimal(units)
	if decidedAt.Valid {
		if at, err := time.Parse(time.RFC3339, decidedAt.String); err == nil {
			l.DecidedAt = &at
		}
	}
	l.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	l.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &l, nil
}

func (s *Store) loadHalfDayOptions(ctx context.Context, leave *engine.Leave) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, unit FROM half_day_options
		WHERE leave_id = ? ORDER BY date`, leave.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	leave.HalfDayOptions = nil
	for rows.Next() {
		var o engine.HalfDayOption
		var dateStr string
		if err := rows.Scan(&dateStr, &o.Unit); err != nil {
			return err
		}
		if o.Date, err = engine.ParseDate(dateStr); err != nil {
			return err
		}
		leave.HalfDayOptions = append(leave.HalfDayOptions, o)
	}
	return rows.Err()
}

// UpsertLeave writes the leave and replaces its half-day option rows in one
// database transaction.
func (s *Store) UpsertLeave(ctx context.Context, leave *engine.Leave) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO leaves
			(id, employee_id, leave_type, start_date, end_date, status, reason,
			 certificate_ref, total_units, decided_by, decided_at, rejection_reason,
			 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			leave_type = excluded.leave_type,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			status = excluded.status,
			reason = excluded.reason,
			certificate_ref = excluded.certificate_ref,
			total_units = excluded.total_units,
			decided_by = excluded.decided_by,
			decided_at = excluded.decided_at,
			rejection_reason = excluded.rejection_reason,
			updated_at = excluded.updated_at`,
		leave.ID, leave.EmployeeID, leave.Type,
		leave.StartDate.String(), leave.EndDate.String(), leave.Status,
		nullString(leave.Reason), nullString(leave.CertificateRef),
		leave.TotalUnits.String(),
		nullString(leave.DecidedBy), nullTime(leave.DecidedAt),
		nullString(leave.RejectionReason),
		formatTime(leave.CreatedAt), formatTime(leave.UpdatedAt))
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM half_day_options WHERE leave_id = ?`, leave.ID); err != nil {
		return err
	}
	for _, o := range leave.HalfDayOptions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO half_day_options (leave_id, date, unit) VALUES (?, ?, ?)`,
			leave.ID, o.Date.String(), o.Unit); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) DeleteLeave(ctx context.Context, id engine.LeaveID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM leaves WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrNotFound
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM certificates WHERE leave_id = ?`, id)
	return err
}

// =============================================================================
// PERMISSIONS (engine.PermissionStore)
// =============================================================================

func (s *Store) GetPermission(ctx context.Context, id engine.PermissionID) (*engine.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, permissionSelect+` WHERE id = ?`, id)
	p, err := scanPermission(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadSlots(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) ListPermissions(ctx context.Context, filter engine.PermissionFilter) ([]engine.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := permissionSelect + ` WHERE 1=1`
	var args []any
	if filter.EmployeeID != "" {
		query += ` AND employee_id = ?`
		args = append(args, filter.EmployeeID)
	}
	if len(filter.Statuses) > 0 {
		query += ` AND status IN (?` + strings.Repeat(",?", len(filter.Statuses)-1) + `)`
		for _, st := range filter.Statuses {
			args = append(args, st)
		}
	}
	if filter.Year != 0 {
		query += ` AND date >= ? AND date <= ?`
		args = append(args, fmt.Sprintf("%04d-01-01", filter.Year), fmt.Sprintf("%04d-12-31", filter.Year))
	}
	query += ` ORDER BY date, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permissions []engine.Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		permissions = append(permissions, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range permissions {
		if err := s.loadSlots(ctx, &permissions[i]); err != nil {
			return nil, err
		}
	}
	return permissions, nil
}

const permissionSelect = `
	SELECT id, employee_id, date, start_minute, end_minute, duration_minutes,
	       COALESCE(reason, ''), status,
	       COALESCE(decided_by, ''), decided_at, COALESCE(rejection_reason, ''),
	       created_at, updated_at
	FROM permissions`

func scanPermission(row rowScanner) (*engine.Permission, error) {
	var p engine.Permission
	var dateStr, createdAt, updatedAt string
	var decidedAt sql.NullString
	err := row.Scan(&p.ID, &p.EmployeeID, &dateStr, &p.Start, &p.End, &p.DurationMinutes,
		&p.Reason, &p.Status,
		&p.DecidedBy, &decidedAt, &p.RejectionReason,
		&createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, engine.ErrNotFound
		}
		return nil, err
	}
	if p.Date, err = engine.ParseDate(dateStr); err != nil {
		return nil, err
	}
	if decidedAt.Valid {
		if at, err := time.Parse(time.RFC3339, decidedAt.String); err == nil {
			p.DecidedAt = &at
		}
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

func (s *Store) loadSlots(ctx context.Context, p *engine.Permission) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, start_minute, end_minute, duration_minutes
		FROM replacement_slots WHERE permission_id = ? ORDER BY date, start_minute`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	p.ReplacementSlots = nil
	for rows.Next() {
		var slot engine.ReplacementSlot
		var dateStr string
		if err := rows.Scan(&slot.ID, &dateStr, &slot.Start, &slot.End, &slot.DurationMinutes); err != nil {
			return err
		}
		if slot.Date, err = engine.ParseDate(dateStr); err != nil {
			return err
		}
		p.ReplacementSlots = append(p.ReplacementSlots, slot)
	}
	return rows.Err()
}

// UpsertPermission writes the permission and replaces its replacement slot
// rows in one database transaction.
func (s *Store) UpsertPermission(ctx context.Context, p *engine.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO permissions
			(id, employee_id, date, start_minute, end_minute, duration_minutes,
			 reason, status, decided_by, decided_at, rejection_reason,
			 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			start_minute = excluded.start_minute,
			end_minute = excluded.end_minute,
			duration_minutes = excluded.duration_minutes,
			reason = excluded.reason,
			status = excluded.status,
			decided_by = excluded.decided_by,
			decided_at = excluded.decided_at,
			rejection_reason = excluded.rejection_reason,
			updated_at = excluded.updated_at`,
		p.ID, p.EmployeeID, p.Date.String(), p.Start, p.End, p.DurationMinutes,
		nullString(p.Reason), p.Status,
		nullString(p.DecidedBy), nullTime(p.DecidedAt), nullString(p.RejectionReason),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM replacement_slots WHERE permission_id = ?`, p.ID); err != nil {
		return err
	}
	for _, slot := range p.ReplacementSlots {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO replacement_slots (id, permission_id, date, start_minute, end_minute, duration_minutes)
			VALUES (?, ?, ?, ?, ?, ?)`,
			slot.ID, p.ID, slot.Date.String(), slot.Start, slot.End, slot.DurationMinutes); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) DeletePermission(ctx context.Context, id engine.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM permissions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrNotFound
	}
	return nil
}

// =============================================================================
// BALANCES (engine.BalanceStore)
// =============================================================================

func (s *Store) GetBalance(ctx context.Context, employeeID engine.EmployeeID, year int) (*engine.LeaveBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, balanceSelect+` WHERE employee_id = ? AND year = ?`, employeeID, year)
	return scanBalance(row)
}

func (s *Store) ListBalances(ctx context.Context, employeeID engine.EmployeeID, year int) ([]engine.LeaveBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := balanceSelect + ` WHERE 1=1`
	var args []any
	if employeeID != "" {
		query += ` AND employee_id = ?`
		args = append(args, employeeID)
	}
	if year != 0 {
		query += ` AND year = ?`
		args = append(args, year)
	}
	query += ` ORDER BY employee_id, year`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []engine.LeaveBalance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		balances = append(balances, *b)
	}
	return balances, rows.Err()
}

const balanceSelect = `
	SELECT id, employee_id, year, initial_paid, initial_sick,
	       remaining_paid, remaining_sick, carried_in, carried_out
	FROM leave_balances`

func scanBalance(row rowScanner) (*engine.LeaveBalance, error) {
	var b engine.LeaveBalance
	var initPaid, initSick, remPaid, remSick, carriedIn, carriedOut string
	err := row.Scan(&b.ID, &b.EmployeeID, &b.Year, &initPaid, &initSick,
		&remPaid, &remSick, &carriedIn, &carriedOut)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, engine.ErrNotFound
		}
		return nil, err
	}
	b.InitialPaid = mustDecimal(initPaid)
	b.InitialSick = mustDecimal(initSick)
	b.RemainingPaid = mustDecimal(remPaid)
	b.RemainingSick = mustDecimal(remSick)
	b.CarriedIn = mustDecimal(carriedIn)
	b.CarriedOut = mustDecimal(carriedOut)
	return &b, nil
}

func (s *Store) UpsertBalance(ctx context.Context, b *engine.LeaveBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_balances
			(id, employee_id, year, initial_paid, initial_sick,
			 remaining_paid, remaining_sick, carried_in, carried_out)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, year) DO UPDATE SET
			initial_paid = excluded.initial_paid,
			initial_sick = excluded.initial_sick,
			remaining_paid = excluded.remaining_paid,
			remaining_sick = excluded.remaining_sick,
			carried_in = excluded.carried_in,
			carried_out = excluded.carried_out`,
		b.ID, b.EmployeeID, b.Year,
		b.InitialPaid.String(), b.InitialSick.String(),
		b.RemainingPaid.String(), b.RemainingSick.String(),
		b.CarriedIn.String(), b.CarriedOut.String())
	return err
}

// =============================================================================
// CERTIFICATES (engine.CertificateStore)
// =============================================================================

func (s *Store) SaveRef(ctx context.Context, leaveID engine.LeaveID, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO certificates (leave_id, ref, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(leave_id) DO UPDATE SET ref = excluded.ref`,
		leaveID, ref, now())
	return err
}

func (s *Store) Ref(ctx context.Context, leaveID engine.LeaveID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ref string
	err := s.db.QueryRowContext(ctx, `SELECT ref FROM certificates WHERE leave_id = ?`, leaveID).Scan(&ref)
	if err == sql.ErrNoRows {
		return "", engine.ErrNotFound
	}
	return ref, err
}

// =============================================================================
// HELPERS
// =============================================================================

func now() string { return time.Now().UTC().Format(time.RFC3339) }

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.UTC().Format(time.RFC3339)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
