/*
Package store provides in-memory implementations of the engine's
collaborator contracts.

PURPOSE:
  Backs tests and development runs without a database. Mirrors the
  behavior of store/sqlite: copy-on-read, deterministic listing order,
  ErrNotFound on missing records.

CONCURRENCY:
  A single RWMutex guards all maps. Good enough for tests; the SQLite
  store is the production path.

SEE ALSO:
  - engine/stores.go: Interface definitions
  - store/sqlite: Production implementation
*/
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/warp/leave-engine/engine"
)

// Memory implements every engine store interface in memory.
type Memory struct {
	mu           sync.RWMutex
	holidays     map[engine.HolidayID]engine.Holiday
	employees    map[engine.EmployeeID]engine.Employee
	leaves       map[engine.LeaveID]engine.Leave
	permissions  map[engine.PermissionID]engine.Permission
	balances     map[balanceKey]engine.LeaveBalance
	certificates map[engine.LeaveID]string
}

type balanceKey struct {
	EmployeeID engine.EmployeeID
	Year       int
}

func NewMemory() *Memory {
	return &Memory{
		holidays:     make(map[engine.HolidayID]engine.Holiday),
		employees:    make(map[engine.EmployeeID]engine.Employee),
		leaves:       make(map[engine.LeaveID]engine.Leave),
		permissions:  make(map[engine.PermissionID]engine.Permission),
		balances:     make(map[balanceKey]engine.LeaveBalance),
		certificates: make(map[engine.LeaveID]string),
	}
}

// Interface checks
var (
	_ engine.HolidaySource     = (*Memory)(nil)
	_ engine.EmployeeDirectory = (*Memory)(nil)
	_ engine.LeaveStore        = (*Memory)(nil)
	_ engine.PermissionStore   = (*Memory)(nil)
	_ engine.BalanceStore      = (*Memory)(nil)
	_ engine.CertificateStore  = (*Memory)(nil)
)

// =============================================================================
// HOLIDAYS
// =============================================================================

func (m *Memory) ListHolidays(_ context.Context, fromYear, toYear int) ([]engine.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []engine.Holiday
	for _, h := range m.holidays {
		if h.Recurring || (h.Date.Year() >= fromYear && h.Date.Year() <= toYear) {
			result = append(result, h)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *Memory) SaveHoliday(_ context.Context, h engine.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays[h.ID] = h
	return nil
}

func (m *Memory) DeleteHoliday(_ context.Context, id engine.HolidayID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.holidays[id]; !ok {
		return engine.ErrNotFound
	}
	delete(m.holidays, id)
	return nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (m *Memory) GetEmployee(_ context.Context, id engine.EmployeeID) (*engine.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.employees[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	m.fillBalanceCacheLocked(&e)
	return &e, nil
}

func (m *Memory) ListEmployees(_ context.Context, filter engine.EmployeeFilter) ([]engine.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []engine.Employee
	for _, e := range m.employees {
		if filter.Name != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(filter.Name)) {
			continue
		}
		m.fillBalanceCacheLocked(&e)
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// fillBalanceCacheLocked populates the denormalized current-year balance
// cache from the balance rows.
func (m *Memory) fillBalanceCacheLocked(e *engine.Employee) {
	if b, ok := m.balances[balanceKey{EmployeeID: e.ID, Year: engine.Today().Year()}]; ok {
		e.PaidLeaveBalance = b.RemainingPaid
		e.SickLeaveBalance = b.RemainingSick
	}
}

func (m *Memory) SaveEmployee(_ context.Context, e engine.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = e
	return nil
}

// =============================================================================
// LEAVES
// =============================================================================

func (m *Memory) GetLeave(_ context.Context, id engine.LeaveID) (*engine.Leave, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.leaves[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	out := copyLeave(l)
	return &out, nil
}

func (m *Memory) ListLeaves(_ context.Context, filter engine.LeaveFilter) ([]engine.Leave, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []engine.Leave
	for _, l := range m.leaves {
		if filter.EmployeeID != "" && l.EmployeeID != filter.EmployeeID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, l.Status) {
			continue
		}
		if len(filter.Types) > 0 && !containsType(filter.Types, l.Type) {
			continue
		}
		if filter.Year != 0 && l.StartDate.Year() != filter.Year {
			continue
		}
		result = append(result, copyLeave(l))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].StartDate.Before(result[j].StartDate)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *Memory) UpsertLeave(_ context.Context, leave *engine.Leave) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaves[leave.ID] = copyLeave(*leave)
	return nil
}

func (m *Memory) DeleteLeave(_ context.Context, id engine.LeaveID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leaves[id]; !ok {
		return engine.ErrNotFound
	}
	delete(m.leaves, id)
	delete(m.certificates, id)
	return nil
}

func copyLeave(l engine.Leave) engine.Leave {
	l.HalfDayOptions = append([]engine.HalfDayOption(nil), l.HalfDayOptions...)
	if l.DecidedAt != nil {
		at := *l.DecidedAt
		l.DecidedAt = &at
	}
	return l
}

func containsStatus(haystack []engine.RequestStatus, s engine.RequestStatus) bool {
	for _, v := range haystack {
		if v == s {
			return true
		}
	}
	return false
}

func containsType(haystack []engine.LeaveType, t engine.LeaveType) bool {
	for _, v := range haystack {
		if v == t {
			return true
		}
	}
	return false
}

// =============================================================================
// PERMISSIONS
// =============================================================================

func (m *Memory) GetPermission(_ context.Context, id engine.PermissionID) (*engine.Permission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.permissions[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	out := copyPermission(p)
	return &out, nil
}

func (m *Memory) ListPermissions(_ context.Context, filter engine.PermissionFilter) ([]engine.Permission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []engine.Permission
	for _, p := range m.permissions {
		if filter.EmployeeID != "" && p.EmployeeID != filter.EmployeeID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, p.Status) {
			continue
		}
		if filter.Year != 0 && p.Date.Year() != filter.Year {
			continue
		}
		result = append(result, copyPermission(p))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *Memory) UpsertPermission(_ context.Context, p *engine.Permission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.permissions[p.ID] = copyPermission(*p)
	return nil
}

func (m *Memory) DeletePermission(_ context.Context, id engine.PermissionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.permissions[id]; !ok {
		return engine.ErrNotFound
	}
	delete(m.permissions, id)
	return nil
}

func copyPermission(p engine.Permission) engine.Permission {
	p.ReplacementSlots = append([]engine.ReplacementSlot(nil), p.ReplacementSlots...)
	if p.DecidedAt != nil {
		at := *p.DecidedAt
		p.DecidedAt = &at
	}
	return p
}

// =============================================================================
// BALANCES
// =============================================================================

func (m *Memory) GetBalance(_ context.Context, employeeID engine.EmployeeID, year int) (*engine.LeaveBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.balances[balanceKey{EmployeeID: employeeID, Year: year}]
	if !ok {
		return nil, engine.ErrNotFound
	}
	return &b, nil
}

func (m *Memory) ListBalances(_ context.Context, employeeID engine.EmployeeID, year int) ([]engine.LeaveBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []engine.LeaveBalance
	for k, b := range m.balances {
		if employeeID != "" && k.EmployeeID != employeeID {
			continue
		}
		if year != 0 && k.Year != year {
			continue
		}
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].EmployeeID != result[j].EmployeeID {
			return result[i].EmployeeID < result[j].EmployeeID
		}
		return result[i].Year < result[j].Year
	})
	return result, nil
}

func (m *Memory) UpsertBalance(_ context.Context, b *engine.LeaveBalance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[balanceKey{EmployeeID: b.EmployeeID, Year: b.Year}] = *b
	return nil
}

// =============================================================================
// CERTIFICATES
// =============================================================================

func (m *Memory) SaveRef(_ context.Context, leaveID engine.LeaveID, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.certificates[leaveID] = ref
	return nil
}

func (m *Memory) Ref(_ context.Context, leaveID engine.LeaveID) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ref, ok := m.certificates[leaveID]
	if !ok {
		return "", engine.ErrNotFound
	}
	return ref, nil
}
