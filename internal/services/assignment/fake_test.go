package assignment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/magabrotheeeer/catalog-entitlements/internal/hierarchy"
	"github.com/magabrotheeeer/catalog-entitlements/internal/models"
	"github.com/magabrotheeeer/catalog-entitlements/internal/storage"
)

var errUniquePrimary = errors.New("duplicate key value violates unique constraint \"catalog_assignments_one_primary\"")

// memStore хранилище в памяти с теми же ограничениями, что и схема БД.
type memStore struct {
	mu        sync.Mutex
	seq       int64
	users     map[string]*models.User
	userOrder []string
	catalogs  map[string]*models.Catalog
	contracts map[string]*models.PriceContract
	catRows   map[string]map[string]*models.CatalogAssignment
	conRows   map[string]map[string]bool
	writes    int
	failLock  map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[string]*models.User{},
		catalogs:  map[string]*models.Catalog{},
		contracts: map[string]*models.PriceContract{},
		catRows:   map[string]map[string]*models.CatalogAssignment{},
		conRows:   map[string]map[string]bool{},
		failLock:  map[string]error{},
	}
}

func (m *memStore) addUser(u models.User) {
	m.users[u.ID] = &u
	m.userOrder = append(m.userOrder, u.ID)
}

func (m *memStore) addCatalog(c models.Catalog) {
	m.catalogs[c.ID] = &c
}

func (m *memStore) addContract(id string) {
	m.contracts[id] = &models.PriceContract{ID: id, Name: "contract " + id}
}

// seed создаёт связь напрямую, минуя счётчик записей.
func (m *memStore) seed(userID, catalogID string, primary bool) {
	m.seq++
	if m.catRows[userID] == nil {
		m.catRows[userID] = map[string]*models.CatalogAssignment{}
	}
	m.catRows[userID][catalogID] = &models.CatalogAssignment{
		CatalogID: catalogID, UserID: userID, IsPrimary: primary,
		CreatedAt: time.Unix(m.seq, 0), UpdatedAt: time.Unix(m.seq, 0),
	}
	if primary {
		id := catalogID
		m.users[userID].PrimaryCatalogID = &id
	}
}

func (m *memStore) primaries(userID string) []string {
	var out []string
	for id, a := range m.catRows[userID] {
		if a.IsPrimary {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (m *memStore) assigned(userID string) []string {
	var out []string
	for id := range m.catRows[userID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (m *memStore) UsersByIDs(_ context.Context, ids []string) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) PaidUserIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, id := range m.userOrder {
		if m.users[id].Role != models.RoleFree {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *memStore) ListUsers(_ context.Context, scope hierarchy.Scope, filter models.UsersFilter) ([]*models.UserAssignments, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lookup := func(id string) (*models.User, bool) {
		u, ok := m.users[id]
		return u, ok
	}
	var all []*models.UserAssignments
	for _, id := range m.userOrder {
		if scope.Allows(m.users[id], lookup) {
			all = append(all, &models.UserAssignments{User: *m.users[id]})
		}
	}
	total := len(all)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (m *memStore) CatalogsByIDs(_ context.Context, ids []string) ([]*models.Catalog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Catalog
	for _, id := range ids {
		if c, ok := m.catalogs[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) ContractsByIDs(_ context.Context, ids []string) ([]*models.PriceContract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.PriceContract
	for _, id := range ids {
		if c, ok := m.contracts[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) AssignedCatalogs(_ context.Context, userID string) ([]models.VisibleCatalog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.VisibleCatalog
	for id, a := range m.catRows[userID] {
		c := m.catalogs[id]
		if c == nil || !c.IsActive {
			continue
		}
		out = append(out, models.VisibleCatalog{ID: c.ID, Name: c.Name, IsMaster: c.IsMaster, IsPrimary: a.IsPrimary})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPrimary != out[j].IsPrimary {
			return out[i].IsPrimary
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *memStore) InTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	if err := fn(&memTx{m: m}); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type memSnapshot struct {
	users   map[string]models.User
	catRows map[string]map[string]models.CatalogAssignment
	conRows map[string]map[string]bool
	writes  int
}

func (m *memStore) snapshot() memSnapshot {
	s := memSnapshot{
		users:   map[string]models.User{},
		catRows: map[string]map[string]models.CatalogAssignment{},
		conRows: map[string]map[string]bool{},
		writes:  m.writes,
	}
	for id, u := range m.users {
		s.users[id] = *u
	}
	for uid, rows := range m.catRows {
		s.catRows[uid] = map[string]models.CatalogAssignment{}
		for cid, a := range rows {
			s.catRows[uid][cid] = *a
		}
	}
	for uid, rows := range m.conRows {
		s.conRows[uid] = map[string]bool{}
		for cid := range rows {
			s.conRows[uid][cid] = true
		}
	}
	return s
}

func (m *memStore) restore(s memSnapshot) {
	for id, u := range s.users {
		cp := u
		m.users[id] = &cp
	}
	m.catRows = map[string]map[string]*models.CatalogAssignment{}
	for uid, rows := range s.catRows {
		m.catRows[uid] = map[string]*models.CatalogAssignment{}
		for cid, a := range rows {
			cp := a
			m.catRows[uid][cid] = &cp
		}
	}
	m.conRows = s.conRows
	m.writes = s.writes
}

type memTx struct {
	m *memStore
}

func (t *memTx) LockUser(_ context.Context, userID string) (*models.User, error) {
	if err := t.m.failLock[userID]; err != nil {
		return nil, err
	}
	u, ok := t.m.users[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (t *memTx) CatalogAssignments(_ context.Context, userID string) ([]models.CatalogAssignment, error) {
	var out []models.CatalogAssignment
	for _, a := range t.m.catRows[userID] {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (t *memTx) UpsertCatalogAssignment(_ context.Context, a models.CatalogAssignment) error {
	rows := t.m.catRows[a.UserID]
	if rows == nil {
		rows = map[string]*models.CatalogAssignment{}
		t.m.catRows[a.UserID] = rows
	}
	if a.IsPrimary {
		for id, row := range rows {
			if id != a.CatalogID && row.IsPrimary {
				return errUniquePrimary
			}
		}
	}
	t.m.writes++
	t.m.seq++
	if row, ok := rows[a.CatalogID]; ok {
		row.IsPrimary = a.IsPrimary
		if a.AssignedByID != nil {
			row.AssignedByID = a.AssignedByID
		}
		row.UpdatedAt = time.Unix(t.m.seq, 0)
		return nil
	}
	a.CreatedAt = time.Unix(t.m.seq, 0)
	a.UpdatedAt = a.CreatedAt
	rows[a.CatalogID] = &a
	return nil
}

func (t *memTx) DemotePrimaries(_ context.Context, userID, keepCatalogID string) (int64, error) {
	t.m.writes++
	var n int64
	for id, row := range t.m.catRows[userID] {
		if id != keepCatalogID && row.IsPrimary {
			row.IsPrimary = false
			n++
		}
	}
	return n, nil
}

func (t *memTx) SetPrimaryCatalog(_ context.Context, userID string, catalogID *string) error {
	t.m.writes++
	u, ok := t.m.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	if catalogID == nil {
		u.PrimaryCatalogID = nil
		return nil
	}
	id := *catalogID
	u.PrimaryCatalogID = &id
	return nil
}

func (t *memTx) InsertContractAssignment(_ context.Context, a models.ContractAssignment) (bool, error) {
	rows := t.m.conRows[a.UserID]
	if rows == nil {
		rows = map[string]bool{}
		t.m.conRows[a.UserID] = rows
	}
	if rows[a.ContractID] {
		return false, nil
	}
	t.m.writes++
	rows[a.ContractID] = true
	return true, nil
}

type fakeCatalogs struct {
	master  *models.Catalog
	starter *models.Catalog
	err     error
}

func (f *fakeCatalogs) MasterCatalog(context.Context) (*models.Catalog, error) {
	return f.master, f.err
}

func (f *fakeCatalogs) DefaultCatalog(context.Context) (*models.Catalog, error) {
	return f.starter, f.err
}

// memCache кеш в памяти, запоминающий инвалидации.
type memCache struct {
	data        map[string][]byte
	invalidated []string
	gets        int
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) Get(key string, result any) (bool, error) {
	c.gets++
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, result)
}

func (c *memCache) Set(key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func (c *memCache) Invalidate(key string) error {
	c.invalidated = append(c.invalidated, key)
	delete(c.data, key)
	return nil
}

type recordingNotifier struct {
	events []models.AssignmentEvent
	err    error
}

func (n *recordingNotifier) Publish(routingKey string, message any) error {
	if routingKey != RoutingKey {
		return errors.New("unexpected routing key " + routingKey)
	}
	n.events = append(n.events, message.(models.AssignmentEvent))
	return n.err
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}
