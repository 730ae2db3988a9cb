// Package repotest provides in-memory repositories for tests.
package repotest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	appErrors "github.com/unclebandit/emailcraft-backend/internal/errors"
	"github.com/unclebandit/emailcraft-backend/internal/model"
	"github.com/unclebandit/emailcraft-backend/internal/repository"
)

// CampaignRepo keeps campaigns in memory. Listings are newest id first.
type CampaignRepo struct {
	mu        sync.Mutex
	Campaigns map[int]*model.Campaign
	Stats     map[int]*model.CampaignStats
	StatusErr error
	Refreshed []int
	nextID    int
}

func NewCampaignRepo(campaigns ...*model.Campaign) *CampaignRepo {
	m := &CampaignRepo{Campaigns: map[int]*model.Campaign{}, Stats: map[int]*model.CampaignStats{}, nextID: 1}
	for _, c := range campaigns {
		m.Campaigns[c.ID] = c
		if c.ID >= m.nextID {
			m.nextID = c.ID + 1
		}
	}
	return m
}

func (m *CampaignRepo) Create(ctx context.Context, c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.nextID
	m.nextID++
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.Campaigns[c.ID] = &cp
	return nil
}

func (m *CampaignRepo) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (m *CampaignRepo) Update(ctx context.Context, c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Campaigns[c.ID]; !ok {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	cp := *c
	m.Campaigns[c.ID] = &cp
	return nil
}

func (m *CampaignRepo) UpdateStatus(ctx context.Context, id int, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StatusErr != nil {
		return m.StatusErr
	}
	c, ok := m.Campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	c.Status = status
	return nil
}

func (m *CampaignRepo) Delete(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Campaigns[id]; !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	delete(m.Campaigns, id)
	delete(m.Stats, id)
	return nil
}

func (m *CampaignRepo) sorted() []*model.Campaign {
	all := make([]*model.Campaign, 0, len(m.Campaigns))
	for _, c := range m.Campaigns {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return all
}

func (m *CampaignRepo) ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.CampaignSummary, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var filtered []*model.CampaignSummary
	for _, c := range m.sorted() {
		if status != "" && c.Status != status {
			continue
		}
		filtered = append(filtered, &model.CampaignSummary{Campaign: *c, Stats: m.Stats[c.ID]})
	}
	total := len(filtered)
	if offset >= total {
		return []*model.CampaignSummary{}, total, nil
	}
	end := min(offset+limit, total)
	return filtered[offset:end], total, nil
}

func (m *CampaignRepo) ListScheduled(ctx context.Context) ([]*model.CampaignSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.CampaignSummary
	for _, c := range m.sorted() {
		if c.Status == model.CampaignStatusScheduled {
			out = append(out, &model.CampaignSummary{Campaign: *c})
		}
	}
	return out, nil
}

func (m *CampaignRepo) ListDue(ctx context.Context, now time.Time) ([]*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Campaign
	for _, c := range m.sorted() {
		if c.Status == model.CampaignStatusScheduled && c.ScheduledFor != nil && !c.ScheduledFor.After(now) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *CampaignRepo) CountByStatus(ctx context.Context, status string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Campaigns {
		if c.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *CampaignRepo) GetCampaignStats(ctx context.Context, campaignID int) (*model.CampaignStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Stats[campaignID], nil
}

func (m *CampaignRepo) RefreshStats(ctx context.Context, campaignID int) (*model.CampaignStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Refreshed = append(m.Refreshed, campaignID)
	s := &model.CampaignStats{CampaignID: campaignID}
	m.Stats[campaignID] = s
	return s, nil
}

func (m *CampaignRepo) AverageOpenRate(ctx context.Context) (float64, error) {
	return 12.5, nil
}

// ContactRepo keeps contacts in a slice, in insertion order.
type ContactRepo struct {
	Contacts []model.Contact
	Inserted []model.Contact
	ListErr  error
}

func (m *ContactRepo) Create(ctx context.Context, c *model.Contact) error {
	for _, existing := range m.Contacts {
		if existing.Email == c.Email {
			return appErrors.NewValidation("email already exists")
		}
	}
	c.ID = 1
	for _, existing := range m.Contacts {
		if existing.ID >= c.ID {
			c.ID = existing.ID + 1
		}
	}
	m.Contacts = append(m.Contacts, *c)
	return nil
}

func (m *ContactRepo) GetByID(ctx context.Context, id int) (*model.Contact, error) {
	for _, c := range m.Contacts {
		if c.ID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, appErrors.NewContactNotFound(id)
}

func (m *ContactRepo) ListAll(ctx context.Context) ([]model.Contact, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return append([]model.Contact(nil), m.Contacts...), nil
}

func (m *ContactRepo) Update(ctx context.Context, c *model.Contact) error {
	for i := range m.Contacts {
		if m.Contacts[i].ID == c.ID {
			m.Contacts[i] = *c
			return nil
		}
	}
	return appErrors.NewContactNotFound(c.ID)
}

func (m *ContactRepo) Delete(ctx context.Context, id int) error {
	for i := range m.Contacts {
		if m.Contacts[i].ID == id {
			m.Contacts = append(m.Contacts[:i], m.Contacts[i+1:]...)
			return nil
		}
	}
	return appErrors.NewContactNotFound(id)
}

func (m *ContactRepo) Count(ctx context.Context) (int, error) {
	return len(m.Contacts), nil
}

func (m *ContactRepo) BulkInsert(ctx context.Context, contacts []model.Contact) (int, error) {
	n := 0
	for _, c := range contacts {
		if err := m.Create(ctx, &c); err == nil {
			m.Inserted = append(m.Inserted, c)
			n++
		}
	}
	return n, nil
}

// LogRepo stores email logs in memory. Create fails for contact ids in FailCreate.
type LogRepo struct {
	mu          sync.Mutex
	Logs        []*model.EmailLog
	FailCreate  map[int]bool
	CreateCalls int
}

func (m *LogRepo) Create(ctx context.Context, l *model.EmailLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.FailCreate[l.ContactID] {
		return errors.New("insert email log: connection reset")
	}
	l.ID = len(m.Logs) + 1
	cp := *l
	m.Logs = append(m.Logs, &cp)
	return nil
}

func (m *LogRepo) Update(ctx context.Context, l *model.EmailLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.Logs {
		if existing.ID == l.ID {
			cp := *l
			m.Logs[i] = &cp
			return nil
		}
	}
	return errors.New("email log not found")
}

func (m *LogRepo) ListByCampaign(ctx context.Context, campaignID int) ([]model.EmailLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.EmailLog
	for _, l := range m.Logs {
		if l.CampaignID == campaignID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *LogRepo) CountByStatus(ctx context.Context, status string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.Logs {
		if l.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *LogRepo) StatusCounts(ctx context.Context, campaignID int) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{"total": 0}
	for _, l := range m.Logs {
		if l.CampaignID == campaignID {
			counts[l.Status]++
			counts["total"]++
		}
	}
	return counts, nil
}

// ByContact returns the log row written for a contact, or nil.
func (m *LogRepo) ByContact(contactID int) *model.EmailLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.Logs {
		if l.ContactID == contactID {
			return l
		}
	}
	return nil
}

// RefreshedIDs returns the campaigns RefreshStats was called for.
func (m *CampaignRepo) RefreshedIDs() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.Refreshed...)
}

var (
	_ repository.CampaignRepositoryInterface = (*CampaignRepo)(nil)
	_ repository.ContactRepositoryInterface  = (*ContactRepo)(nil)
	_ repository.EmailLogRepositoryInterface = (*LogRepo)(nil)
)
