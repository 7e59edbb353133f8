package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"plantao/backend/internal/model"
	"plantao/backend/internal/notify"
	"plantao/backend/internal/repository"
	pkgerrors "plantao/backend/pkg/errors"
)

// ── Mock PostingRepository ──
// Stores copies and checks versions like the real optimistic update.

type mockPostingRepo struct {
	postings  map[string]*model.Posting
	updateErr error
	updates   int
}

func newMockPostingRepo() *mockPostingRepo {
	return &mockPostingRepo{postings: make(map[string]*model.Posting)}
}

func (m *mockPostingRepo) Create(_ context.Context, p *model.Posting) error {
	if p.PostingID == "" {
		p.PostingID = fmt.Sprintf("posting-%d", len(m.postings)+1)
	}
	if p.Version == 0 {
		p.Version = 1
	}
	cp := *p
	m.postings[p.PostingID] = &cp
	return nil
}

func (m *mockPostingRepo) GetByID(_ context.Context, id string) (*model.Posting, error) {
	if p, ok := m.postings[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPostingRepo) List(_ context.Context, f repository.PostingFilter, offset, limit int) ([]model.Posting, int64, error) {
	var result []model.Posting
	for _, p := range m.sorted() {
		if len(f.Status) > 0 && !containsStatus(f.Status, p.Status) {
			continue
		}
		if f.ClinicID != "" && p.ClinicID != f.ClinicID {
			continue
		}
		if f.CreatedBy != "" && p.OwnerID() != f.CreatedBy {
			continue
		}
		if f.Specialty != "" && p.Specialty != f.Specialty {
			continue
		}
		result = append(result, p)
	}
	total := int64(len(result))
	if offset >= len(result) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

func (m *mockPostingRepo) ListByClinicsAndStatus(_ context.Context, clinicIDs []string, status model.PostingStatus) ([]model.Posting, error) {
	var result []model.Posting
	for _, p := range m.sorted() {
		if p.Status != status {
			continue
		}
		for _, id := range clinicIDs {
			if p.ClinicID == id {
				result = append(result, p)
				break
			}
		}
	}
	return result, nil
}

func (m *mockPostingRepo) ListExpired(_ context.Context, now time.Time, limit int) ([]model.Posting, error) {
	var result []model.Posting
	for _, p := range m.sorted() {
		if p.Status == model.PostingOpen && p.ExpiresAt != nil && p.ExpiresAt.Before(now) {
			result = append(result, p)
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *mockPostingRepo) Update(_ context.Context, p *model.Posting) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	stored, ok := m.postings[p.PostingID]
	if !ok || stored.Version != p.Version {
		return pkgerrors.ErrOptimisticLock
	}
	cp := *p
	cp.CandidateCount = stored.CandidateCount
	cp.ViewCount = stored.ViewCount
	cp.Version = p.Version + 1
	m.postings[p.PostingID] = &cp
	p.Version++
	m.updates++
	return nil
}

func (m *mockPostingRepo) MoveToSelection(_ context.Context, id string) error {
	if p, ok := m.postings[id]; ok && p.Status == model.PostingOpen {
		p.Status = model.PostingInSelection
		p.Version++
	}
	return nil
}

func (m *mockPostingRepo) IncrementCandidates(_ context.Context, id string) error {
	if p, ok := m.postings[id]; ok {
		p.CandidateCount++
	}
	return nil
}

func (m *mockPostingRepo) DecrementCandidates(_ context.Context, id string) error {
	if p, ok := m.postings[id]; ok && p.CandidateCount > 0 {
		p.CandidateCount--
	}
	return nil
}

func (m *mockPostingRepo) IncrementViews(_ context.Context, id string) error {
	if p, ok := m.postings[id]; ok {
		p.ViewCount++
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *mockPostingRepo) RecordFailedCode(_ context.Context, id string, limit int) (int, error) {
	p, ok := m.postings[id]
	if !ok || p.Status != model.PostingAwaitingConfirmation || p.ConfirmationCodeHash == "" {
		return 0, nil
	}
	p.ConfirmationAttempts++
	if p.ConfirmationAttempts >= limit {
		p.ConfirmationCodeHash = ""
	}
	return p.ConfirmationAttempts, nil
}

func (m *mockPostingRepo) sorted() []model.Posting {
	ids := make([]string, 0, len(m.postings))
	for id := range m.postings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]model.Posting, 0, len(ids))
	for _, id := range ids {
		out = append(out, *m.postings[id])
	}
	return out
}

func containsStatus(list []model.PostingStatus, s model.PostingStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ── Mock ApplicationRepository ──

type mockApplicationRepo struct {
	apps  map[string]*model.Application
	order []string
	pros  *mockProfessionalRepo
}

func newMockApplicationRepo(pros *mockProfessionalRepo) *mockApplicationRepo {
	return &mockApplicationRepo{apps: make(map[string]*model.Application), pros: pros}
}

func (m *mockApplicationRepo) Create(_ context.Context, app *model.Application) error {
	for _, a := range m.apps {
		if a.PostingID == app.PostingID && a.ProfessionalID == app.ProfessionalID {
			return gorm.ErrDuplicatedKey
		}
	}
	if app.ApplicationID == "" {
		app.ApplicationID = fmt.Sprintf("app-%d", len(m.order)+1)
	}
	cp := *app
	cp.Professional = nil
	m.apps[app.ApplicationID] = &cp
	m.order = append(m.order, app.ApplicationID)
	return nil
}

func (m *mockApplicationRepo) withProfessional(a *model.Application) model.Application {
	cp := *a
	if m.pros != nil {
		if p, ok := m.pros.pros[a.ProfessionalID]; ok {
			pc := *p
			cp.Professional = &pc
		}
	}
	return cp
}

func (m *mockApplicationRepo) GetByID(_ context.Context, id string) (*model.Application, error) {
	if a, ok := m.apps[id]; ok {
		cp := m.withProfessional(a)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockApplicationRepo) FindByPostingAndProfessional(_ context.Context, postingID, professionalID string) (*model.Application, error) {
	for _, a := range m.apps {
		if a.PostingID == postingID && a.ProfessionalID == professionalID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockApplicationRepo) ListByPosting(_ context.Context, postingID string) ([]model.Application, error) {
	var result []model.Application
	for _, id := range m.order {
		if a, ok := m.apps[id]; ok && a.PostingID == postingID {
			result = append(result, m.withProfessional(a))
		}
	}
	return result, nil
}

func (m *mockApplicationRepo) ListByProfessional(_ context.Context, professionalID string) ([]model.Application, error) {
	var result []model.Application
	for _, id := range m.order {
		if a, ok := m.apps[id]; ok && a.ProfessionalID == professionalID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockApplicationRepo) UpdateStatus(_ context.Context, id string, status model.ApplicationStatus, resultNotified bool) error {
	a, ok := m.apps[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.Status = status
	a.ResultNotified = resultNotified
	return nil
}

func (m *mockApplicationRepo) RejectPendingExcept(_ context.Context, postingID, exceptID string) (int64, error) {
	var n int64
	for id, a := range m.apps {
		if a.PostingID == postingID && id != exceptID && a.Status == model.ApplicationPending {
			a.Status = model.ApplicationRejected
			n++
		}
	}
	return n, nil
}

func (m *mockApplicationRepo) Delete(_ context.Context, id string) error {
	delete(m.apps, id)
	return nil
}

func (m *mockApplicationRepo) countByPosting(postingID string) int {
	n := 0
	for _, a := range m.apps {
		if a.PostingID == postingID {
			n++
		}
	}
	return n
}

// ── Mock ProfessionalRepository ──

type mockProfessionalRepo struct {
	pros map[string]*model.Professional
}

func newMockProfessionalRepo() *mockProfessionalRepo {
	return &mockProfessionalRepo{pros: make(map[string]*model.Professional)}
}

func (m *mockProfessionalRepo) Create(_ context.Context, p *model.Professional) error {
	if p.Version == 0 {
		p.Version = 1
	}
	cp := *p
	m.pros[p.ProfessionalID] = &cp
	return nil
}

func (m *mockProfessionalRepo) GetByID(_ context.Context, id string) (*model.Professional, error) {
	if p, ok := m.pros[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProfessionalRepo) ListAvailable(_ context.Context, specialty string) ([]model.Professional, error) {
	ids := make([]string, 0, len(m.pros))
	for id := range m.pros {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var result []model.Professional
	for _, id := range ids {
		p := m.pros[id]
		if !p.Available || p.IsSuspended {
			continue
		}
		if specialty != "" && p.Specialty != specialty {
			continue
		}
		result = append(result, *p)
	}
	return result, nil
}

func (m *mockProfessionalRepo) Update(_ context.Context, p *model.Professional) error {
	stored, ok := m.pros[p.ProfessionalID]
	if !ok || stored.Version != p.Version {
		return pkgerrors.ErrOptimisticLock
	}
	cp := *p
	cp.Version = p.Version + 1
	m.pros[p.ProfessionalID] = &cp
	p.Version++
	return nil
}

// ── Mock ClinicRepository ──

type mockClinicRepo struct {
	clinics map[string]*model.Clinic
}

func newMockClinicRepo() *mockClinicRepo {
	return &mockClinicRepo{clinics: make(map[string]*model.Clinic)}
}

func (m *mockClinicRepo) Create(_ context.Context, c *model.Clinic) error {
	m.clinics[c.ClinicID] = c
	return nil
}

func (m *mockClinicRepo) GetByID(_ context.Context, id string) (*model.Clinic, error) {
	if c, ok := m.clinics[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClinicRepo) ListByResponsiblePhone(_ context.Context, phone string) ([]model.Clinic, error) {
	var result []model.Clinic
	for _, c := range m.clinics {
		if c.ResponsiblePhone == phone {
			result = append(result, *c)
		}
	}
	return result, nil
}

// ── Mock ScheduleBlockRepository ──

type mockScheduleBlockRepo struct {
	blocks map[string]*model.ScheduleBlock
	order  []string
}

func newMockScheduleBlockRepo() *mockScheduleBlockRepo {
	return &mockScheduleBlockRepo{blocks: make(map[string]*model.ScheduleBlock)}
}

func (m *mockScheduleBlockRepo) Create(_ context.Context, b *model.ScheduleBlock) error {
	if b.BlockID == "" {
		b.BlockID = fmt.Sprintf("block-%d", len(m.order)+1)
	}
	m.blocks[b.BlockID] = b
	m.order = append(m.order, b.BlockID)
	return nil
}

func (m *mockScheduleBlockRepo) GetByID(_ context.Context, id string) (*model.ScheduleBlock, error) {
	if b, ok := m.blocks[id]; ok {
		return b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleBlockRepo) ListActiveByProfessional(_ context.Context, professionalID string) ([]model.ScheduleBlock, error) {
	var result []model.ScheduleBlock
	for _, id := range m.order {
		b := m.blocks[id]
		if b.ProfessionalID == professionalID && b.Active {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (m *mockScheduleBlockRepo) Deactivate(_ context.Context, id string, updatedBy string) error {
	b, ok := m.blocks[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	b.Active = false
	b.UpdatedBy = &updatedBy
	return nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	records map[string]*model.AttendanceRecord
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: make(map[string]*model.AttendanceRecord)}
}

func (m *mockAttendanceRepo) Create(_ context.Context, r *model.AttendanceRecord) error {
	for _, existing := range m.records {
		if existing.PostingID == r.PostingID {
			return gorm.ErrDuplicatedKey
		}
	}
	if r.RecordID == "" {
		r.RecordID = fmt.Sprintf("record-%d", len(m.records)+1)
	}
	m.records[r.RecordID] = r
	return nil
}

func (m *mockAttendanceRepo) GetByID(_ context.Context, id string) (*model.AttendanceRecord, error) {
	if r, ok := m.records[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) GetByPosting(_ context.Context, postingID string) (*model.AttendanceRecord, error) {
	for _, r := range m.records {
		if r.PostingID == postingID {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) ListByClinic(_ context.Context, clinicID string, from, to time.Time) ([]model.AttendanceRecord, error) {
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if r.ClinicID == clinicID && !r.CreatedAt.Before(from) && r.CreatedAt.Before(to) {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *mockAttendanceRepo) MarkJustified(_ context.Context, id string, by string, at time.Time) error {
	r, ok := m.records[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.Justified = true
	r.JustifiedBy = &by
	r.JustifiedAt = &at
	return nil
}

// ── Mock SuspensionRepository ──

type mockSuspensionRepo struct {
	items map[string]*model.Suspension
	order []string
}

func newMockSuspensionRepo() *mockSuspensionRepo {
	return &mockSuspensionRepo{items: make(map[string]*model.Suspension)}
}

func (m *mockSuspensionRepo) Create(_ context.Context, s *model.Suspension) error {
	if s.SuspensionID == "" {
		s.SuspensionID = fmt.Sprintf("susp-%d", len(m.order)+1)
	}
	m.items[s.SuspensionID] = s
	m.order = append(m.order, s.SuspensionID)
	return nil
}

func (m *mockSuspensionRepo) GetActiveByPosting(_ context.Context, postingID string) (*model.Suspension, error) {
	for _, id := range m.order {
		s := m.items[id]
		if s.Active && s.PostingID != nil && *s.PostingID == postingID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSuspensionRepo) ListByProfessional(_ context.Context, professionalID string) ([]model.Suspension, error) {
	var result []model.Suspension
	for _, id := range m.order {
		if s := m.items[id]; s.ProfessionalID == professionalID {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockSuspensionRepo) ListExpiredActive(_ context.Context, now time.Time, limit int) ([]model.Suspension, error) {
	var result []model.Suspension
	for _, id := range m.order {
		s := m.items[id]
		if s.Active && s.Days > 0 && !s.EndsAt.After(now) {
			result = append(result, *s)
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *mockSuspensionRepo) Lift(_ context.Context, id string, at time.Time) error {
	s, ok := m.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Active = false
	s.LiftedAt = &at
	return nil
}

// ── Mock AvailabilityLogRepository ──

type mockAvailabilityLogRepo struct {
	logs []model.AvailabilityLog
}

func (m *mockAvailabilityLogRepo) Create(_ context.Context, l *model.AvailabilityLog) error {
	m.logs = append(m.logs, *l)
	return nil
}

func (m *mockAvailabilityLogRepo) ListByProfessional(_ context.Context, professionalID string, limit int) ([]model.AvailabilityLog, error) {
	var result []model.AvailabilityLog
	for i := len(m.logs) - 1; i >= 0 && len(result) < limit; i-- {
		if m.logs[i].ProfessionalID == professionalID {
			result = append(result, m.logs[i])
		}
	}
	return result, nil
}

// ── Mock Notifier ──

type mockNotifier struct {
	msgs []notify.Message
	err  error
}

func (m *mockNotifier) Publish(_ context.Context, msg notify.Message) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msg)
	return nil
}

func (m *mockNotifier) byEvent(event string) []notify.Message {
	var out []notify.Message
	for _, msg := range m.msgs {
		if msg.Event == event {
			out = append(out, msg)
		}
	}
	return out
}

// ── fixed code issuer ──

type fixedCodeIssuer string

func (c fixedCodeIssuer) Issue() (string, error) { return string(c), nil }
