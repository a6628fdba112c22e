package api_test

import (
	"cmp"
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tech-Society-SEC/SkillSync/internal/model"
	"github.com/Tech-Society-SEC/SkillSync/internal/search"
	"github.com/Tech-Society-SEC/SkillSync/internal/store"
)

// In-memory repositories. They honour the same contracts as the
// PostgreSQL ones for the behaviour the handlers rely on.

func paginate[T any](items []T, p store.Page) *store.PageResult[T] {
	p = p.Normalize()
	start := min(p.Offset(), len(items))
	end := min(start+p.Limit, len(items))
	out := make([]T, end-start)
	copy(out, items[start:end])
	return &store.PageResult[T]{Items: out, Total: int64(len(items)), Page: p}
}

func nowAfter(prev time.Time) time.Time {
	now := time.Now()
	if now.Before(prev) {
		return prev
	}
	return now
}

// ─── Workers ─────────────────────────────────────────────────────────────────

type memWorkers struct {
	mu   sync.Mutex
	rows []*model.Worker
}

func (m *memWorkers) find(id string) *model.Worker {
	for _, w := range m.rows {
		if w.ID == id || w.WorkerID == id {
			return w
		}
	}
	return nil
}

func (m *memWorkers) Create(_ context.Context, w *model.Worker) (*model.Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *w
	c.ID = uuid.NewString()
	c.WorkerID = "WKR-" + uuid.NewString()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.rows = append(m.rows, &c)
	out := c
	return &out, nil
}

func (m *memWorkers) List(_ context.Context, f store.WorkerFilter, p store.Page) (*store.PageResult[model.Worker], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Worker
	for i := len(m.rows) - 1; i >= 0; i-- {
		w := m.rows[i]
		if f.MinExperience != nil && w.ExperienceYears < *f.MinExperience {
			continue
		}
		if len(f.Skills) > 0 && !slices.ContainsFunc(f.Skills, func(s string) bool { return slices.Contains(w.Skills, s) }) {
			continue
		}
		out = append(out, *w)
	}
	return paginate(out, p), nil
}

func (m *memWorkers) Get(_ context.Context, id string) (*model.Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w := m.find(id); w != nil {
		out := *w
		return &out, nil
	}
	return nil, store.ErrNotFound
}

func (m *memWorkers) Exists(_ context.Context, workerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.rows {
		if w.WorkerID == workerID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memWorkers) Update(_ context.Context, id string, p store.WorkerPatch) (*model.Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.find(id)
	if w == nil {
		return nil, store.ErrNotFound
	}
	if p.Name != nil {
		w.Name = *p.Name
	}
	if p.Phone != nil {
		w.Phone = *p.Phone
	}
	if p.JobTitle != nil {
		w.JobTitle = *p.JobTitle
	}
	if p.Skills != nil {
		w.Skills = slices.Clone(*p.Skills)
	}
	if p.AudioFilePath != nil {
		w.AudioFilePath = *p.AudioFilePath
	}
	w.UpdatedAt = nowAfter(w.UpdatedAt)
	out := *w
	return &out, nil
}

func (m *memWorkers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, w := range m.rows {
		if w.ID == id || w.WorkerID == id {
			m.rows = slices.Delete(m.rows, i, i+1)
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memWorkers) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

func (m *memWorkers) Recent(_ context.Context, n int) ([]model.WorkerSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.WorkerSummary
	for i := len(m.rows) - 1; i >= 0 && len(out) < n; i-- {
		w := m.rows[i]
		out = append(out, model.WorkerSummary{WorkerID: w.WorkerID, Name: w.Name, JobTitle: w.JobTitle, Location: w.Location, CreatedAt: w.CreatedAt})
	}
	return out, nil
}

func (m *memWorkers) SkillFrequencies(context.Context) ([]model.SkillCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, w := range m.rows {
		for _, s := range w.Skills {
			counts[s]++
		}
	}
	out := make([]model.SkillCount, 0, len(counts))
	for s, c := range counts {
		out = append(out, model.SkillCount{Skill: s, Count: c})
	}
	return out, nil
}

// ─── Jobs ────────────────────────────────────────────────────────────────────

type memJobs struct {
	mu   sync.Mutex
	rows []*model.Job
}

func (m *memJobs) find(id string) *model.Job {
	for _, j := range m.rows {
		if j.ID == id || j.JobID == id {
			return j
		}
	}
	return nil
}

func (m *memJobs) Create(_ context.Context, j *model.Job) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *j
	c.ID = uuid.NewString()
	c.JobID = "JOB-" + uuid.NewString()
	c.IsActive = true
	if c.EmploymentType == "" {
		c.EmploymentType = model.FullTime
	}
	c.PostedAt = time.Now()
	c.UpdatedAt = c.PostedAt
	m.rows = append(m.rows, &c)
	out := c
	return &out, nil
}

func (m *memJobs) List(_ context.Context, f store.JobFilter, p store.Page) (*store.PageResult[model.Job], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Job
	for i := len(m.rows) - 1; i >= 0; i-- {
		j := m.rows[i]
		if f.IsActive != nil && j.IsActive != *f.IsActive {
			continue
		}
		if f.PostedBy != "" && j.PostedBy != f.PostedBy {
			continue
		}
		out = append(out, *j)
	}
	return paginate(out, p), nil
}

func (m *memJobs) Get(_ context.Context, id string) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j := m.find(id); j != nil {
		out := *j
		return &out, nil
	}
	return nil, store.ErrNotFound
}

func (m *memJobs) Exists(_ context.Context, jobID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.rows {
		if j.JobID == jobID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memJobs) Update(_ context.Context, id string, p store.JobPatch) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.find(id)
	if j == nil {
		return nil, store.ErrNotFound
	}
	if p.Title != nil {
		j.Title = *p.Title
	}
	if p.Location != nil {
		j.Location = *p.Location
	}
	if p.SalaryMin != nil {
		j.SalaryMin = p.SalaryMin
	}
	if p.SalaryMax != nil {
		j.SalaryMax = p.SalaryMax
	}
	if p.IsActive != nil {
		j.IsActive = *p.IsActive
	}
	j.UpdatedAt = nowAfter(j.UpdatedAt)
	out := *j
	return &out, nil
}

func (m *memJobs) SetActive(ctx context.Context, id string, active bool) (*model.Job, error) {
	return m.Update(ctx, id, store.JobPatch{IsActive: &active})
}

func (m *memJobs) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, j := range m.rows {
		if j.ID == id || j.JobID == id {
			m.rows = slices.Delete(m.rows, i, i+1)
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memJobs) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

func (m *memJobs) CountActive(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, j := range m.rows {
		if j.IsActive {
			n++
		}
	}
	return n, nil
}

// ─── Applications ────────────────────────────────────────────────────────────

type memApplications struct {
	mu   sync.Mutex
	rows []*model.Application
}

func (m *memApplications) Create(_ context.Context, a *model.Application) (*model.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.WorkerID == a.WorkerID && r.JobID == a.JobID {
			return nil, store.ErrConflict
		}
	}
	c := *a
	c.ID = uuid.NewString()
	c.Status = model.StatusPending
	c.AppliedAt = time.Now()
	c.UpdatedAt = c.AppliedAt
	m.rows = append(m.rows, &c)
	out := c
	return &out, nil
}

func (m *memApplications) List(_ context.Context, f store.ApplicationFilter, order store.ApplicationOrder, p store.Page) (*store.PageResult[model.Application], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Application
	for i := len(m.rows) - 1; i >= 0; i-- {
		a := m.rows[i]
		if f.WorkerID != "" && a.WorkerID != f.WorkerID {
			continue
		}
		if f.JobID != "" && a.JobID != f.JobID {
			continue
		}
		if f.Status != "" && string(a.Status) != f.Status {
			continue
		}
		out = append(out, *a)
	}
	if order == store.OrderMatchScore {
		slices.SortStableFunc(out, func(a, b model.Application) int { return cmp.Compare(b.MatchScore, a.MatchScore) })
	}
	return paginate(out, p), nil
}

func (m *memApplications) Get(_ context.Context, id string) (*model.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.rows {
		if a.ID == id {
			out := *a
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memApplications) Update(_ context.Context, id string, p store.ApplicationPatch) (*model.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.rows {
		if a.ID != id {
			continue
		}
		if p.Status != nil {
			a.Status = *p.Status
		}
		if p.Notes != nil {
			a.Notes = p.Notes
		}
		if p.MatchScore != nil {
			a.MatchScore = *p.MatchScore
		}
		a.UpdatedAt = nowAfter(a.UpdatedAt)
		out := *a
		return &out, nil
	}
	return nil, store.ErrNotFound
}

func (m *memApplications) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.rows {
		if a.ID == id {
			m.rows = slices.Delete(m.rows, i, i+1)
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memApplications) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

func (m *memApplications) CountByStatus(context.Context) ([]model.EventCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, a := range m.rows {
		counts[string(a.Status)]++
	}
	var out []model.EventCount
	for k, c := range counts {
		out = append(out, model.EventCount{Key: k, Count: c})
	}
	return out, nil
}

func (m *memApplications) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// ─── Analytics ───────────────────────────────────────────────────────────────

type memAnalytics struct {
	mu     sync.Mutex
	events []model.AnalyticsEvent
}

func (m *memAnalytics) Append(_ context.Context, e *model.AnalyticsEvent) (*model.AnalyticsEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *e
	c.ID = uuid.NewString()
	c.Timestamp = time.Now()
	if len(c.EventData) == 0 {
		c.EventData = []byte("{}")
	}
	m.events = append(m.events, c)
	return &c, nil
}

func (m *memAnalytics) filter(keep func(model.AnalyticsEvent) bool, limit int) []model.AnalyticsEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.AnalyticsEvent{}
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		if keep(m.events[i]) {
			out = append(out, m.events[i])
		}
	}
	return out
}

func (m *memAnalytics) Events(_ context.Context, f store.EventFilter, limit int) ([]model.AnalyticsEvent, error) {
	return m.filter(func(e model.AnalyticsEvent) bool {
		switch {
		case f.WorkerID != "" && (e.WorkerID == nil || *e.WorkerID != f.WorkerID):
			return false
		case f.UserID != "" && (e.UserID == nil || *e.UserID != f.UserID):
			return false
		case f.EventType != "" && e.EventType != f.EventType:
			return false
		}
		return true
	}, limit), nil
}

func (m *memAnalytics) CountByTypeForWorker(ctx context.Context, workerID string) ([]model.EventCount, error) {
	events, _ := m.Events(ctx, store.EventFilter{WorkerID: workerID}, 1<<30)
	return countTypes(events), nil
}

func (m *memAnalytics) CountByTypeSince(_ context.Context, since time.Time) ([]model.EventCount, error) {
	return countTypes(m.filter(func(e model.AnalyticsEvent) bool { return !e.Timestamp.Before(since) }, 1<<30)), nil
}

func (m *memAnalytics) ofType(eventType string) []model.AnalyticsEvent {
	return m.filter(func(e model.AnalyticsEvent) bool { return e.EventType == eventType }, 1<<30)
}

func countTypes(events []model.AnalyticsEvent) []model.EventCount {
	counts := map[string]int64{}
	for _, e := range events {
		counts[e.EventType]++
	}
	var out []model.EventCount
	for k, c := range counts {
		out = append(out, model.EventCount{Key: k, Count: c})
	}
	return out
}

// ─── Learning ────────────────────────────────────────────────────────────────

type memLearning struct {
	mu   sync.Mutex
	rows []model.LearningResource
}

func (m *memLearning) Create(_ context.Context, r *model.LearningResource) (*model.LearningResource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *r
	c.ID = uuid.NewString()
	c.ResourceID = "LRN-" + uuid.NewString()
	c.CreatedAt = time.Now()
	m.rows = append(m.rows, c)
	return &c, nil
}

func (m *memLearning) List(_ context.Context, f store.LearningFilter, p store.Page) (*store.PageResult[model.LearningResource], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.LearningResource
	for _, r := range m.rows {
		if f.Skill != "" && !slices.Contains(r.Skills, f.Skill) {
			continue
		}
		out = append(out, r)
	}
	return paginate(out, p), nil
}

func (m *memLearning) Get(_ context.Context, id string) (*model.LearningResource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id || r.ResourceID == id {
			return &r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memLearning) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.ID == id || r.ResourceID == id {
			m.rows = slices.Delete(m.rows, i, i+1)
			return nil
		}
	}
	return store.ErrNotFound
}

type memProgress struct {
	mu   sync.Mutex
	rows []*model.LearningProgress
}

func (m *memProgress) find(workerID, resourceID string) *model.LearningProgress {
	for _, p := range m.rows {
		if p.WorkerID == workerID && p.ResourceID == resourceID {
			return p
		}
	}
	return nil
}

func (m *memProgress) Recommend(_ context.Context, workerID string, r *model.LearningResource) (*model.LearningProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.find(workerID, r.ResourceID) != nil {
		return nil, store.ErrConflict
	}
	now := time.Now()
	p := &model.LearningProgress{
		ID:            uuid.NewString(),
		WorkerID:      workerID,
		ResourceID:    r.ResourceID,
		ResourceTitle: r.Title,
		ResourceURL:   r.URL,
		Status:        model.ProgressRecommended,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.rows = append(m.rows, p)
	out := *p
	return &out, nil
}

func (m *memProgress) Record(_ context.Context, workerID string, r *model.LearningResource, status model.ProgressStatus, percent int) (*model.LearningProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	p := m.find(workerID, r.ResourceID)
	if p == nil {
		p = &model.LearningProgress{
			ID:            uuid.NewString(),
			WorkerID:      workerID,
			ResourceID:    r.ResourceID,
			ResourceTitle: r.Title,
			ResourceURL:   r.URL,
			CreatedAt:     now,
		}
		m.rows = append(m.rows, p)
	}
	p.Status, p.ProgressPercent = status, percent
	if status != model.ProgressRecommended && p.StartedAt == nil {
		p.StartedAt = &now
	}
	switch {
	case status != model.ProgressCompleted:
		p.CompletedAt = nil
	case p.CompletedAt == nil:
		p.CompletedAt = &now
	}
	p.UpdatedAt = nowAfter(p.UpdatedAt)
	out := *p
	return &out, nil
}

func (m *memProgress) ForWorker(_ context.Context, workerID string) ([]model.LearningProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.LearningProgress{}
	for i := len(m.rows) - 1; i >= 0; i-- {
		if p := m.rows[i]; p.WorkerID == workerID {
			out = append(out, *p)
		}
	}
	slices.SortStableFunc(out, func(a, b model.LearningProgress) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return out, nil
}

// ─── Users ───────────────────────────────────────────────────────────────────

type memUsers struct {
	mu   sync.Mutex
	rows map[string]*model.User
}

func (m *memUsers) Create(_ context.Context, u *model.User) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Email == u.Email {
			return nil, store.ErrConflict
		}
	}
	c := *u
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	m.rows[c.ID] = &c
	out := c
	out.PasswordHash = ""
	return &out, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.rows[id]; ok {
		out := *u
		out.PasswordHash = ""
		return &out, nil
	}
	return nil, store.ErrNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

// ─── Side-effect recorders ───────────────────────────────────────────────────

type recordedNotice struct {
	kind string
	from model.ApplicationStatus
	to   model.ApplicationStatus
}

type memNotifier struct {
	mu      sync.Mutex
	notices []recordedNotice
}

func (n *memNotifier) add(r recordedNotice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, r)
}

func (n *memNotifier) ApplicationCreated(_ context.Context, a *model.Application) {
	n.add(recordedNotice{kind: "created", to: a.Status})
}

func (n *memNotifier) ApplicationUpdated(_ context.Context, a *model.Application, from model.ApplicationStatus) {
	n.add(recordedNotice{kind: "updated", from: from, to: a.Status})
}

func (n *memNotifier) Analytics(context.Context, *model.AnalyticsEvent) {
	n.add(recordedNotice{kind: "analytics"})
}

func (n *memNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, r := range n.notices {
		out = append(out, r.kind)
	}
	return out
}

type memSearch struct {
	mu      sync.Mutex
	indexed map[string]model.Job
}

func (s *memSearch) Index(_ context.Context, j *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexed[j.JobID] = *j
	return nil
}

func (s *memSearch) Delete(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.indexed, jobID)
	return nil
}

func (s *memSearch) Search(_ context.Context, q search.Query) (*search.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := &search.Result{Jobs: []model.Job{}}
	for _, j := range s.indexed {
		if q.ActiveOnly && !j.IsActive {
			continue
		}
		res.Jobs = append(res.Jobs, j)
	}
	res.Total = int64(len(res.Jobs))
	return res, nil
}

type memAudio struct {
	bucket string
	got    []byte
}

func (a *memAudio) Upload(_ context.Context, workerID, _ string, body io.Reader, _ int64) (string, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	a.got = b
	return "s3://" + a.bucket + "/workers/" + workerID + "/rec.wav", nil
}
