package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/fundflow/campaign-service/internal/domain"
	"github.com/fundflow/campaign-service/internal/metrics"
	"github.com/fundflow/campaign-service/internal/store"
)

// fakeRepo is an in-memory Repository with the same semantics the Postgres
// implementation provides: the donation write and the total increment are
// one atomic step under the mutex, badge awards dedupe on (user, badge),
// and CloseCampaign is guarded by is_closed.
type fakeRepo struct {
	mu sync.Mutex

	campaigns     map[int64]*domain.Campaign
	donations     []domain.Donation
	requests      map[int64]*domain.VerificationRequest
	evidence      []domain.EvidenceResponse
	badges        map[domain.BadgeType]domain.Badge
	userBadges    []domain.UserBadge
	notifications []domain.Notification
	auditLog      []domain.AuditLogEntry
	emails        map[int64]string

	nextID int64

	failCreateNotification error
	failAppendAudit        error
	failDueForCheck        error
	failUserEmail          map[int64]error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		campaigns: make(map[int64]*domain.Campaign),
		requests:  make(map[int64]*domain.VerificationRequest),
		badges:    make(map[domain.BadgeType]domain.Badge),
		emails:    make(map[int64]string),
		nextID:    100,
	}
}

func (f *fakeRepo) seedBadges() {
	for i, t := range []domain.BadgeType{
		domain.BadgeFirstDonation,
		domain.BadgeDonationMilestone,
		domain.BadgeRegularDonor,
		domain.BadgeCampaignCreated,
	} {
		f.badges[t] = domain.Badge{ID: int64(i + 1), Name: string(t), Type: t}
	}
}

func (f *fakeRepo) addCampaign(c domain.Campaign) *domain.Campaign {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := c
	f.campaigns[c.ID] = &cp
	return &cp
}

func (f *fakeRepo) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeRepo) FindCampaignByID(ctx context.Context, campaignID int64) (*domain.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[campaignID]
	if !ok {
		return nil, store.ErrCampaignNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) UpdateCampaignStatus(ctx context.Context, campaignID int64, status domain.CampaignStatus) (*domain.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[campaignID]
	if !ok {
		return nil, store.ErrCampaignNotFound
	}
	c.Status = status
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) CloseCampaign(ctx context.Context, campaignID int64, status domain.CampaignStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[campaignID]
	if !ok {
		return false, nil
	}
	if c.IsClosed {
		return false, nil
	}
	c.IsClosed = true
	c.Status = status
	return true, nil
}

func (f *fakeRepo) FindCampaignsDueForCheck(ctx context.Context) ([]domain.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDueForCheck != nil {
		return nil, f.failDueForCheck
	}
	var due []domain.Campaign
	for _, c := range f.campaigns {
		if !c.IsClosed && (c.Status == domain.StatusApproved || c.Status == domain.StatusActive) {
			due = append(due, *c)
		}
	}
	return due, nil
}

func (f *fakeRepo) CreateDonation(ctx context.Context, donation *domain.Donation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[donation.CampaignID]
	if !ok {
		return store.ErrCampaignNotFound
	}
	if donation.TxHash != nil {
		for _, d := range f.donations {
			if d.TxHash != nil && *d.TxHash == *donation.TxHash {
				return store.ErrDuplicateDonation
			}
		}
	}
	donation.ID = f.id()
	if donation.DonatedAt.IsZero() {
		donation.DonatedAt = time.Now().UTC()
	}
	f.donations = append(f.donations, *donation)
	c.TotalDonated = c.TotalDonated.Add(donation.Amount)
	return nil
}

func (f *fakeRepo) FindDonationByID(ctx context.Context, donationID int64) (*domain.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.donations {
		if d.ID == donationID {
			dp := d
			return &dp, nil
		}
	}
	return nil, store.ErrDonationNotFound
}

func (f *fakeRepo) FindDonationsByCampaign(ctx context.Context, campaignID int64) ([]domain.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Donation
	for _, d := range f.donations {
		if d.CampaignID == campaignID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeRepo) DonationHistogram(ctx context.Context, campaignID int64, groupBy domain.HistoryGroupBy, from, to time.Time) ([]domain.HistoryBucket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byStart := make(map[int64]*domain.HistoryBucket)
	var order []int64
	for _, d := range f.donations {
		if d.CampaignID != campaignID || d.DonatedAt.Before(from) || !d.DonatedAt.Before(to) {
			continue
		}
		start := truncateToBucket(d.DonatedAt, groupBy)
		key := start.Unix()
		b, ok := byStart[key]
		if !ok {
			b = &domain.HistoryBucket{BucketStart: start, Amount: decimal.Zero}
			byStart[key] = b
			order = append(order, key)
		}
		b.Count++
		b.Amount = b.Amount.Add(d.Amount)
	}
	var out []domain.HistoryBucket
	for _, key := range order {
		out = append(out, *byStart[key])
	}
	return out, nil
}

func (f *fakeRepo) FirstDonationTime(ctx context.Context, campaignID int64) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var first *time.Time
	for _, d := range f.donations {
		if d.CampaignID != campaignID {
			continue
		}
		if first == nil || d.DonatedAt.Before(*first) {
			t := d.DonatedAt
			first = &t
		}
	}
	return first, nil
}

func (f *fakeRepo) FinancialReport(ctx context.Context, campaignID int64) (*domain.FinancialReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[campaignID]
	if !ok {
		return nil, store.ErrCampaignNotFound
	}
	report := domain.FinancialReport{
		CampaignID:      campaignID,
		Goal:            c.Goal,
		TotalDonated:    c.TotalDonated,
		LargestDonation: decimal.Zero,
		AverageDonation: decimal.Zero,
		GeneratedAt:     time.Now().UTC(),
	}
	donors := make(map[int64]bool)
	sum := decimal.Zero
	for _, d := range f.donations {
		if d.CampaignID != campaignID {
			continue
		}
		report.DonationCount++
		donors[d.DonorID] = true
		sum = sum.Add(d.Amount)
		if d.Amount.GreaterThan(report.LargestDonation) {
			report.LargestDonation = d.Amount
		}
	}
	report.UniqueDonors = int64(len(donors))
	if report.DonationCount > 0 {
		report.AverageDonation = sum.Div(decimal.NewFromInt(report.DonationCount))
	}
	return &report, nil
}

func (f *fakeRepo) CountDonationsByDonor(ctx context.Context, donorID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, d := range f.donations {
		if d.DonorID == donorID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) CountDistinctDonationMonths(ctx context.Context, donorID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	months := make(map[string]bool)
	for _, d := range f.donations {
		if d.DonorID == donorID {
			months[d.DonatedAt.UTC().Format("2006-01")] = true
		}
	}
	return int64(len(months)), nil
}

func (f *fakeRepo) CreateVerificationRequest(ctx context.Context, request *domain.VerificationRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[request.CampaignID]
	if !ok {
		return store.ErrCampaignNotFound
	}
	for _, r := range f.requests {
		if r.CampaignID == request.CampaignID && r.ResolvedAt == nil {
			return store.ErrOpenVerificationRequest
		}
	}
	request.ID = f.id()
	request.CreatedAt = time.Now().UTC()
	cp := *request
	f.requests[request.ID] = &cp
	c.Status = domain.StatusNeedVerification
	return nil
}

func (f *fakeRepo) FindOpenVerificationRequest(ctx context.Context, campaignID int64) (*domain.VerificationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.CampaignID == campaignID && r.ResolvedAt == nil {
			cp := *r
			return &cp, nil
		}
	}
	return nil, store.ErrVerificationRequestNotFound
}

func (f *fakeRepo) ResolveVerificationRequest(ctx context.Context, response *domain.EvidenceResponse) (*domain.VerificationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.CampaignID == response.CampaignID && r.ResolvedAt == nil {
			now := time.Now().UTC()
			r.ResolvedAt = &now
			response.ID = f.id()
			response.RequestID = r.ID
			response.CreatedAt = now
			f.evidence = append(f.evidence, *response)
			if c, ok := f.campaigns[response.CampaignID]; ok {
				c.Status = domain.StatusPending
			}
			cp := *r
			return &cp, nil
		}
	}
	return nil, store.ErrVerificationRequestNotFound
}

func (f *fakeRepo) FindBadgeByType(ctx context.Context, badgeType domain.BadgeType) (*domain.Badge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.badges[badgeType]
	if !ok {
		return nil, store.ErrBadgeNotFound
	}
	return &b, nil
}

func (f *fakeRepo) AwardBadge(ctx context.Context, userID, badgeID int64) (*domain.UserBadge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ub := range f.userBadges {
		if ub.UserID == userID && ub.BadgeID == badgeID {
			return nil, nil
		}
	}
	award := domain.UserBadge{
		ID:        f.id(),
		UserID:    userID,
		BadgeID:   badgeID,
		AwardedAt: time.Now().UTC(),
	}
	f.userBadges = append(f.userBadges, award)
	return &award, nil
}

func (f *fakeRepo) FindBadgesByUser(ctx context.Context, userID int64) ([]domain.Badge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Badge
	for _, ub := range f.userBadges {
		if ub.UserID != userID {
			continue
		}
		for _, b := range f.badges {
			if b.ID == ub.BadgeID {
				out = append(out, b)
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateNotification(ctx context.Context, notification *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateNotification != nil {
		return f.failCreateNotification
	}
	notification.ID = f.id()
	notification.CreatedAt = time.Now().UTC()
	f.notifications = append(f.notifications, *notification)
	return nil
}

func (f *fakeRepo) ListNotifications(ctx context.Context, userID int64, opts domain.NotificationListOptions) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Notification
	for _, n := range f.notifications {
		if n.UserID == userID && (!opts.UnreadOnly || !n.Read) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeRepo) MarkNotificationRead(ctx context.Context, userID, notificationID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notifications {
		if f.notifications[i].ID == notificationID && f.notifications[i].UserID == userID {
			f.notifications[i].Read = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) CountUnreadNotifications(ctx context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, n := range f.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) AppendAuditLog(ctx context.Context, entry *domain.AuditLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAppendAudit != nil {
		return f.failAppendAudit
	}
	entry.ID = f.id()
	entry.CreatedAt = time.Now().UTC()
	f.auditLog = append(f.auditLog, *entry)
	return nil
}

func (f *fakeRepo) ListAuditLogByCampaign(ctx context.Context, campaignID int64, limit int) ([]domain.AuditLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AuditLogEntry
	for _, e := range f.auditLog {
		if e.CampaignID == campaignID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepo) FindUserEmail(ctx context.Context, userID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failUserEmail[userID]; ok {
		return "", err
	}
	email, ok := f.emails[userID]
	if !ok {
		return "", store.ErrUserNotFound
	}
	return email, nil
}

func (f *fakeRepo) notificationsFor(userID int64) []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Notification
	for _, n := range f.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// sentMail is one recorded outbound email.
type sentMail struct {
	To          string
	TemplateKey string
	Data        map[string]string
}

type stubMailer struct {
	mu     sync.Mutex
	sent   []sentMail
	fail   error
	failTo map[string]error
}

func (s *stubMailer) Send(ctx context.Context, to, templateKey string, data map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	if err, ok := s.failTo[to]; ok {
		return err
	}
	s.sent = append(s.sent, sentMail{To: to, TemplateKey: templateKey, Data: data})
	return nil
}

func (s *stubMailer) sentTo(to string) []sentMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []sentMail
	for _, m := range s.sent {
		if m.To == to {
			out = append(out, m)
		}
	}
	return out
}

type stubPublisher struct {
	mu     sync.Mutex
	events []domain.NotificationEvent
	fail   error
}

func (s *stubPublisher) PublishNotificationEvent(ctx context.Context, event domain.NotificationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.events = append(s.events, event)
	return nil
}

func (s *stubPublisher) Close() {}

type stubPrices struct {
	prices map[string]decimal.Decimal
	err    error
}

func (s *stubPrices) GetPrice(ctx context.Context, tokenSymbol string) (decimal.Decimal, error) {
	if s.err != nil {
		return decimal.Zero, s.err
	}
	price, ok := s.prices[tokenSymbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("no price for %s", tokenSymbol)
	}
	return price, nil
}

type fixture struct {
	repo      *fakeRepo
	mailer    *stubMailer
	publisher *stubPublisher
	prices    *stubPrices
	service   *Service
	jobs      *Jobs
	badges    *BadgeEngine
}

const testMilestoneThreshold = 1000000

func newFixture() *fixture {
	repo := newFakeRepo()
	repo.seedBadges()
	mailer := &stubMailer{failTo: map[string]error{}}
	publisher := &stubPublisher{}
	prices := &stubPrices{prices: map[string]decimal.Decimal{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New(prometheus.NewRegistry())

	dispatcher := NewDispatcher(repo, publisher, mailer, m, logger)
	badges := NewBadgeEngine(repo, prices, dispatcher, testMilestoneThreshold, m, logger)
	service := NewService(repo, dispatcher, badges, m, logger)
	jobs := NewJobs(repo, dispatcher, 24, m, logger)

	return &fixture{
		repo:      repo,
		mailer:    mailer,
		publisher: publisher,
		prices:    prices,
		service:   service,
		jobs:      jobs,
		badges:    badges,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
