package services

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"catalog-ingestion-service/internal/ingest"
	"catalog-ingestion-service/internal/models"
)

// BatchSession is the in-memory working set of one ingestion batch: the
// classified staged products plus the parse reports. It is transient by
// design; the external catalog stays the system of record and the session is
// discarded once it expires.
type BatchSession struct {
	ID           uuid.UUID
	TenantID     string
	ManifestName string
	Format       models.ManifestFormat
	ValidateOnly bool

	TotalRows    int
	DroppedRows  int
	RowErrors    []models.IngestRowError
	IgnoredFiles []models.IgnoredFile

	CreatedAt time.Time

	mu       sync.RWMutex
	products map[string]*models.StagedProduct
	order    []string // SKUs in ascending order, fixed at verification
	running  bool
	summary  *models.ProcessSummary
}

// newBatchSession builds a session from classified products. The products
// slice is expected to be sorted by SKU already.
func newBatchSession(tenantID string, products []models.StagedProduct) *BatchSession {
	session := &BatchSession{
		ID:        uuid.New(),
		TenantID:  tenantID,
		CreatedAt: time.Now(),
		products:  make(map[string]*models.StagedProduct, len(products)),
		order:     make([]string, 0, len(products)),
	}
	for i := range products {
		p := products[i]
		session.products[p.SKU] = &p
		session.order = append(session.order, p.SKU)
	}
	return session
}

// Products returns a snapshot copy of the staged products in display order.
func (s *BatchSession) Products() []models.StagedProduct {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.StagedProduct, 0, len(s.order))
	for _, sku := range s.order {
		out = append(out, *s.products[sku])
	}
	return out
}

// Summary returns the last orchestrator summary, nil before any run.
func (s *BatchSession) Summary() *models.ProcessSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return nil
	}
	out := *s.summary
	return &out
}

// Running reports whether an orchestrator run is in flight for this batch.
func (s *BatchSession) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// tryStartRun flips the batch-level run guard. A second concurrent trigger
// gets false and must not start another run.
func (s *BatchSession) tryStartRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *BatchSession) finishRun(summary models.ProcessSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.summary = &summary
}

// resetFailed moves errored products back to pending so a re-run picks them
// up. Completed products are never reset.
func (s *BatchSession) resetFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.ProcessingStatus == models.ProcessingError {
			p.ProcessingStatus = models.ProcessingPending
			p.ProcessingMessage = ""
			p.Progress = 0
		}
	}
}

// tryBeginProcessing is the SKU-keyed re-entrancy guard: it transitions a
// product to processing only when it is verified ready and still pending,
// exactly once per run.
func (s *BatchSession) tryBeginProcessing(sku string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[sku]
	if !ok {
		return false
	}
	if p.VerificationStatus != models.VerificationReady || p.ProcessingStatus != models.ProcessingPending {
		return false
	}
	p.ProcessingStatus = models.ProcessingInProgress
	p.ProcessingMessage = ""
	p.Progress = 0
	return true
}

// updateProgress sets the transient UI-facing progress fields of a product.
func (s *BatchSession) updateProgress(sku string, progress int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[sku]; ok {
		p.Progress = progress
		p.ProcessingMessage = message
	}
}

// finishCompleted marks a product's pipeline as successfully finished.
func (s *BatchSession) finishCompleted(sku, remoteID, remoteURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[sku]; ok {
		p.ProcessingStatus = models.ProcessingCompleted
		p.ProcessingMessage = "created"
		p.Progress = 100
		p.RemoteID = remoteID
		p.RemoteURL = remoteURL
	}
}

// finishError marks a product's pipeline as failed with the captured message.
func (s *BatchSession) finishError(sku, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[sku]; ok {
		p.ProcessingStatus = models.ProcessingError
		p.ProcessingMessage = message
	}
}

// row returns the manifest row of a product as an ingest.Row for typed
// column access during payload construction.
func (s *BatchSession) row(sku string) ingest.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.products[sku]; ok {
		return ingest.Row(p.CSVData)
	}
	return ingest.Row{}
}

func (s *BatchSession) product(sku string) *models.StagedProduct {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products[sku]
}

// DefaultSessionTTL bounds how long a verified batch stays addressable.
const DefaultSessionTTL = 2 * time.Hour

// BatchStore holds the live batch sessions, keyed by batch ID. Sessions
// expire after a TTL; expired sessions are purged lazily on access.
type BatchStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*BatchSession
	ttl      time.Duration
}

// NewBatchStore creates a session store with the given TTL (DefaultSessionTTL
// when zero).
func NewBatchStore(ttl time.Duration) *BatchStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &BatchStore{
		sessions: make(map[uuid.UUID]*BatchSession),
		ttl:      ttl,
	}
}

// Create registers a new session for the classified products.
func (st *BatchStore) Create(tenantID string, products []models.StagedProduct) *BatchSession {
	session := newBatchSession(tenantID, products)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.purgeExpiredLocked()
	st.sessions[session.ID] = session
	return session
}

// Get returns the session for a batch ID, scoped to the tenant that created
// it. Returns nil when unknown, expired, or owned by another tenant.
func (st *BatchStore) Get(id uuid.UUID, tenantID string) *BatchSession {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.purgeExpiredLocked()
	session, ok := st.sessions[id]
	if !ok || session.TenantID != tenantID {
		return nil
	}
	return session
}

// List returns the live sessions of a tenant, newest first.
func (st *BatchStore) List(tenantID string) []*BatchSession {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.purgeExpiredLocked()

	var out []*BatchSession
	for _, session := range st.sessions {
		if session.TenantID == tenantID {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (st *BatchStore) purgeExpiredLocked() {
	cutoff := time.Now().Add(-st.ttl)
	for id, session := range st.sessions {
		if session.CreatedAt.Before(cutoff) && !session.Running() {
			delete(st.sessions, id)
		}
	}
}
