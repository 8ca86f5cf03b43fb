// Package console holds the support console state and every operation on it:
// sheet sync, navigation, local edits, exports, login and materials.
package console

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kazukitoyoda1215-max/Supporton/internal/apperr"
	"github.com/kazukitoyoda1215-max/Supporton/internal/directory"
	"github.com/kazukitoyoda1215-max/Supporton/internal/flow"
	"github.com/kazukitoyoda1215-max/Supporton/internal/models"
	"github.com/kazukitoyoda1215-max/Supporton/internal/storage"
	"github.com/kazukitoyoda1215-max/Supporton/internal/store"
	"github.com/kazukitoyoda1215-max/Supporton/internal/tabular"
)

// Source fetches sheet contents. *sheets.Fetcher satisfies it.
type Source interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
	FetchRecords(ctx context.Context, source string) ([]tabular.Record, error)
	FetchCell(ctx context.Context, source string) (string, error)
}

// Publisher receives change notifications. *sse.Broker satisfies it.
type Publisher interface {
	PublishChange(resource, kind string, data any)
}

type nopPublisher struct{}

func (nopPublisher) PublishChange(string, string, any) {}

// Service coordinates state transitions, persistence and sheet sync.
type Service struct {
	store     store.Store
	source    Source
	mirror    storage.Provider
	publisher Publisher
	logger    *slog.Logger
	auth      AuthOptions
	materials Materials
	now       func() time.Time

	gen atomic.Uint64

	mu       sync.RWMutex
	state    State
	mirrored map[string]string // snapshot name -> checksum last written
}

// Option configures a Service.
type Option func(*Service)

// WithMirror writes a CSV snapshot of each synced resource to p.
func WithMirror(p storage.Provider) Option {
	return func(s *Service) { s.mirror = p }
}

// WithPublisher sets the change notification sink.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithAuth configures shared-password login.
func WithAuth(a AuthOptions) Option {
	return func(s *Service) { s.auth = a }
}

// WithMaterials sets the document catalog.
func WithMaterials(m Materials) Option {
	return func(s *Service) { s.materials = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a console service. Call Load before serving.
func NewService(st store.Store, src Source, opts ...Option) *Service {
	s := &Service{
		store:     st,
		source:    src,
		publisher: nopPublisher{},
		logger:    slog.Default(),
		now:       time.Now,
		mirrored:  make(map[string]string),
		state: State{
			Tree:   models.NewRoot(),
			Phones: []models.PhoneEntry{},
		},
	}
	for _, o := range opts {
		o(s)
	}
	if s.auth.TTL <= 0 {
		s.auth.TTL = defaultSessionTTL
	}
	return s
}

// Load restores persisted state. On first launch seed becomes the stored
// configuration. In remote mode the seed phone list is shown until the first
// sync lands; otherwise locally saved data (or the seeds) is used.
func (s *Service) Load(ctx context.Context, seed models.AppConfig) error {
	cfg, err := s.store.LoadConfig()
	if err != nil {
		return fmt.Errorf("console: load config: %w", err)
	}
	if cfg == nil {
		cfg = &seed
	}

	remote := cfg.RemoteFlow()
	tree, phones := models.NewRoot(), directory.Seed()
	if !remote {
		stored, err := s.store.LoadFlow()
		if err != nil {
			return fmt.Errorf("console: load flow: %w", err)
		}
		if stored != nil {
			tree = stored
		}
		storedPhones, err := s.store.LoadPhones()
		if err != nil {
			return fmt.Errorf("console: load phones: %w", err)
		}
		if storedPhones != nil {
			phones = storedPhones
		}
	}

	if _, err := s.dispatch(boot(*cfg, tree, phones)); err != nil {
		return err
	}
	s.logger.Info("console loaded",
		slog.Bool("remote", remote),
		slog.Int("phones", len(phones)),
	)

	if remote {
		report, err := s.Sync(ctx)
		if err != nil {
			return err
		}
		report.log(s.logger)
	}
	return nil
}

// dispatch applies t under the write lock, persists what changed and
// publishes one event per changed resource. A failing transition or
// persistence error leaves the state untouched.
func (s *Service) dispatch(t transition) (State, error) {
	s.mu.Lock()
	prev := s.state
	next, err := t.apply(prev)
	if err != nil {
		s.mu.Unlock()
		return prev, err
	}
	if err := s.persist(prev, next); err != nil {
		s.mu.Unlock()
		return prev, fmt.Errorf("console: %s: %w", t.name, err)
	}
	s.state = next
	s.mu.Unlock()

	s.logger.Debug("transition", slog.String("name", t.name))
	if next.ConfigRev != prev.ConfigRev {
		s.publisher.PublishChange("config", t.kind, Change{Revision: next.ConfigRev})
	}
	if next.FlowRev != prev.FlowRev {
		s.publisher.PublishChange("flow", t.kind, Change{Revision: next.FlowRev, Generation: next.FlowGen})
	}
	if next.PhonesRev != prev.PhonesRev {
		s.publisher.PublishChange("phones", t.kind, Change{
			Revision: next.PhonesRev, Generation: next.PhonesGen, Count: len(next.Phones),
		})
	}
	return next, nil
}

// persist saves the configuration on every change. Flow and phones are only
// persisted in local mode; in remote mode the sheet is the source of truth.
func (s *Service) persist(prev, next State) error {
	if next.ConfigRev != prev.ConfigRev {
		if err := s.store.SaveConfig(next.Config); err != nil {
			return err
		}
	}
	if next.Config.UseGoogleSheets {
		return nil
	}
	// Leaving spreadsheet mode keeps the synced data as the local baseline.
	leftRemote := prev.Config.UseGoogleSheets
	if next.FlowRev != prev.FlowRev || leftRemote {
		if err := s.store.SaveFlow(next.Tree); err != nil {
			return err
		}
	}
	if next.PhonesRev != prev.PhonesRev || leftRemote {
		if err := s.store.SavePhones(next.Phones); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Config returns the current configuration.
func (s *Service) Config() models.AppConfig {
	return s.snapshot().Config
}

// Tree returns the installed tree. It must not be modified.
func (s *Service) Tree() *models.FlowNode {
	return s.snapshot().Tree
}

// NodeView is a resolved navigation position.
type NodeView struct {
	Node        *models.FlowNode   `json:"node"`
	Breadcrumbs []*models.FlowNode `json:"breadcrumbs"`
}

// Node resolves path from the root. An empty path yields the root.
func (s *Service) Node(path []string) (*NodeView, error) {
	tree := s.Tree()
	n := flow.Resolve(tree, path)
	if n == nil {
		return nil, fmt.Errorf("console: node %v: %w", path, apperr.ErrNotFound)
	}
	crumbs := flow.Breadcrumbs(tree, path)
	if crumbs == nil {
		crumbs = []*models.FlowNode{}
	}
	return &NodeView{Node: n, Breadcrumbs: crumbs}, nil
}

// SearchFlow fuzzy-matches node titles.
func (s *Service) SearchFlow(query string) []flow.Match {
	return flow.Search(s.Tree(), query)
}

// ExportFlowCSV renders the tree as CSV.
func (s *Service) ExportFlowCSV() ([]byte, error) {
	return flow.ExportCSV(s.Tree())
}

// Phones returns entries matching query. The result must not be modified.
func (s *Service) Phones(query string) []models.PhoneEntry {
	return directory.Filter(s.snapshot().Phones, query)
}

// ExportPhonesCSV renders the directory as CSV.
func (s *Service) ExportPhonesCSV() ([]byte, error) {
	return directory.ExportCSV(s.snapshot().Phones)
}

// AddChild appends a new node under the node at path. Local mode only.
func (s *Service) AddChild(path []string, title string) (*models.FlowNode, error) {
	var added *models.FlowNode
	if _, err := s.dispatch(addChild(path, uuid.NewString(), title, &added)); err != nil {
		return nil, err
	}
	return added, nil
}

// SaveContent replaces the body and template of the node at path. Local mode only.
func (s *Service) SaveContent(path []string, content, template string) error {
	_, err := s.dispatch(setContent(path, content, template))
	return err
}

// DeleteChild removes childID from parentID's children. Local mode only.
func (s *Service) DeleteChild(parentID, childID string) error {
	_, err := s.dispatch(deleteChild(parentID, childID))
	return err
}

// AddPhone stores a new directory entry with a fresh id. Local mode only.
func (s *Service) AddPhone(e models.PhoneEntry) (*models.PhoneEntry, error) {
	e.ID = uuid.NewString()
	if e.Type == "" {
		e.Type = models.PhoneSafe
	}
	if _, err := s.dispatch(addPhone(e)); err != nil {
		return nil, err
	}
	return &e, nil
}

// DeletePhone removes a directory entry. Local mode only.
func (s *Service) DeletePhone(id string) error {
	_, err := s.dispatch(deletePhone(id))
	return err
}

// Snapshots lists mirrored sheet snapshots.
func (s *Service) Snapshots() ([]models.SnapshotMeta, error) {
	if s.mirror == nil {
		return []models.SnapshotMeta{}, nil
	}
	return s.mirror.List()
}
