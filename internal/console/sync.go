package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/kazukitoyoda1215-max/Supporton/internal/apperr"
	"github.com/kazukitoyoda1215-max/Supporton/internal/checksum"
	"github.com/kazukitoyoda1215-max/Supporton/internal/directory"
	"github.com/kazukitoyoda1215-max/Supporton/internal/flow"
	"github.com/kazukitoyoda1215-max/Supporton/internal/labels"
	"github.com/kazukitoyoda1215-max/Supporton/internal/sheets"
	"github.com/kazukitoyoda1215-max/Supporton/internal/tabular"
)

// Mirror snapshot names.
const (
	FlowSnapshot   = "flow.csv"
	PhonesSnapshot = "phones.csv"
)

// ResourceReport is the outcome of syncing one sheet.
type ResourceReport struct {
	Attempted bool           `json:"attempted"`
	Installed bool           `json:"installed"`
	Stale     bool           `json:"stale,omitempty"`
	Count     int            `json:"count"`
	Checksum  string         `json:"checksum,omitempty"`
	Warnings  []flow.Warning `json:"warnings,omitempty"`
	Error     string         `json:"error,omitempty"`
	Hint      string         `json:"hint,omitempty"`

	err error
}

// Err returns the failure, if any.
func (r ResourceReport) Err() error { return r.err }

// SyncReport is the outcome of one Sync call. Each resource succeeds or fails
// on its own; a failed resource keeps its previous contents.
type SyncReport struct {
	Generation uint64         `json:"generation"`
	Flow       ResourceReport `json:"flow"`
	Phones     ResourceReport `json:"phones"`
}

// Failed reports whether any attempted resource failed.
func (r *SyncReport) Failed() bool {
	return r.Flow.err != nil || r.Phones.err != nil
}

func (r *SyncReport) log(logger *slog.Logger) {
	for name, rr := range map[string]ResourceReport{"flow": r.Flow, "phones": r.Phones} {
		if !rr.Attempted {
			continue
		}
		if rr.err != nil {
			logger.Error("sync failed",
				slog.String("resource", name),
				slog.String("error", rr.Error),
				slog.String("hint", rr.Hint),
			)
			continue
		}
		logger.Info("sync done",
			slog.String("resource", name),
			slog.Bool("installed", rr.Installed),
			slog.Int("count", rr.Count),
			slog.String("checksum", rr.Checksum),
		)
	}
}

// Hint returns operator guidance for a sync failure.
func Hint(err error) string {
	switch {
	case errors.Is(err, flow.ErrAmbiguousParent):
		return "親カテゴリとして参照するタイトルはシート内で一意にしてください。"
	case errors.Is(err, sheets.ErrFormat):
		return "シートが「ウェブに公開」されCSV形式で出力されているか、URLのgidが正しいか確認してください。"
	case errors.Is(err, sheets.ErrTransport):
		return "ネットワーク接続と設定画面のURLを確認してください。"
	default:
		return ""
	}
}

// Sync fetches the flow and phone sheets concurrently and installs each one
// that decodes cleanly. Results of a sync overtaken by a later-started sync
// are dropped.
func (s *Service) Sync(ctx context.Context) (*SyncReport, error) {
	cfg := s.Config()
	if !cfg.UseGoogleSheets {
		return nil, fmt.Errorf("console: sync: spreadsheet mode is off: %w", apperr.ErrInvalid)
	}
	gen := s.gen.Add(1)
	report := &SyncReport{Generation: gen}

	var g errgroup.Group
	if cfg.FlowSheetURL != "" {
		g.Go(func() error {
			report.Flow = s.syncFlow(ctx, gen, cfg.FlowSheetURL, cfg.FlowConfigSheetURL)
			return nil
		})
	}
	if cfg.PhoneSheetURL != "" {
		g.Go(func() error {
			report.Phones = s.syncPhones(ctx, gen, cfg.PhoneSheetURL)
			return nil
		})
	}
	_ = g.Wait()

	s.publishSyncStatus(report)
	return report, nil
}

func (s *Service) syncFlow(ctx context.Context, gen uint64, source, labelSource string) ResourceReport {
	rep := ResourceReport{Attempted: true}
	data, err := s.source.Fetch(ctx, source)
	if err != nil {
		return failed(rep, err)
	}
	records, err := tabular.Decode(data)
	if err != nil {
		return failed(rep, fmt.Errorf("%w: %v", sheets.ErrFormat, err))
	}
	res, err := flow.Build(flow.RowsFromRecords(records), s.labelMapping(ctx, labelSource))
	if err != nil {
		return failed(rep, err)
	}
	for _, w := range res.Warnings {
		s.logger.Warn("flow row", slog.String("warning", w.String()))
	}
	rep.Count = res.Nodes
	rep.Warnings = res.Warnings
	rep.Checksum = checksum.Short(data)

	if err := s.install(installSyncedFlow(gen, res.Root), &rep); err != nil {
		return failed(rep, err)
	}
	if rep.Installed {
		s.writeMirror(FlowSnapshot, data)
	}
	return rep
}

func (s *Service) syncPhones(ctx context.Context, gen uint64, source string) ResourceReport {
	rep := ResourceReport{Attempted: true}
	data, err := s.source.Fetch(ctx, source)
	if err != nil {
		return failed(rep, err)
	}
	records, err := tabular.Decode(data)
	if err != nil {
		return failed(rep, fmt.Errorf("%w: %v", sheets.ErrFormat, err))
	}
	if len(records) == 0 {
		return failed(rep, fmt.Errorf("%w: phone sheet has no rows", sheets.ErrFormat))
	}
	phones := directory.FromRecords(records, s.now())
	rep.Count = len(phones)
	rep.Checksum = checksum.Short(data)

	if err := s.install(installSyncedPhones(gen, phones), &rep); err != nil {
		return failed(rep, err)
	}
	if rep.Installed {
		s.writeMirror(PhonesSnapshot, data)
	}
	return rep
}

func (s *Service) install(t transition, rep *ResourceReport) error {
	_, err := s.dispatch(t)
	switch {
	case errors.Is(err, errStale):
		rep.Stale = true
		s.logger.Info("sync result superseded", slog.String("transition", t.name))
		return nil
	case err != nil:
		return err
	}
	rep.Installed = true
	return nil
}

// labelMapping fetches the label sheet. Any failure falls back to the
// built-in mapping.
func (s *Service) labelMapping(ctx context.Context, source string) labels.Mapping {
	if source == "" {
		return labels.Defaults()
	}
	records, err := s.source.FetchRecords(ctx, source)
	if err != nil {
		s.logger.Warn("label sheet unavailable, using defaults", slog.String("error", err.Error()))
		return labels.Defaults()
	}
	return labels.Resolve(records)
}

// writeMirror stores a snapshot unless its content is unchanged since the
// last write. Mirror failures never fail a sync.
func (s *Service) writeMirror(name string, data []byte) {
	if s.mirror == nil {
		return
	}
	sum := checksum.Sum(data)
	s.mu.Lock()
	unchanged := s.mirrored[name] == sum
	s.mu.Unlock()
	if unchanged {
		return
	}
	if err := s.mirror.Write(name, data); err != nil {
		s.logger.Warn("mirror write failed", slog.String("name", name), slog.String("error", err.Error()))
		return
	}
	s.mu.Lock()
	s.mirrored[name] = sum
	s.mu.Unlock()
}

func failed(rep ResourceReport, err error) ResourceReport {
	rep.err = err
	rep.Error = err.Error()
	rep.Hint = Hint(err)
	return rep
}
