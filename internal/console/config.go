package console

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/kazukitoyoda1215-max/Supporton/internal/apperr"
	"github.com/kazukitoyoda1215-max/Supporton/internal/models"
	"github.com/kazukitoyoda1215-max/Supporton/internal/sheets"
)

// sheetSource accepts an http(s) URL or a local file path.
var sheetSource = validation.By(func(v any) error {
	s, _ := v.(string)
	if s == "" || sheets.IsLocal(s) {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return errors.New("must be an http(s) URL or a file path")
	}
	return nil
})

func validateConfig(cfg models.AppConfig) error {
	return validation.ValidateStruct(&cfg,
		validation.Field(&cfg.FlowSheetURL, sheetSource),
		validation.Field(&cfg.FlowConfigSheetURL, sheetSource),
		validation.Field(&cfg.PhoneSheetURL, sheetSource),
	)
}

// SaveConfig validates and stores cfg. When spreadsheet mode is on a sync
// runs immediately and its report is returned.
func (s *Service) SaveConfig(ctx context.Context, cfg models.AppConfig) (*SyncReport, error) {
	cfg.FlowSheetURL = strings.TrimSpace(cfg.FlowSheetURL)
	cfg.FlowConfigSheetURL = strings.TrimSpace(cfg.FlowConfigSheetURL)
	cfg.PhoneSheetURL = strings.TrimSpace(cfg.PhoneSheetURL)
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("console: config: %v: %w", err, apperr.ErrInvalid)
	}
	if _, err := s.dispatch(setConfig(cfg)); err != nil {
		return nil, err
	}
	if !cfg.UseGoogleSheets {
		return nil, nil
	}
	return s.Sync(ctx)
}
