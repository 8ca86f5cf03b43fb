package store

import (
	"time"

	"github.com/kazukitoyoda1215-max/Supporton/internal/models"
)

// Namespaced keys for persisted console state. The suffix is bumped whenever
// the stored shape changes so stale data is ignored rather than misread.
const (
	KeyConfig = "appConfig_v7"
	KeyFlow   = "supportAppData_v25"
	KeyPhones = "supportAppPhoneData_v7"
)

// Store defines the persistence operations the console depends on.
// Consumers should depend on this interface rather than the concrete *DB type;
// the raw key/value methods stay on *DB.
type Store interface {
	LoadConfig() (*models.AppConfig, error)
	SaveConfig(cfg models.AppConfig) error
	LoadFlow() (*models.FlowNode, error)
	SaveFlow(root *models.FlowNode) error
	LoadPhones() ([]models.PhoneEntry, error)
	SavePhones(entries []models.PhoneEntry) error

	CreateSession(token string, expiresAt time.Time) error
	SessionValid(token string, now time.Time) (bool, error)
	DeleteSession(token string) error
	PurgeSessions(now time.Time) (int64, error)
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
