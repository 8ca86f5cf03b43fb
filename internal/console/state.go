package console

import (
	"errors"
	"fmt"
	"slices"

	"github.com/kazukitoyoda1215-max/Supporton/internal/apperr"
	"github.com/kazukitoyoda1215-max/Supporton/internal/directory"
	"github.com/kazukitoyoda1215-max/Supporton/internal/flow"
	"github.com/kazukitoyoda1215-max/Supporton/internal/models"
)

// errStale is returned by sync installs superseded by a later-started sync.
var errStale = errors.New("console: superseded by a newer sync")

// State is the whole console state. Values are replaced, never mutated: a
// Tree or Phones slice held by a reader stays valid after later transitions.
type State struct {
	Config models.AppConfig
	Tree   *models.FlowNode
	Phones []models.PhoneEntry

	// Revisions bump whenever the matching field changes.
	ConfigRev uint64
	FlowRev   uint64
	PhonesRev uint64

	// Generations of the syncs whose results are installed.
	FlowGen   uint64
	PhonesGen uint64
}

// transition is one named state change.
type transition struct {
	name  string
	kind  string // event kind published for each changed resource
	apply func(State) (State, error)
}

func editable(s State) error {
	if s.Config.UseGoogleSheets {
		return apperr.ErrReadOnly
	}
	return nil
}

func boot(cfg models.AppConfig, tree *models.FlowNode, phones []models.PhoneEntry) transition {
	return transition{name: "boot", kind: "loaded", apply: func(s State) (State, error) {
		s.Config = cfg
		s.Tree = tree
		s.Phones = phones
		s.ConfigRev++
		s.FlowRev++
		s.PhonesRev++
		return s, nil
	}}
}

func setConfig(cfg models.AppConfig) transition {
	return transition{name: "set_config", kind: "updated", apply: func(s State) (State, error) {
		s.Config = cfg
		s.ConfigRev++
		return s, nil
	}}
}

func installSyncedFlow(gen uint64, root *models.FlowNode) transition {
	return transition{name: "install_flow", kind: "synced", apply: func(s State) (State, error) {
		if gen < s.FlowGen {
			return s, errStale
		}
		s.Tree = root
		s.FlowGen = gen
		s.FlowRev++
		return s, nil
	}}
}

func installSyncedPhones(gen uint64, phones []models.PhoneEntry) transition {
	return transition{name: "install_phones", kind: "synced", apply: func(s State) (State, error) {
		if gen < s.PhonesGen {
			return s, errStale
		}
		s.Phones = phones
		s.PhonesGen = gen
		s.PhonesRev++
		return s, nil
	}}
}

func addChild(path []string, id, title string, added **models.FlowNode) transition {
	return transition{name: "add_child", kind: "updated", apply: func(s State) (State, error) {
		if err := editable(s); err != nil {
			return s, err
		}
		root, node, err := flow.AddChild(s.Tree, path, id, title)
		if err != nil {
			return s, err
		}
		*added = node
		s.Tree = root
		s.FlowRev++
		return s, nil
	}}
}

func setContent(path []string, content, template string) transition {
	return transition{name: "set_content", kind: "updated", apply: func(s State) (State, error) {
		if err := editable(s); err != nil {
			return s, err
		}
		root, err := flow.SetContent(s.Tree, path, content, template)
		if err != nil {
			return s, err
		}
		s.Tree = root
		s.FlowRev++
		return s, nil
	}}
}

func deleteChild(parentID, childID string) transition {
	return transition{name: "delete_child", kind: "updated", apply: func(s State) (State, error) {
		if err := editable(s); err != nil {
			return s, err
		}
		root, err := flow.DeleteChild(s.Tree, parentID, childID)
		if err != nil {
			return s, err
		}
		s.Tree = root
		s.FlowRev++
		return s, nil
	}}
}

func addPhone(e models.PhoneEntry) transition {
	return transition{name: "add_phone", kind: "updated", apply: func(s State) (State, error) {
		if err := editable(s); err != nil {
			return s, err
		}
		if err := directory.Validate(e); err != nil {
			return s, fmt.Errorf("console: add phone: %v: %w", err, apperr.ErrInvalid)
		}
		if slices.ContainsFunc(s.Phones, func(p models.PhoneEntry) bool { return p.ID == e.ID }) {
			return s, fmt.Errorf("console: add phone %q: %w", e.ID, apperr.ErrAlreadyExists)
		}
		next := make([]models.PhoneEntry, 0, len(s.Phones)+1)
		s.Phones = append(append(next, s.Phones...), e)
		s.PhonesRev++
		return s, nil
	}}
}

func deletePhone(id string) transition {
	return transition{name: "delete_phone", kind: "updated", apply: func(s State) (State, error) {
		if err := editable(s); err != nil {
			return s, err
		}
		next := slices.DeleteFunc(slices.Clone(s.Phones), func(p models.PhoneEntry) bool { return p.ID == id })
		if len(next) == len(s.Phones) {
			return s, fmt.Errorf("console: delete phone %q: %w", id, apperr.ErrNotFound)
		}
		s.Phones = next
		s.PhonesRev++
		return s, nil
	}}
}
