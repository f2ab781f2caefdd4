package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownModel is returned by LookupModel for labels that name no model.
var ErrUnknownModel = errors.New("unknown model")

// Models lists the options of every model the application serves.
func Models() []*Meta {
	return []*Meta{bookmarkMeta, documentMeta}
}

// LookupModel finds a model by its "<app label>.<ObjectName>" label. The model part
// is matched case-insensitively.
func LookupModel(label string) (*Meta, error) {
	app, name, ok := strings.Cut(label, ".")
	if !ok || app == "" || name == "" {
		return nil, fmt.Errorf("%q is not of the form app.Model: %w", label, ErrUnknownModel)
	}
	for _, m := range Models() {
		if m.AppLabel == app && strings.EqualFold(m.ObjectName, name) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", label, ErrUnknownModel)
}
