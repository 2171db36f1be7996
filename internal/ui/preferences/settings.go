package preferences

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gookit/validate"
)

// Store is the persistent settings backend.
type Store interface {
	LogDir() string
	LogName() string
	Persist() bool
	DateFormat() string
	DecimalDuration() bool
	Focus() (int, bool)

	SetLogDir(dir string) error
	SetLogName(name string) error
	SetPersist(persist bool) error
	SetDateFormat(layout string) error
	SetDecimalDuration(decimal bool) error
	SetFocus(interval int, randomize bool) error
}

// Settings defines editable user preferences.
type Settings struct {
	LogDir          string `validate:"required"`
	LogName         string `validate:"required"`
	Persist         bool
	DateFormat      string `validate:"required"`
	DecimalDuration bool
	FocusInterval   int `validate:"min:0"`
	FocusRandomize  bool
}

// Result reports what Apply changed.
type Result struct {
	LogPathChanged bool
	FocusChanged   bool
}

// FromStore reads the current preferences.
func FromStore(store Store) Settings {
	interval, randomize := store.Focus()
	return Settings{
		LogDir:          store.LogDir(),
		LogName:         store.LogName(),
		Persist:         store.Persist(),
		DateFormat:      store.DateFormat(),
		DecimalDuration: store.DecimalDuration(),
		FocusInterval:   interval,
		FocusRandomize:  randomize,
	}
}

// Validate checks the values before they are written.
func (settings Settings) Validate() error {
	v := validate.Struct(&settings)
	if !v.Validate() {
		return errors.New(v.Errors.One())
	}
	if filepath.Base(settings.LogName) != settings.LogName {
		return fmt.Errorf("log name %q must not contain a directory", settings.LogName)
	}
	return nil
}

// Apply writes the values that differ from the store. Every change is
// attempted even when an earlier one fails.
func (settings Settings) Apply(store Store) (Result, error) {
	if err := settings.Validate(); err != nil {
		return Result{}, err
	}

	current := FromStore(store)
	var (
		result Result
		errs   []error
	)

	if filepath.Clean(settings.LogDir) != current.LogDir {
		errs = append(errs, store.SetLogDir(settings.LogDir))
		result.LogPathChanged = true
	}
	if settings.LogName != current.LogName {
		errs = append(errs, store.SetLogName(settings.LogName))
		result.LogPathChanged = true
	}
	if settings.Persist != current.Persist {
		errs = append(errs, store.SetPersist(settings.Persist))
	}
	if settings.DateFormat != current.DateFormat {
		errs = append(errs, store.SetDateFormat(settings.DateFormat))
	}
	if settings.DecimalDuration != current.DecimalDuration {
		errs = append(errs, store.SetDecimalDuration(settings.DecimalDuration))
	}
	if settings.FocusInterval != current.FocusInterval || settings.FocusRandomize != current.FocusRandomize {
		errs = append(errs, store.SetFocus(settings.FocusInterval, settings.FocusRandomize))
		result.FocusChanged = true
	}

	return result, errors.Join(errs...)
}
