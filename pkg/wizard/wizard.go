// Package wizard holds the asset metadata wizard session and its step state
// machine.
//
// A session walks a fixed forward order (asset class, instrument type,
// metadata form, preview) with one conditional skip: a class with exactly
// one instrument type auto-assigns it and jumps straight to the form.
// Backward navigation mirrors the skip. The session is owned exclusively by
// the service that created it; all mutation goes through the methods here.
package wizard

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tokenforge/wizard-middleware/pkg/asset"
	"github.com/tokenforge/wizard-middleware/pkg/metadata"
)

// Step is one of the four wizard stages.
type Step string

const (
	StepAssetClass     Step = "asset_class"
	StepInstrumentType Step = "instrument_type"
	StepMetadataForm   Step = "metadata_form"
	StepPreview        Step = "preview"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var (
	ErrInvalidTransition = errors.New("transition not allowed from current step")
	ErrUnknownAssetClass = errors.New("unknown asset class")
	ErrNoInstrumentTypes = errors.New("asset class has no instrument types")
	ErrUnknownInstrument = errors.New("instrument type not offered by asset class")
	ErrSessionClosed     = errors.New("wizard session is not active")
	ErrEmptyFormData     = errors.New("form data must have at least one field")
)

// Router is the narrow routing-table seam the state machine needs.
type Router interface {
	InstrumentTypes(class asset.Class) []asset.InstrumentOption
	HasMultipleTypes(class asset.Class) bool
}

// Session is the accumulated wizard state for one run. FormData is the
// authoritative form payload: every update replaces it whole, never a delta.
type Session struct {
	ID             uuid.UUID
	Step           Step
	Status         Status
	AssetClass     asset.Class
	InstrumentType string
	FormData       map[string]any
	Metadata       *metadata.Result
	Generating     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewSession starts a fresh session on the asset-class step.
func NewSession() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.New(),
		Step:      StepAssetClass,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) touch() { s.UpdatedAt = time.Now().UTC() }

func (s *Session) active() error {
	if s.Status != StatusActive {
		return fmt.Errorf("%w: %s", ErrSessionClosed, s.Status)
	}
	return nil
}

// SelectAssetClass records the class choice and advances. Classes with a
// single instrument type auto-assign it and skip the instrument-type step;
// classes with none are rejected and the step does not move. Any previous
// downstream state (instrument type, form data, metadata) is cleared so a
// prior class cannot leak into a new generation.
func (s *Session) SelectAssetClass(r Router, class asset.Class) error {
	if err := s.active(); err != nil {
		return err
	}
	if s.Step != StepAssetClass {
		return fmt.Errorf("%w: select asset class on %s", ErrInvalidTransition, s.Step)
	}
	if !class.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownAssetClass, class)
	}

	options := r.InstrumentTypes(class)
	if len(options) == 0 {
		return fmt.Errorf("%w: %s", ErrNoInstrumentTypes, class)
	}

	s.AssetClass = class
	s.InstrumentType = ""
	s.FormData = nil
	s.Metadata = nil

	if len(options) == 1 {
		s.InstrumentType = options[0].Value
		s.Step = StepMetadataForm
	} else {
		s.Step = StepInstrumentType
	}
	s.touch()
	return nil
}

// SelectInstrumentType records the type choice and moves to the form step.
func (s *Session) SelectInstrumentType(r Router, value string) error {
	if err := s.active(); err != nil {
		return err
	}
	if s.Step != StepInstrumentType {
		return fmt.Errorf("%w: select instrument type on %s", ErrInvalidTransition, s.Step)
	}
	for _, opt := range r.InstrumentTypes(s.AssetClass) {
		if opt.Value == value {
			s.InstrumentType = value
			s.Step = StepMetadataForm
			s.touch()
			return nil
		}
	}
	return fmt.Errorf("%w: %q for class %s", ErrUnknownInstrument, value, s.AssetClass)
}

// SetFormData replaces the form payload. Any previously generated metadata is
// discarded: edits invalidate the last generation.
func (s *Session) SetFormData(data map[string]any) error {
	if err := s.active(); err != nil {
		return err
	}
	if s.Step != StepMetadataForm {
		return fmt.Errorf("%w: submit form data on %s", ErrInvalidTransition, s.Step)
	}
	if len(data) == 0 {
		return ErrEmptyFormData
	}
	s.FormData = data
	s.Metadata = nil
	s.touch()
	return nil
}

// ApplyMetadata stores a generation result and advances to preview.
func (s *Session) ApplyMetadata(res *metadata.Result) error {
	if err := s.active(); err != nil {
		return err
	}
	if s.Step != StepMetadataForm {
		return fmt.Errorf("%w: apply metadata on %s", ErrInvalidTransition, s.Step)
	}
	s.Metadata = res
	s.Step = StepPreview
	s.touch()
	return nil
}

// Back moves to the previous step. From the form step it returns to the
// asset-class step directly when the class had a single instrument type,
// mirroring the forward skip. From the first step it cancels the session and
// reports cancelled=true.
func (s *Session) Back(r Router) (cancelled bool, err error) {
	if err := s.active(); err != nil {
		return false, err
	}
	switch s.Step {
	case StepAssetClass:
		s.Status = StatusCancelled
		s.touch()
		return true, nil
	case StepInstrumentType:
		s.Step = StepAssetClass
	case StepMetadataForm:
		if r.HasMultipleTypes(s.AssetClass) {
			s.Step = StepInstrumentType
		} else {
			s.Step = StepAssetClass
		}
	case StepPreview:
		s.Step = StepMetadataForm
	default:
		return false, fmt.Errorf("%w: back from %s", ErrInvalidTransition, s.Step)
	}
	s.touch()
	return false, nil
}

// CanGoNext is the forward-enablement guard, evaluated per step.
func (s *Session) CanGoNext() bool {
	if s.Status != StatusActive {
		return false
	}
	switch s.Step {
	case StepAssetClass:
		return s.AssetClass != ""
	case StepInstrumentType:
		return s.InstrumentType != ""
	case StepMetadataForm:
		return len(s.FormData) > 0
	case StepPreview:
		return s.Metadata != nil && s.Metadata.Validation.Valid
	}
	return false
}

// Complete finishes the session. Only valid from preview with a valid
// generation result; a session completes at most once.
func (s *Session) Complete() error {
	if err := s.active(); err != nil {
		return err
	}
	if s.Step != StepPreview {
		return fmt.Errorf("%w: complete on %s", ErrInvalidTransition, s.Step)
	}
	if !s.CanGoNext() {
		return fmt.Errorf("%w: metadata validation has not passed", ErrInvalidTransition)
	}
	s.Status = StatusCompleted
	s.touch()
	return nil
}

// Cancel marks the session cancelled regardless of step.
func (s *Session) Cancel() error {
	if err := s.active(); err != nil {
		return err
	}
	s.Status = StatusCancelled
	s.touch()
	return nil
}
