package sessionstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/tokenforge/wizard-middleware/pkg/asset"
	"github.com/tokenforge/wizard-middleware/pkg/metadata"
	"github.com/tokenforge/wizard-middleware/pkg/wizard"
)

// SessionDao is a data access object that maps directly to the
// 'wizard_sessions' table in PostgreSQL.
type SessionDao struct {
	bun.BaseModel  `bun:"table:wizard_sessions,alias:ws"`
	ID             uuid.UUID       `bun:"id,pk,type:uuid"`
	Step           string          `bun:"step,notnull,type:varchar(32)"`
	Status         string          `bun:"status,notnull,type:varchar(16)"`
	AssetClass     *string         `bun:"asset_class,type:varchar(32)"`
	InstrumentType *string         `bun:"instrument_type,type:varchar(64)"`
	FormData       json.RawMessage `bun:"form_data,type:jsonb"`
	Metadata       json.RawMessage `bun:"metadata,type:jsonb"`
	Generating     bool            `bun:"generating,notnull,default:false"`
	CreatedAt      time.Time       `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt      time.Time       `bun:"updated_at,nullzero,default:current_timestamp"`
}

func toSessionDao(s *wizard.Session) (*SessionDao, error) {
	dao := &SessionDao{
		ID:         s.ID,
		Step:       string(s.Step),
		Status:     string(s.Status),
		Generating: s.Generating,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}

	if s.AssetClass != "" {
		class := string(s.AssetClass)
		dao.AssetClass = &class
	}
	if s.InstrumentType != "" {
		dao.InstrumentType = &s.InstrumentType
	}
	if s.FormData != nil {
		data, err := json.Marshal(s.FormData)
		if err != nil {
			return nil, fmt.Errorf("encode form data: %w", err)
		}
		dao.FormData = data
	}
	if s.Metadata != nil {
		data, err := json.Marshal(s.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		dao.Metadata = data
	}

	return dao, nil
}

func toSession(dao *SessionDao) (*wizard.Session, error) {
	s := &wizard.Session{
		ID:         dao.ID,
		Step:       wizard.Step(dao.Step),
		Status:     wizard.Status(dao.Status),
		Generating: dao.Generating,
		CreatedAt:  dao.CreatedAt,
		UpdatedAt:  dao.UpdatedAt,
	}

	if dao.AssetClass != nil {
		s.AssetClass = asset.Class(*dao.AssetClass)
	}
	if dao.InstrumentType != nil {
		s.InstrumentType = *dao.InstrumentType
	}
	if len(dao.FormData) > 0 {
		if err := json.Unmarshal(dao.FormData, &s.FormData); err != nil {
			return nil, fmt.Errorf("decode form data: %w", err)
		}
	}
	if len(dao.Metadata) > 0 {
		s.Metadata = &metadata.Result{}
		if err := json.Unmarshal(dao.Metadata, s.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}

	return s, nil
}
