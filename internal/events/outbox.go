// Package events persists domain events in an outbox table for downstream
// consumers.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const CompanyProvisionedTopic = "company.provisioned"

// Event is one outbox row. Published is flipped by whichever relay drains
// the table.
type Event struct {
	ID        snowflake.ID   `gorm:"primaryKey"`
	Topic     string         `gorm:"type:text;not null;index"`
	Payload   datatypes.JSON `gorm:"type:jsonb"`
	Published bool           `gorm:"not null;default:false;index"`
	CreatedAt time.Time      `gorm:"not null"`
}

func (Event) TableName() string { return "events" }

// CompanyProvisionedPayload is the body of a CompanyProvisionedTopic event.
type CompanyProvisionedPayload struct {
	CompanyID      string `json:"company_id"`
	TeamID         string `json:"team_id"`
	SubscriptionID string `json:"subscription_id"`
	PlanTag        string `json:"plan_tag"`
}

type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

type outboxPublisher struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func NewOutboxPublisher(db *gorm.DB, genID *snowflake.Node) Publisher {
	return &outboxPublisher{
		db:    db,
		genID: genID,
	}
}

func (p *outboxPublisher) Publish(ctx context.Context, topic string, payload any) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return errors.New("missing event topic")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := &Event{
		ID:        p.genID.Generate(),
		Topic:     topic,
		Payload:   datatypes.JSON(body),
		CreatedAt: time.Now().UTC(),
	}
	return p.db.WithContext(ctx).Create(event).Error
}
