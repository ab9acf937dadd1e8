// Package domain contains the association engine's owned entities and
// contracts. ProductAssociation is the only table the engine writes.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ProductAssociation is one undirected co-occurrence edge between two
// products. Rows always satisfy ProductAID < ProductBID; the reversed
// direction is never stored.
type ProductAssociation struct {
	ProductAID     int64     `gorm:"column:product_a_id;primaryKey;autoIncrement:false"`
	ProductBID     int64     `gorm:"column:product_b_id;primaryKey;autoIncrement:false"`
	FrequencyCount int64     `gorm:"not null"`
	LastCalculated time.Time `gorm:"not null"`
}

func (ProductAssociation) TableName() string { return "product_associations" }

// AssociationRun records one engine invocation and its outcome counters.
type AssociationRun struct {
	ID          snowflake.ID      `gorm:"primaryKey"`
	Strategy    string            `gorm:"type:text;not null"`
	WindowStart time.Time         `gorm:"not null"`
	WindowEnd   time.Time         `gorm:"not null"`
	Stats       datatypes.JSONMap `gorm:"type:jsonb"`
	Error       *string           `gorm:"type:text"`
	StartedAt   time.Time         `gorm:"not null"`
	FinishedAt  *time.Time
}

func (AssociationRun) TableName() string { return "association_runs" }
