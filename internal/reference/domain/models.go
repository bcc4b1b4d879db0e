package domain

import "time"

type Country struct {
	ID        int64     `json:"id" gorm:"primaryKey;column:id"`
	Code      string    `json:"code" gorm:"type:char(2);uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at,omitempty" gorm:"not null"`
}

func (Country) TableName() string { return "countries" }

type Currency struct {
	ID        int64     `json:"id" gorm:"primaryKey;column:id"`
	Code      string    `json:"code" gorm:"type:char(3);uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"type:text;not null"`
	Symbol    *string   `json:"symbol,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at,omitempty" gorm:"not null"`
}

func (Currency) TableName() string { return "currencies" }

type Language struct {
	ID        int64     `json:"id" gorm:"primaryKey;column:id"`
	Code      string    `json:"code" gorm:"type:text;uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at,omitempty" gorm:"not null"`
}

func (Language) TableName() string { return "languages" }
