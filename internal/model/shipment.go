package model

import "time"

// Party is one side of a shipment (sender or receiver).
type Party struct {
	Name    string `gorm:"size:120;not null"`
	Phone   string `gorm:"size:32;not null"`
	Email   string `gorm:"size:255"`
	Address string `gorm:"type:text;not null"`
}

type PackageInfo struct {
	Type       string `gorm:"size:64;not null"`
	Weight     string `gorm:"size:32;not null"`
	Dimensions string `gorm:"size:64"`
}

type DeliveryInfo struct {
	Type       string `gorm:"size:16;not null"`
	PickupDate string `gorm:"size:32"`
}

type Shipment struct {
	ID             string         `gorm:"primaryKey;size:36"`
	TrackingNumber string         `gorm:"column:tracking_number;size:16;uniqueIndex;not null"`
	Sender         Party          `gorm:"embedded;embeddedPrefix:sender_"`
	Receiver       Party          `gorm:"embedded;embeddedPrefix:receiver_"`
	Package        PackageInfo    `gorm:"embedded;embeddedPrefix:package_"`
	Delivery       DeliveryInfo   `gorm:"embedded;embeddedPrefix:delivery_"`
	Notes          string         `gorm:"type:text"`
	Photo          *string        `gorm:"type:longtext"`
	Status         ShipmentStatus `gorm:"size:32;not null"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
}

func (Shipment) TableName() string {
	return "shipments"
}
