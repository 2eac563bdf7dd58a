package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultUnit = "m³"

type Measurement struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	UserDisplayName string             `bson:"userDisplayName" json:"userDisplayName"`

	MeterValue   float64 `bson:"meterValue" json:"meterValue"`
	Unit         string  `bson:"unit" json:"unit"` // "m³", "kWh", ...
	Observations string  `bson:"observations,omitempty" json:"observations,omitempty"`

	// Photos are data URLs (data:image/jpeg;base64,...) as produced by the device camera.
	MeterPhotoURL  string `bson:"meterPhotoURL,omitempty" json:"meterPhotoURL,omitempty"`
	FacadePhotoURL string `bson:"facadePhotoURL,omitempty" json:"facadePhotoURL,omitempty"`

	Latitude  *float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude *float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`
	Address   string   `bson:"address,omitempty" json:"address,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (m *Measurement) HasPhoto() bool {
	return m.MeterPhotoURL != ""
}
