package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type TopicStep struct {
	Title string `bson:"title" json:"title"`
	Desc  string `bson:"desc" json:"desc"`
}

type Topic struct {
	ID            bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string        `bson:"title" json:"title"`
	Slug          string        `bson:"slug" json:"slug"`
	Count         string        `bson:"count" json:"count"`
	Icon          string        `bson:"icon" json:"icon"`
	Color         string        `bson:"color" json:"color"`
	IconColor     string        `bson:"iconColor" json:"iconColor"`
	Tag           string        `bson:"tag" json:"tag"`
	MainSignName  string        `bson:"mainSignName" json:"mainSignName"`
	SignImage     string        `bson:"signImage" json:"signImage"`
	Description   string        `bson:"description" json:"description"`
	Steps         []TopicStep   `bson:"steps" json:"steps"`
	CommonMistake string        `bson:"commonMistake" json:"commonMistake"`
	ProTip        string        `bson:"proTip" json:"proTip"`
	LegalNote     string        `bson:"legalNote" json:"legalNote"`
	CreatedAt     time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// UploadedImage describes an object pushed to the configured bucket.
type UploadedImage struct {
	URL        string    `json:"url"`
	ObjectName string    `json:"objectName"`
	MimeType   string    `json:"mimeType"`
	SizeBytes  int64     `json:"sizeBytes"`
	FileName   string    `json:"fileName"`
	UploadedAt time.Time `json:"uploadedAt"`
}
