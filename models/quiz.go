package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type QuizCategory string

const (
	CategoryTrafficSigns QuizCategory = "traffic_signs"
	CategoryRulesOfRoad  QuizCategory = "rules_of_road"
)

func (c QuizCategory) Valid() bool {
	return c == CategoryTrafficSigns || c == CategoryRulesOfRoad
}

type Quiz struct {
	ID                 bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Question           string        `bson:"question" json:"question"`
	Options            []string      `bson:"options" json:"options"`
	CorrectAnswerIndex int           `bson:"correctAnswerIndex" json:"correctAnswerIndex"`
	Explanation        string        `bson:"explanation" json:"explanation"`
	Category           QuizCategory  `bson:"category" json:"category"`
	ImageURL           string        `bson:"imageUrl" json:"imageUrl"`
	IsActive           bool          `bson:"isActive" json:"-"`
	CreatedAt          time.Time     `bson:"createdAt" json:"-"`
	UpdatedAt          time.Time     `bson:"updatedAt" json:"-"`
}
