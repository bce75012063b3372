package dto

import (
	"fmt"
	"strings"

	"github.com/princinho/drivequiz/apperr"
	"github.com/princinho/drivequiz/models"
)

type TopicStepDTO struct {
	Title string `json:"title"`
	Desc  string `json:"desc"`
}

type CreateTopicDTO struct {
	Title         string         `json:"title"`
	Count         string         `json:"count"`
	Icon          string         `json:"icon"`
	Color         string         `json:"color"`
	IconColor     string         `json:"iconColor"`
	Tag           string         `json:"tag"`
	MainSignName  string         `json:"mainSignName"`
	SignImage     string         `json:"signImage"`
	Description   string         `json:"description"`
	Steps         []TopicStepDTO `json:"steps"`
	CommonMistake string         `json:"commonMistake"`
	ProTip        string         `json:"proTip"`
	LegalNote     string         `json:"legalNote"`
}

// Validate reports every missing required field at once, labelled the way
// the console form shows them ("Icon Color", "Main Sign Name").
func (d *CreateTopicDTO) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	required := []struct {
		label string
		value string
	}{
		{"Title", d.Title},
		{"Count", d.Count},
		{"Icon", d.Icon},
		{"Color", d.Color},
		{"Icon Color", d.IconColor},
		{"Tag", d.Tag},
		{"Main Sign Name", d.MainSignName},
		{"Description", d.Description},
		{"Common Mistake", d.CommonMistake},
		{"Pro Tip", d.ProTip},
		{"Legal Note", d.LegalNote},
	}

	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.label)
		}
	}
	if len(d.Steps) == 0 {
		missing = append(missing, "Steps")
	}
	if len(missing) > 0 {
		return apperr.InvalidInput("Missing required fields: " + strings.Join(missing, ", "))
	}

	for i, s := range d.Steps {
		if strings.TrimSpace(s.Title) == "" || strings.TrimSpace(s.Desc) == "" {
			return apperr.InvalidInput(fmt.Sprintf("Step %d is missing title or description.", i+1))
		}
	}
	return nil
}

func (d CreateTopicDTO) ToModel(slug string) models.Topic {
	steps := make([]models.TopicStep, 0, len(d.Steps))
	for _, s := range d.Steps {
		steps = append(steps, models.TopicStep{Title: s.Title, Desc: s.Desc})
	}
	return models.Topic{
		Title:         d.Title,
		Slug:          slug,
		Count:         d.Count,
		Icon:          d.Icon,
		Color:         d.Color,
		IconColor:     d.IconColor,
		Tag:           d.Tag,
		MainSignName:  d.MainSignName,
		SignImage:     strings.TrimSpace(d.SignImage),
		Description:   d.Description,
		Steps:         steps,
		CommonMistake: d.CommonMistake,
		ProTip:        d.ProTip,
		LegalNote:     d.LegalNote,
	}
}
