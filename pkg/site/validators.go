package site

import "github.com/dacweb/dac/pkg/models"

type ContactPayload struct {
	Name    string `json:"name" form:"name" mod:"trim" validate:"required,max=200"`
	Email   string `json:"email" form:"email" mod:"trim" validate:"required,email,max=320"`
	Message string `json:"message" form:"message" mod:"trim" validate:"required,max=5000"`
}

type EventsResponse struct {
	Events []*models.Event `json:"events"`
}

type TeamResponse struct {
	Members []*models.TeamMember `json:"members"`
}
