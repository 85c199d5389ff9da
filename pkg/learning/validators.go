package learning

import "github.com/dacweb/dac/pkg/models"

type ListModulesResponse struct {
	Modules []*models.Module `json:"modules"`
}
