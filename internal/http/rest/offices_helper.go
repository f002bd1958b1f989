// internal/http/rest/offices_helper.go
package rest

import (
	"context"

	"github.com/civicvoice/civicvoice_api/internal/model"
	"github.com/civicvoice/civicvoice_api/internal/store"
	"github.com/civicvoice/civicvoice_api/util/values"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func (api *API) CreateOfficeHelper(ctx context.Context, office model.Office) (string, string, error) {
	if err := api.Store.CreateOffice(ctx, office); err != nil {
		return values.Error, "Failed to create office", err
	}
	return values.Created, "Office created successfully", nil
}

func (api *API) GetOfficeByIDHelper(ctx context.Context, officeID uuid.UUID) (model.Office, string, string, error) {
	office, err := api.Store.GetOffice(ctx, officeID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Office{}, values.NotFound, "Office not found", err
	}
	if err != nil {
		return model.Office{}, values.Error, "Failed to fetch office", err
	}
	return office, values.Success, "Office fetched successfully", nil
}

func (api *API) ListOfficesHelper(ctx context.Context, category string) ([]model.Office, string, string, error) {
	offices, err := api.Store.ListOffices(ctx, category)
	if err != nil {
		return nil, values.Error, "Failed to fetch offices", err
	}
	return offices, values.Success, "Offices fetched successfully", nil
}
