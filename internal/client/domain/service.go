package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/flowdesk/pkg/db/pagination"
)

type ListClientRequest struct {
	PageToken string
	PageSize  int32
	Name      string
	Email     string
}

type ListClientFilter struct {
	Name  string
	Email string
}

type ListClientResponse struct {
	pagination.PageInfo
	Clients []Client `json:"clients"`
}

type CreateClientRequest struct {
	Name    string  `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
	Address string  `json:"address"`
	Notes   string  `json:"notes"`
}

type UpdateClientRequest struct {
	ID      string  `json:"-"`
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
	Address *string `json:"address"`
	Notes   *string `json:"notes"`
}

type Service interface {
	Create(context.Context, CreateClientRequest) (Client, error)
	List(context.Context, ListClientRequest) (ListClientResponse, error)
	GetByID(context.Context, string) (Client, error)
	Update(context.Context, UpdateClientRequest) (Client, error)
	Delete(context.Context, string) error
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
	ErrClientInUse  = errors.New("client_in_use")
)
