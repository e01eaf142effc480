package provider

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Provider struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Tel       string    `json:"tel"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary is the trimmed provider shape embedded in booking and favorites
// responses.
type Summary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Tel     string `json:"tel"`
}

func (p Provider) Summary() Summary {
	return Summary{ID: p.ID, Name: p.Name, Address: p.Address, Tel: p.Tel}
}

var (
	ErrNotFound  = errors.New("provider not found")
	ErrNameTaken = errors.New("provider name already exists")
)

type CreateRequest struct {
	Name    string `json:"name" binding:"required,max=50"`
	Address string `json:"address" binding:"required"`
	Tel     string `json:"tel" binding:"required,telephone"`
}

// UpdateRequest is a partial update; nil fields are left untouched.
type UpdateRequest struct {
	Name    *string `json:"name" binding:"omitempty,min=1,max=50"`
	Address *string `json:"address" binding:"omitempty,min=1"`
	Tel     *string `json:"tel" binding:"omitempty,telephone"`
}

func (r UpdateRequest) Empty() bool {
	return r.Name == nil && r.Address == nil && r.Tel == nil
}

func NewFromCreateRequest(req CreateRequest) Provider {
	now := time.Now().UTC()

	return Provider{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Address:   strings.TrimSpace(req.Address),
		Tel:       req.Tel,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Apply copies the non-nil fields of req onto p.
func (p Provider) Apply(req UpdateRequest) Provider {
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Address != nil {
		p.Address = strings.TrimSpace(*req.Address)
	}
	if req.Tel != nil {
		p.Tel = *req.Tel
	}
	p.UpdatedAt = time.Now().UTC()
	return p
}

// Project returns only the requested fields of p. The id is always included.
func (p Provider) Project(fields []string) map[string]any {
	out := map[string]any{"id": p.ID}
	for _, f := range fields {
		switch f {
		case "name":
			out["name"] = p.Name
		case "address":
			out["address"] = p.Address
		case "tel":
			out["tel"] = p.Tel
		case "createdAt":
			out["createdAt"] = p.CreatedAt
		case "updatedAt":
			out["updatedAt"] = p.UpdatedAt
		}
	}
	return out
}
