// internal/notify/directory.go
package notify

import (
	"context"

	"matrix-core/internal/common/errors"
	"matrix-core/internal/models"
)

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type PartnerLookup interface {
	GetPartner(ctx context.Context, id string) (*models.Partner, error)
}

// Directory resolves connection targets to contact data. Targets are users
// first and partners second.
type Directory struct {
	users    UserLookup
	partners PartnerLookup
}

func NewDirectory(users UserLookup, partners PartnerLookup) *Directory {
	return &Directory{users: users, partners: partners}
}

func (d *Directory) Recipient(ctx context.Context, id string) (Recipient, error) {
	u, err := d.users.GetByID(ctx, id)
	if err == nil {
		return Recipient{UserID: u.ID, Name: u.Profile.Name, Email: u.Email, Phone: u.Profile.Phone}, nil
	}
	if !errors.HasCode(err, errors.ErrCodeUserNotFound) || d.partners == nil {
		return Recipient{}, err
	}

	p, err := d.partners.GetPartner(ctx, id)
	if err != nil {
		return Recipient{}, err
	}
	return Recipient{UserID: p.ID, Name: p.CompanyName, Email: p.Email, Phone: p.Phone}, nil
}
