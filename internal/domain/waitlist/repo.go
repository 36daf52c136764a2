package waitlist

import (
	"context"
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	List(ctx context.Context) ([]*Patient, error)
	GetByID(ctx context.Context, id int64) (*Patient, error)
	AssignCareTeam(ctx context.Context, id int64, doctorID, roomID string) (*Patient, error)
	MarkTreated(ctx context.Context, id int64) (*Patient, error)
}

type AdminRepository interface {
	GetByUsername(ctx context.Context, username string) (*AdminCredential, error)
	Upsert(ctx context.Context, a *AdminCredential) error
}
