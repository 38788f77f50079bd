package company

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"jobverse/internal/database"
	"jobverse/internal/database/databasetest"
	"jobverse/internal/errcode"
)

func seedJob(t *testing.T, db *gorm.DB, companyID, creatorID uint, title string) database.Job {
	t.Helper()
	job := database.Job{
		Title:           title,
		Description:     "desc",
		Requirements:    []string{"Go"},
		Salary:          10,
		Location:        "Remote",
		JobType:         "Full-time",
		ExperienceLevel: "2",
		Position:        1,
		CompanyID:       companyID,
		CreatedBy:       creatorID,
	}
	require.NoError(t, db.Create(&job).Error)
	return job
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	db := databasetest.Open(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	created, err := svc.Register(ctx, 1, "  Acme ")
	require.NoError(t, err)
	assert.Equal(t, "Acme", created.Name)
	assert.EqualValues(t, 1, created.UserID)

	_, err = svc.Register(ctx, 2, "Acme")
	assert.ErrorIs(t, err, errcode.ErrDuplicateCompany)

	_, err = svc.Register(ctx, 2, " ")
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestListByOwnerNewestFirst(t *testing.T) {
	db := databasetest.Open(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	first, err := svc.Register(ctx, 1, "First")
	require.NoError(t, err)
	second, err := svc.Register(ctx, 1, "Second")
	require.NoError(t, err)
	_, err = svc.Register(ctx, 2, "Someone else")
	require.NoError(t, err)

	companies, err := svc.ListByOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, second.ID, companies[0].ID)
	assert.Equal(t, first.ID, companies[1].ID)
}

func TestUpdateOwnerOnly(t *testing.T) {
	db := databasetest.Open(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	acme, err := svc.Register(ctx, 1, "Acme")
	require.NoError(t, err)
	_, err = svc.Register(ctx, 1, "Globex")
	require.NoError(t, err)

	_, _, err = svc.Update(ctx, 2, acme.ID, Update{Description: "hijack"})
	assert.ErrorIs(t, err, ErrNotOwner)

	_, _, err = svc.Update(ctx, 1, acme.ID, Update{Name: "Globex"})
	assert.ErrorIs(t, err, errcode.ErrDuplicateCompany)

	_, _, err = svc.Update(ctx, 1, 999, Update{Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	updated, replaced, err := svc.Update(ctx, 1, acme.ID, Update{Website: "https://acme.test", LogoKey: "logos/1/a.png"})
	require.NoError(t, err)
	assert.Empty(t, replaced)
	assert.Equal(t, "Acme", updated.Name)
	assert.Equal(t, "https://acme.test", updated.Website)

	_, replaced, err = svc.Update(ctx, 1, acme.ID, Update{LogoKey: "logos/1/b.png"})
	require.NoError(t, err)
	assert.Equal(t, "logos/1/a.png", replaced)
}

func TestDeleteCascadesToJobsAndApplications(t *testing.T) {
	db := databasetest.Open(t)
	svc := NewService(db, nil)
	ctx := context.Background()

	acme, err := svc.Register(ctx, 1, "Acme")
	require.NoError(t, err)
	other, err := svc.Register(ctx, 1, "Other")
	require.NoError(t, err)

	doomed := seedJob(t, db, acme.ID, 1, "Doomed")
	kept := seedJob(t, db, other.ID, 1, "Kept")
	require.NoError(t, db.Create(&database.Application{JobID: doomed.ID, ApplicantID: 5, Status: database.StatusPending}).Error)
	require.NoError(t, db.Create(&database.Application{JobID: kept.ID, ApplicantID: 5, Status: database.StatusPending}).Error)

	assert.ErrorIs(t, svc.Delete(ctx, 2, acme.ID), ErrNotOwner)
	require.NoError(t, svc.Delete(ctx, 1, acme.ID))

	_, err = svc.Get(ctx, acme.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var jobs []database.Job
	require.NoError(t, db.Unscoped().Find(&jobs).Error)
	require.Len(t, jobs, 1)
	assert.Equal(t, kept.ID, jobs[0].ID)

	var apps []database.Application
	require.NoError(t, db.Unscoped().Find(&apps).Error)
	require.Len(t, apps, 1)
	assert.Equal(t, kept.ID, apps[0].JobID)

	assert.ErrorIs(t, svc.Delete(ctx, 1, acme.ID), ErrNotFound)
}
