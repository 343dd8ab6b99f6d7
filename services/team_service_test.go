package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtside/pickleball-backend/models"
)

type teamFixture struct {
	svc      TeamService
	users    *fakeUserRepo
	settings *fakeSettingsRepo
}

// newTeamFixture builds tournament 1 in registration with default settings
// and four users: 1 and 2 are linked with ratings 4.1 and 3.8, 3 is linked
// at 3.2, 4 has no provider account.
func newTeamFixture(t *testing.T) *teamFixture {
	t.Helper()

	tourneys := newFakeTournamentRepo()
	require.NoError(t, tourneys.Create(context.Background(), &models.Tournament{
		Title:  "Spring Scramble",
		Status: models.StatusUpcoming,
	}))

	settings := newFakeSettingsRepo()
	settings.settings[1] = models.DefaultSettings(1)

	users := newFakeUserRepo()
	users.addUser(models.User{FirstName: "Ana", Rating: 4.1, DuprID: strp("DUPR-ANA")})
	users.addUser(models.User{FirstName: "Ben", Rating: 3.8, DuprID: strp("DUPR-BEN")})
	users.addUser(models.User{FirstName: "Cal", Rating: 3.2, DuprID: strp("DUPR-CAL")})
	users.addUser(models.User{FirstName: "Dee", Rating: 4.4})

	svc := NewTeamService(newFakeTeamRepo(), users, tourneys, settings, newFakeStateRepo())
	return &teamFixture{svc: svc, users: users, settings: settings}
}

func (f *teamFixture) requireTier(tier string) {
	f.settings.settings[1].RequiredDuprTier = strp(tier)
}

func TestRegisterTeamWithoutTierAcceptsUnlinkedMembers(t *testing.T) {
	f := newTeamFixture(t)

	team, err := f.svc.Register(context.Background(), 1, 4, RegisterTeamInput{
		Name:      "Rally Cats",
		MemberIDs: []int{4, 1},
	})
	require.NoError(t, err)
	assert.Len(t, team.Members, 2)
}

func TestRegisterTeamTierRequiresLinkedMembers(t *testing.T) {
	f := newTeamFixture(t)
	f.requireTier("3.5")

	_, err := f.svc.Register(context.Background(), 1, 4, RegisterTeamInput{
		Name:      "Rally Cats",
		MemberIDs: []int{4, 1},
	})
	assert.ErrorIs(t, err, ErrMemberNotLinked)
}

func TestRegisterTeamTierRejectsRatingBelowFloor(t *testing.T) {
	f := newTeamFixture(t)
	f.requireTier("3.5")

	_, err := f.svc.Register(context.Background(), 1, 3, RegisterTeamInput{
		Name:      "Low Riders",
		MemberIDs: []int{3, 1},
	})
	assert.ErrorIs(t, err, ErrDuprTierNotMet)
}

func TestRegisterTeamTierAcceptsQualifiedMembers(t *testing.T) {
	f := newTeamFixture(t)
	f.requireTier("3.5")

	team, err := f.svc.Register(context.Background(), 1, 1, RegisterTeamInput{
		Name:      "Paddle Royale",
		MemberIDs: []int{1, 2},
	})
	require.NoError(t, err)
	assert.Len(t, team.Members, 2)
}

func TestRegisterTeamMalformedTierIsServerError(t *testing.T) {
	f := newTeamFixture(t)
	f.requireTier("open play")

	_, err := f.svc.Register(context.Background(), 1, 1, RegisterTeamInput{
		Name:      "Paddle Royale",
		MemberIDs: []int{1, 2},
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuprTierNotMet)
	assert.NotErrorIs(t, err, ErrMemberNotLinked)
}
