package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/heartweek/engine/actions"
	"github.com/nathoo/heartweek/engine/enginetest"
	"github.com/nathoo/heartweek/engine/errs"
	"github.com/nathoo/heartweek/engine/save"
	"github.com/nathoo/heartweek/store"
	"github.com/nathoo/heartweek/types"
)

func newService(t *testing.T) (*Service, *store.MemoryRepo) {
	t.Helper()
	repo := store.NewMemoryRepo()
	svc := New(enginetest.Defs(), enginetest.Rules(), repo, nil)
	svc.Seed = 42
	return svc, repo
}

func digestOf(t *testing.T, list []actions.Action, prefix string) string {
	t.Helper()
	for _, a := range list {
		if strings.HasPrefix(a.Description, prefix) {
			return a.Digest
		}
	}
	t.Fatalf("no action starting with %q in %d actions", prefix, len(list))
	return ""
}

func TestStart_CreatesOnceByName(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	id, err := svc.Start(ctx, " Ada ")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	again, err := svc.Start(ctx, "Ada")
	require.NoError(t, err)
	assert.Equal(t, id, again)

	heroes, err := repo.Heroes(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, heroes, 1)

	sess, err := repo.ActiveSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "farmhouse", sess.Location)
}

func TestStart_RequiresName(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Start(context.Background(), "  ")
	assert.True(t, errs.IsRecoverable(err), "got %v", err)
}

func TestTurn_PersistsSession(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	id, err := svc.Start(ctx, "Ada")
	require.NoError(t, err)

	menu, err := svc.Menu(ctx, id)
	require.NoError(t, err)
	res, err := svc.Turn(ctx, id, digestOf(t, menu, "Leave to Farm"))
	require.NoError(t, err)
	assert.False(t, res.GameOver)
	assert.NotEmpty(t, res.Changed)

	sess, err := repo.ActiveSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "farm", sess.Location)
	assert.Equal(t, 1, sess.Turn)

	snap, err := svc.View(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Farm", snap.View.Place)
	assert.Equal(t, "Ada", snap.HeroView.Name)
}

func TestTurn_StaleDigestIsAMessage(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	id, err := svc.Start(ctx, "Ada")
	require.NoError(t, err)

	res, err := svc.Turn(ctx, id, "deadbeef")
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	assert.Contains(t, res.Messages[0], "isn't available")

	sess, err := repo.ActiveSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, sess.Turn)
}

func TestTurn_UnknownHero(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Turn(context.Background(), "ghost", "abcd")
	assert.True(t, errs.IsNotFound(err), "got %v", err)
}

func TestTurn_MissingSessionStartsFreshWeek(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	require.NoError(t, repo.SaveHero(ctx, &types.Hero{ID: "h1", Name: "Ada"}))

	menu, err := svc.Menu(ctx, "h1")
	require.NoError(t, err)
	assert.NotEmpty(t, menu)

	_, err = repo.ActiveSession(ctx, "h1")
	assert.NoError(t, err)
}

// endOfWeek moves the stored week to late Sunday night.
func endOfWeek(t *testing.T, repo *store.MemoryRepo, heroID string) {
	t.Helper()
	ctx := context.Background()
	hero, err := repo.Hero(ctx, heroID)
	require.NoError(t, err)
	sess, err := repo.ActiveSession(ctx, heroID)
	require.NoError(t, err)
	sess.Clock = types.Clock{Day: types.Sunday, Time: 1430, LastTriggeredDay: types.Sunday, LastTriggeredTime: 1430}
	sess.HeroState.KoinEarned = 100
	sess.HeroState.HeartsEarned = 2
	require.NoError(t, repo.Save(ctx, hero, sess))
}

func TestTurn_GameOverSettlesHero(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	id, err := svc.Start(ctx, "Ada")
	require.NoError(t, err)
	endOfWeek(t, repo, id)
	old, err := repo.ActiveSession(ctx, id)
	require.NoError(t, err)

	menu, err := svc.Menu(ctx, id)
	require.NoError(t, err)
	res, err := svc.Turn(ctx, id, digestOf(t, menu, "Sleep"))
	require.NoError(t, err)
	assert.True(t, res.GameOver)
	assert.Contains(t, res.Messages, "Final score: 2000")

	hero, err := repo.Hero(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2000, hero.HighScore)
	assert.Equal(t, 1, hero.RunsCompleted)
	assert.Equal(t, 1, hero.BoostLevel)

	_, err = repo.Session(ctx, old.ID)
	assert.True(t, errs.IsNotFound(err), "finished week is discarded")

	snap, err := svc.View(ctx, id)
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, snap.Session.ID)
	assert.Equal(t, types.Monday, snap.Session.Clock.Day)
}

func TestReset_AbandonsWeek(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	id, err := svc.Start(ctx, "Ada")
	require.NoError(t, err)
	menu, err := svc.Menu(ctx, id)
	require.NoError(t, err)
	_, err = svc.Turn(ctx, id, digestOf(t, menu, "Leave"))
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx, id))

	sess, err := repo.ActiveSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, sess.Turn)
	assert.Equal(t, "farmhouse", sess.Location)

	hero, err := repo.Hero(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, hero.RunsCompleted, "an abandoned week is not scored")
}

func TestExportImport(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	id, err := svc.Start(ctx, "Ada")
	require.NoError(t, err)

	data, err := svc.Export(ctx, id)
	require.NoError(t, err)

	menu, err := svc.Menu(ctx, id)
	require.NoError(t, err)
	_, err = svc.Turn(ctx, id, digestOf(t, menu, "Leave"))
	require.NoError(t, err)

	require.NoError(t, svc.Import(ctx, id, data))
	sess, err := repo.ActiveSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "farmhouse", sess.Location)
	assert.Equal(t, 0, sess.Turn)

	hero, err := repo.Hero(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", hero.Name)
}

func TestImport_WrongGame(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	id, err := svc.Start(ctx, "Ada")
	require.NoError(t, err)

	other := enginetest.Defs()
	other.Game.Title = "Another Valley"
	snap, err := svc.View(ctx, id)
	require.NoError(t, err)
	data, err := save.Save(snap.Session, snap.Hero, other)
	require.NoError(t, err)

	err = svc.Import(ctx, id, data)
	assert.ErrorIs(t, err, ErrWrongGame)
}

func TestTurn_SerializedPerHero(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()
	id, err := svc.Start(ctx, "Ada")
	require.NoError(t, err)
	menu, err := svc.Menu(ctx, id)
	require.NoError(t, err)
	leave := digestOf(t, menu, "Leave")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Turn(ctx, id, leave)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sess, err := repo.ActiveSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.Turn, "only the first leave can apply")
	assert.Equal(t, "farm", sess.Location)
}
