package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rohow/mopad-client/config"
	"github.com/rohow/mopad-client/mopadtest"
	"github.com/rohow/mopad-client/persistence"
	"github.com/rohow/mopad-client/store"
	"github.com/rohow/mopad-client/types"
)

func newPersister(t *testing.T) persistence.Persister {
	t.Helper()
	cfg := &config.Config{PersistenceConfig: config.PersistenceConfig{Type: "buntdb"}}
	p, err := persistence.NewBuntPersister(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func startSession(t *testing.T, srv *mopadtest.Server, p persistence.Persister, vis Visibility) (*Session, *store.Store) {
	t.Helper()
	st := store.NewStore()
	sess := NewSession(srv.URL(), 1, st, p, vis)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go sess.Run(ctx)
	return sess, st
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestReloginWithStoredToken(t *testing.T) {
	srv := mopadtest.NewServer()
	defer srv.Close()
	srv.AuthHandler = func(cmd types.Command) types.Event {
		relogin, ok := cmd.(*types.ReloginCommand)
		if !ok || relogin.Token != "abc" {
			return &types.AuthenticationErrorEvent{Reason: "unknown token"}
		}
		return &types.AuthenticationSuccessEvent{
			UserId: 7,
			Roles:  []types.Role{types.RoleScheduler},
			Token:  "xyz",
		}
	}

	p := newPersister(t)
	assert.NoError(t, p.StoreToken("abc"))
	_, st := startSession(t, srv, p, nil)

	waitFor(t, "login", func() bool { return st.CurrentUserID() == 7 })
	assert.Equal(t, []types.Role{types.RoleScheduler}, st.Roles())

	// the fresh token replaces the old one
	waitFor(t, "token rotation", func() bool {
		token, err := p.GetToken()
		return err == nil && token == "xyz"
	})
}

func TestAuthErrorDiscardsToken(t *testing.T) {
	srv := mopadtest.NewServer()
	defer srv.Close()
	srv.AuthHandler = func(cmd types.Command) types.Event {
		return &types.AuthenticationErrorEvent{Reason: "unknown token"}
	}

	p := newPersister(t)
	assert.NoError(t, p.StoreToken("stale"))
	_, st := startSession(t, srv, p, nil)

	waitFor(t, "auth error", func() bool { return st.AuthError() == "unknown token" })
	waitFor(t, "token discard", func() bool {
		token, err := p.GetToken()
		return err == nil && token == ""
	})
	assert.Equal(t, int64(0), st.CurrentUserID())
}

func TestExplicitLoginWinsOverStoredToken(t *testing.T) {
	srv := mopadtest.NewServer()
	defer srv.Close()
	srv.AuthHandler = func(cmd types.Command) types.Event {
		login, ok := cmd.(*types.LoginCommand)
		if !ok {
			return &types.AuthenticationErrorEvent{Reason: "unknown token"}
		}
		if login.Name != "ada" || login.Password != "pw" {
			return &types.AuthenticationErrorEvent{Reason: "wrong password"}
		}
		return &types.AuthenticationSuccessEvent{UserId: 1, Token: "fresh"}
	}

	p := newPersister(t)
	assert.NoError(t, p.StoreToken("stale"))

	st := store.NewStore()
	sess := NewSession(srv.URL(), 1, st, p, nil)
	assert.NoError(t, sess.LoginOrRegister(types.LoginCommand{Name: "ada", Team: "core", Password: "pw"}))

	// staging the login already dropped the stored token
	token, err := p.GetToken()
	assert.NoError(t, err)
	assert.Equal(t, "", token)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go sess.Run(ctx)

	waitFor(t, "login", func() bool { return st.CurrentUserID() == 1 })
	cmds := srv.Commands()
	assert.NotEmpty(t, cmds)
	_, isLogin := cmds[0].(*types.LoginCommand)
	assert.True(t, isLogin, "the pending login must be the first command on the wire")
}

func TestEventsFlowIntoStore(t *testing.T) {
	srv := mopadtest.NewServer()
	defer srv.Close()

	_, st := startSession(t, srv, nil, nil)
	waitFor(t, "connect", func() bool { return srv.ClientCount() == 1 })

	assert.NoError(t, srv.Push(&types.AddTalkEvent{Talk: types.Talk{Id: 11, Title: "Intro"}}))
	waitFor(t, "talk", func() bool {
		talk, ok := st.Talk(11)
		return ok && talk.Title == "Intro"
	})

	assert.NoError(t, srv.Push(&types.UpdateTitleEvent{TalkId: 11, Title: "Intro v2"}))
	waitFor(t, "patch", func() bool {
		talk, _ := st.Talk(11)
		return talk.Title == "Intro v2"
	})
}

func TestCommandsDroppedWhileDisconnected(t *testing.T) {
	srv := mopadtest.NewServer()
	defer srv.Close()

	sess, st := startSession(t, srv, nil, nil)
	waitFor(t, "connect", func() bool { return st.Status() == store.StatusConnected })

	srv.CloseClients()
	waitFor(t, "disconnect", func() bool { return st.Status() != store.StatusConnected })

	err := sess.Send(types.RemoveTalkCommand{TalkId: 1})
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestVisibilityGatesConnection(t *testing.T) {
	srv := mopadtest.NewServer()
	defer srv.Close()

	vis := NewToggle(false)
	_, _ = startSession(t, srv, nil, vis)

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 0, srv.ClientCount(), "no connection attempt while hidden")

	vis.Set(true)
	waitFor(t, "connect on visible", func() bool { return srv.ClientCount() == 1 })
}

func TestReconnectAfterServerDrop(t *testing.T) {
	srv := mopadtest.NewServer()
	defer srv.Close()

	_, st := startSession(t, srv, nil, nil)
	waitFor(t, "connect", func() bool { return st.Status() == store.StatusConnected })

	srv.CloseClients()
	waitFor(t, "reconnect", func() bool {
		return srv.ClientCount() == 1 && st.Status() == store.StatusConnected
	})
}

func TestUpdateTitleSetsPendingOverride(t *testing.T) {
	srv := mopadtest.NewServer()
	defer srv.Close()

	sess, st := startSession(t, srv, nil, nil)
	waitFor(t, "connect", func() bool { return st.Status() == store.StatusConnected })

	assert.NoError(t, srv.Push(&types.AddTalkEvent{Talk: types.Talk{Id: 11, Title: "Intro"}}))
	waitFor(t, "talk", func() bool { _, ok := st.Talk(11); return ok })

	assert.NoError(t, sess.UpdateTitle(11, "Intro v2"))
	assert.True(t, st.HasPending(11, store.FieldTitle))
	view, _ := st.TalkView(11)
	assert.Equal(t, "Intro v2", view.Title)

	cmd, ok := srv.WaitCommand(5 * time.Second)
	assert.True(t, ok)
	upd, ok := cmd.(*types.UpdateTitleCommand)
	assert.True(t, ok)
	assert.Equal(t, "Intro v2", upd.Title)

	// the server echo clears the override
	assert.NoError(t, srv.Push(&types.UpdateTitleEvent{TalkId: 11, Title: "Intro v2"}))
	waitFor(t, "override cleared", func() bool { return !st.HasPending(11, store.FieldTitle) })
}

func TestEditDurationValidation(t *testing.T) {
	srv := mopadtest.NewServer()
	defer srv.Close()
	sess, st := startSession(t, srv, nil, nil)
	waitFor(t, "connect", func() bool { return st.Status() == store.StatusConnected })

	assert.Error(t, sess.EditDurationMinutes(1, "abc"))
	assert.Error(t, sess.EditDurationMinutes(1, "0"))
	assert.Error(t, sess.EditDurationMinutes(1, "-5"))
	assert.NoError(t, sess.EditDurationMinutes(1, " 45 "))

	cmd, ok := srv.WaitCommand(5 * time.Second)
	assert.True(t, ok)
	upd := cmd.(*types.UpdateDurationCommand)
	assert.Equal(t, int64(2700), upd.Duration.Secs)
}

func TestToggleMembershipSwitchesSides(t *testing.T) {
	srv := mopadtest.NewServer()
	defer srv.Close()
	sess, st := startSession(t, srv, nil, nil)
	waitFor(t, "connect", func() bool { return st.Status() == store.StatusConnected })

	assert.NoError(t, srv.Push(&types.AuthenticationSuccessEvent{UserId: 7}))
	waitFor(t, "identity", func() bool { return st.CurrentUserID() == 7 })
	assert.NoError(t, srv.Push(&types.AddTalkEvent{Talk: types.Talk{Id: 11, Nerds: []int64{7}}}))
	waitFor(t, "talk", func() bool { _, ok := st.Talk(11); return ok })

	// already a nerd: becoming a noob first leaves the nerd list
	assert.NoError(t, sess.ToggleNoob(11))
	cmd, ok := srv.WaitCommand(5 * time.Second)
	assert.True(t, ok)
	_, isRemoveNerd := cmd.(*types.RemoveNerdCommand)
	assert.True(t, isRemoveNerd)
	cmd, ok = srv.WaitCommand(5 * time.Second)
	assert.True(t, ok)
	addNoob, isAddNoob := cmd.(*types.AddNoobCommand)
	assert.True(t, isAddNoob)
	assert.Equal(t, int64(7), addNoob.UserId)
}

func TestToggleMembershipRequiresLogin(t *testing.T) {
	srv := mopadtest.NewServer()
	defer srv.Close()
	sess, st := startSession(t, srv, nil, nil)
	waitFor(t, "connect", func() bool { return st.Status() == store.StatusConnected })

	assert.ErrorIs(t, sess.ToggleNoob(11), ErrNotAuthenticated)
}

func TestWSURL(t *testing.T) {
	u, err := wsURL("http://example.com")
	assert.NoError(t, err)
	assert.Equal(t, "ws://example.com/api", u)

	u, err = wsURL("https://example.com/mopad/")
	assert.NoError(t, err)
	assert.Equal(t, "wss://example.com/mopad/api", u)

	_, err = wsURL("ftp://example.com")
	assert.Error(t, err)
}
