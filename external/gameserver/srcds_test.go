package gameserver

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/patths/gametime-bonus/internal/gameserver"
)

type fakeRconConn struct {
	response string
	execErr  error

	inFlight  int32
	overlaps  int32
	execCount int32
	closed    int32
}

func (f *fakeRconConn) Execute(_ string) (string, error) {
	if atomic.AddInt32(&f.inFlight, 1) > 1 {
		atomic.AddInt32(&f.overlaps, 1)
	}
	time.Sleep(time.Millisecond)
	atomic.AddInt32(&f.inFlight, -1)
	atomic.AddInt32(&f.execCount, 1)
	if f.execErr != nil {
		return "", f.execErr
	}
	return f.response, nil
}

func (f *fakeRconConn) Close() error {
	atomic.StoreInt32(&f.closed, 1)
	return nil
}

func newTestClient(conn rconExecutor) *Client {
	c := NewClient("localhost:27015", "secret", ":27115").(*Client)
	c.rconCon = conn
	c.dial = func(_ time.Duration) (rconExecutor, error) {
		return nil, errors.New("no server to redial")
	}
	return c
}

func humanPlayer(userID int64, auth string, team gameserver.Team) gameserver.Player {
	return gameserver.Player{UserID: userID, Name: "player", AuthID: auth, Team: team}
}

func TestApplyToRoster_LifecycleFeedsListPlayers(t *testing.T) {
	c := newTestClient(&fakeRconConn{})

	c.applyToRoster(gameserver.PlayerEvent{
		Type:   gameserver.EventConnect,
		Player: humanPlayer(3, "STEAM_1:0:42", gameserver.TeamUnassigned),
	})
	players, err := c.ListPlayers()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(players) != 1 || players[0].UserID != 3 {
		t.Fatalf("unexpected roster after connect: %+v", players)
	}

	// The team-switch line carries no name history; the merge must keep
	// the connect entry and only move the team.
	c.applyToRoster(gameserver.PlayerEvent{
		Type:   gameserver.EventTeamChange,
		Player: humanPlayer(3, "STEAM_1:0:42", gameserver.TeamSpectator),
	})
	players, _ = c.ListPlayers()
	if len(players) != 1 || players[0].Team != gameserver.TeamSpectator || players[0].AuthID != "STEAM_1:0:42" {
		t.Fatalf("unexpected roster after team change: %+v", players)
	}

	c.applyToRoster(gameserver.PlayerEvent{
		Type:   gameserver.EventTeamChange,
		Player: humanPlayer(9, "STEAM_1:0:99", gameserver.TeamCT),
	})
	players, _ = c.ListPlayers()
	if len(players) != 2 {
		t.Fatalf("team change for an unseen player did not create an entry: %+v", players)
	}

	c.applyToRoster(gameserver.PlayerEvent{
		Type:   gameserver.EventDisconnect,
		Player: humanPlayer(3, "STEAM_1:0:42", gameserver.TeamSpectator),
	})
	players, _ = c.ListPlayers()
	if len(players) != 1 || players[0].UserID != 9 {
		t.Fatalf("unexpected roster after disconnect: %+v", players)
	}
}

const statusFixture = `hostname: test server
version : 1.38.7.9/13879 1234 secure
# userid name uniqueid connected ping loss state rate adr
#  3 1 "player-one" STEAM_1:0:42 05:24 64 0 active 196608 10.0.0.7:27005
#end
`

func TestReconcileRoster_PrunesGhostEntries(t *testing.T) {
	conn := &fakeRconConn{response: statusFixture}
	c := newTestClient(conn)
	c.applyToRoster(gameserver.PlayerEvent{
		Type:   gameserver.EventConnect,
		Player: humanPlayer(3, "STEAM_1:0:42", gameserver.TeamCT),
	})
	c.applyToRoster(gameserver.PlayerEvent{
		Type:   gameserver.EventConnect,
		Player: humanPlayer(9, "STEAM_1:0:99", gameserver.TeamCT),
	})

	if err := c.reconcileRoster(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	players, _ := c.ListPlayers()
	if len(players) != 1 || players[0].UserID != 3 {
		t.Fatalf("expected only userid 3 to survive, got %+v", players)
	}
}

func TestReconcileRoster_KeepsRosterOnRconError(t *testing.T) {
	conn := &fakeRconConn{execErr: errors.New("connection reset")}
	c := newTestClient(conn)
	c.applyToRoster(gameserver.PlayerEvent{
		Type:   gameserver.EventConnect,
		Player: humanPlayer(3, "STEAM_1:0:42", gameserver.TeamCT),
	})

	if err := c.reconcileRoster(); err == nil {
		t.Fatal("expected an error from the failed status query")
	}

	players, _ := c.ListPlayers()
	if len(players) != 1 {
		t.Fatalf("roster changed on a failed reconcile: %+v", players)
	}
}

func TestExecute_SerializesConcurrentCommands(t *testing.T) {
	conn := &fakeRconConn{response: statusFixture}
	c := newTestClient(conn)
	c.applyToRoster(gameserver.PlayerEvent{
		Type:   gameserver.EventConnect,
		Player: humanPlayer(3, "STEAM_1:0:42", gameserver.TeamCT),
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Notify(humanPlayer(3, "STEAM_1:0:42", gameserver.TeamCT), "hello")
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.reconcileRoster()
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&conn.overlaps); got != 0 {
		t.Fatalf("commands interleaved on the shared connection %d times", got)
	}
	if got := atomic.LoadInt32(&conn.execCount); got != 16 {
		t.Fatalf("expected 16 executed commands, got %d", got)
	}
	players, _ := c.ListPlayers()
	if len(players) != 1 {
		t.Fatalf("roster corrupted by concurrent commands: %+v", players)
	}
}

func TestExecute_RedialsOnceAndClosesFailedConn(t *testing.T) {
	failing := &fakeRconConn{execErr: errors.New("broken pipe")}
	replacement := &fakeRconConn{response: "ok"}
	c := newTestClient(failing)
	var dials int32
	c.dial = func(_ time.Duration) (rconExecutor, error) {
		atomic.AddInt32(&dials, 1)
		return replacement, nil
	}

	out, err := c.execute("say hello")
	if err != nil {
		t.Fatalf("expected redial to recover, got %v", err)
	}
	if out != "ok" {
		t.Fatalf("unexpected response: %q", out)
	}
	if atomic.LoadInt32(&dials) != 1 {
		t.Fatalf("expected exactly one redial, got %d", dials)
	}
	if atomic.LoadInt32(&failing.closed) != 1 {
		t.Fatal("failed connection was not closed")
	}

	c.mu.Lock()
	current := c.rconCon
	c.mu.Unlock()
	if current != replacement {
		t.Fatal("replacement connection was not installed")
	}
}
