package gameserver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorcon/rcon"
	"github.com/patths/gametime-bonus/internal/gameserver"
)

const (
	rconTimeout          = 5 * time.Second
	rosterReconcileEvery = 30 * time.Second
	maxLogDatagramBytes  = 4096
)

// rconExecutor is the surface of *rcon.Conn the client uses. The protocol
// is a single write-then-read stream, so commands must never interleave.
type rconExecutor interface {
	Execute(command string) (string, error)
	Close() error
}

// Client attaches to a Source dedicated server: lifecycle events come from
// the remote log stream (the server must have logaddress_add pointed at
// LOG_LISTEN_ADDR), the roster is kept in memory from those events and
// reconciled against the rcon `status` output, and notifications go out as
// server chat.
type Client struct {
	rconAddress  string
	rconPassword string
	listenAddr   string
	dial         func(timeout time.Duration) (rconExecutor, error)

	// cmdMu serializes whole rcon commands, redial included; mu only
	// guards the struct fields.
	cmdMu sync.Mutex

	mu      sync.Mutex
	rconCon rconExecutor
	logConn net.PacketConn
	handler func(gameserver.PlayerEvent)
	roster  map[int64]gameserver.Player
	closed  bool
}

func NewClient(rconAddress, rconPassword, listenAddr string) gameserver.Client {
	return &Client{
		rconAddress:  rconAddress,
		rconPassword: rconPassword,
		listenAddr:   listenAddr,
		dial: func(timeout time.Duration) (rconExecutor, error) {
			return rcon.Dial(rconAddress, rconPassword, rcon.SetDialTimeout(timeout), rcon.SetDeadline(rconTimeout))
		},
		roster: make(map[int64]gameserver.Player),
	}
}

func (c *Client) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dialTimeout := rconTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < dialTimeout {
			dialTimeout = remaining
		}
	}
	conn, err := c.dial(dialTimeout)
	if err != nil {
		return fmt.Errorf("rcon dial failed: %w", err)
	}
	var lc net.ListenConfig
	logConn, err := lc.ListenPacket(ctx, "udp", c.listenAddr)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("log listener failed on %s: %w", c.listenAddr, err)
	}

	c.mu.Lock()
	c.rconCon = conn
	c.logConn = logConn
	c.mu.Unlock()
	slog.Info("game server attached", "rcon_address", c.rconAddress, "log_listen_addr", c.listenAddr)
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	rconCon := c.rconCon
	logConn := c.logConn
	c.mu.Unlock()

	if logConn != nil {
		_ = logConn.Close()
	}
	if rconCon != nil {
		return rconCon.Close()
	}
	return nil
}

func (c *Client) RegisterPlayerEventHandler(handler func(gameserver.PlayerEvent)) {
	c.mu.Lock()
	c.handler = handler
	c.mu.Unlock()
}

// Run blocks reading log datagrams until Close. Roster reconciliation runs
// on its own cadence so a lost disconnect line cannot leave a ghost entry
// forever.
func (c *Client) Run() error {
	c.mu.Lock()
	logConn := c.logConn
	c.mu.Unlock()
	if logConn == nil {
		return fmt.Errorf("client is not connected")
	}

	stopReconcile := make(chan struct{})
	defer close(stopReconcile)
	go c.reconcileLoop(stopReconcile)

	buf := make([]byte, maxLogDatagramBytes)
	for {
		n, _, err := logConn.ReadFrom(buf)
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if closed {
				return nil
			}
			return fmt.Errorf("log listener read failed: %w", err)
		}
		for _, line := range strings.Split(string(buf[:n]), "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			event, ok := ParseLogLine(line)
			if !ok {
				continue
			}
			c.applyToRoster(event)
			c.dispatch(event)
		}
	}
}

func (c *Client) applyToRoster(event gameserver.PlayerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch event.Type {
	case gameserver.EventConnect:
		c.roster[event.Player.UserID] = event.Player
	case gameserver.EventDisconnect:
		delete(c.roster, event.Player.UserID)
	case gameserver.EventTeamChange:
		p, ok := c.roster[event.Player.UserID]
		if !ok {
			p = event.Player
		}
		p.Team = event.Player.Team
		c.roster[event.Player.UserID] = p
	}
}

func (c *Client) dispatch(event gameserver.PlayerEvent) {
	if isPseudoPlayer(event.Player) {
		return
	}
	c.mu.Lock()
	handler := c.handler
	c.mu.Unlock()
	if handler != nil {
		handler(event)
	}
}

func (c *Client) ListPlayers() ([]gameserver.Player, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	players := make([]gameserver.Player, 0, len(c.roster))
	for _, p := range c.roster {
		players = append(players, p)
	}
	return players, nil
}

func (c *Client) Notify(p gameserver.Player, message string) error {
	// rcon has no per-player chat; the server-wide say line carries the
	// recipient's name instead.
	_, err := c.execute(fmt.Sprintf("say %s: %s", p.Name, message))
	return err
}

func (c *Client) execute(command string) (string, error) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	c.mu.Lock()
	conn := c.rconCon
	c.mu.Unlock()
	if conn == nil {
		return "", fmt.Errorf("client is not connected")
	}
	out, err := conn.Execute(command)
	if err == nil {
		return out, nil
	}

	// One redial per failed command covers server restarts and idle
	// connection drops.
	redialed, dialErr := c.dial(rconTimeout)
	if dialErr != nil {
		return "", fmt.Errorf("rcon execute failed: %w", err)
	}
	c.mu.Lock()
	c.rconCon = redialed
	c.mu.Unlock()
	_ = conn.Close()
	return redialed.Execute(command)
}

func (c *Client) reconcileLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(rosterReconcileEvery)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := c.reconcileRoster(); err != nil {
				slog.Warn("roster reconciliation failed", "error", err)
			}
		}
	}
}

var statusPlayerLineRe = regexp.MustCompile(`^#\s*(\d+)\s+`)

// reconcileRoster prunes roster entries whose userid no longer shows up in
// the `status` output.
func (c *Client) reconcileRoster() error {
	out, err := c.execute("status")
	if err != nil {
		return err
	}
	present := make(map[int64]struct{})
	for _, line := range strings.Split(out, "\n") {
		m := statusPlayerLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		userID, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		present[userID] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for userID := range c.roster {
		if _, ok := present[userID]; !ok {
			slog.Info("pruning roster entry missing from status", "userid", userID, "name", c.roster[userID].Name)
			delete(c.roster, userID)
		}
	}
	return nil
}

func isPseudoPlayer(p gameserver.Player) bool {
	return p.IsBot || p.IsHLTV || p.AuthID == "Console"
}
