package vc

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/Laky-64/gologging"
	"github.com/disgoorg/snowflake/v2"
)

// LocalTransport plays audio on the local machine by piping each stream into an external
// command such as ffplay. It is the transport used by the command line.
type LocalTransport struct {
	Command []string
}

// NewLocalTransport returns a transport running command for every track.
func NewLocalTransport(command []string) *LocalTransport {
	return &LocalTransport{Command: command}
}

// Connect implements Transport.
func (t *LocalTransport) Connect(_ context.Context, guildID snowflake.ID) (Player, error) {
	if len(t.Command) == 0 {
		return nil, errors.New("no player command configured")
	}
	if _, err := exec.LookPath(t.Command[0]); err != nil {
		return nil, fmt.Errorf("player command: %w", err)
	}
	return &localPlayer{guildID: guildID, command: t.Command}, nil
}

type localPlayer struct {
	guildID snowflake.ID
	command []string

	mu     sync.Mutex
	cmd    *exec.Cmd
	closed bool
}

func (p *localPlayer) args(volume float64) []string {
	args := append([]string(nil), p.command[1:]...)
	if filepath.Base(p.command[0]) != "ffplay" || len(args) == 0 {
		return args
	}
	// ffplay reads options up to the input argument, which comes last.
	vol := []string{"-volume", strconv.Itoa(int(volume * 100))}
	last := len(args) - 1
	return append(append(args[:last:last], vol...), args[last])
}

// Play implements Player. A track already playing is stopped first.
func (p *localPlayer) Play(res *Resource, onIdle func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPlayerClosed
	}
	p.killLocked()

	cmd := exec.Command(p.command[0], p.args(res.Volume)...)
	cmd.Stdin = res.Stream
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.command[0], err)
	}
	p.cmd = cmd

	go func() {
		err := cmd.Wait()
		_ = res.Stream.Close()
		if err != nil {
			gologging.DebugF("[Player] Guild %s: %s exited: %v", p.guildID, res.Track.Title, err)
		}

		p.mu.Lock()
		if p.cmd == cmd {
			p.cmd = nil
		}
		p.mu.Unlock()
		onIdle()
	}()
	return nil
}

// Stop implements Player.
func (p *localPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killLocked()
	return nil
}

// Pause implements Player.
func (p *localPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil {
		return ErrNoPlayer
	}
	return suspend(p.cmd.Process)
}

// Resume implements Player.
func (p *localPlayer) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil {
		return ErrNoPlayer
	}
	return resume(p.cmd.Process)
}

// Close implements Player.
func (p *localPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.killLocked()
	return nil
}

func (p *localPlayer) killLocked() {
	if p.cmd == nil || p.cmd.Process == nil {
		return
	}
	_ = resume(p.cmd.Process)
	if err := p.cmd.Process.Kill(); err != nil {
		gologging.DebugF("[Player] Guild %s: kill: %v", p.guildID, err)
	}
	p.cmd = nil
}
