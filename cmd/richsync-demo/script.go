package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"

	"github.com/dshills/richsync/internal/collab"
	"github.com/dshills/richsync/internal/config"
	"github.com/dshills/richsync/internal/delta"
	"github.com/dshills/richsync/internal/editor"
	"github.com/dshills/richsync/internal/logging"
)

// envelope is the frame format the demo puts on the relay: the sending
// replica plus one translated batch.
type envelope struct {
	From string      `json:"from"`
	Ops  []collab.Op `json:"ops"`
}

// wire is one relay connection. nil means the replicas are cross-wired in
// process and batches skip serialization entirely.
type wire struct {
	conn *websocket.Conn
}

func dialRelay(base, session string) (*wire, error) {
	addr := strings.TrimRight(base, "/") + "/ws/" + session
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	// The relay greets every client once it is a session member. Everything
	// a peer sends after this frame is guaranteed to reach us.
	var h struct {
		Type string `json:"type"`
	}
	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.ReadJSON(&h); err != nil {
		conn.Close()
		return nil, fmt.Errorf("read hello: %w", err)
	}
	if h.Type != "hello" {
		conn.Close()
		return nil, fmt.Errorf("unexpected first frame type %q", h.Type)
	}
	return &wire{conn: conn}, nil
}

func (w *wire) send(env envelope) error {
	return w.conn.WriteJSON(env)
}

func (w *wire) recv() (envelope, error) {
	var env envelope
	if err := w.conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return env, err
	}
	err := w.conn.ReadJSON(&env)
	return env, err
}

func (w *wire) close() {
	deadline := time.Now().Add(time.Second)
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	w.conn.Close()
}

// player is one replica of the session: its adapter, its relay connection
// if any, and the batches its edits have produced but not yet delivered.
type player struct {
	name    string
	adapter *collab.Adapter
	wire    *wire
	pending [][]collab.Op
	lastErr error
}

func newPlayer(name string, state []byte, w *wire, log *logging.Logger) (*player, error) {
	p := &player{name: name, wire: w}
	ad, err := collab.New(state,
		collab.WithReplica(name),
		collab.WithLogger(log.WithField("replica", name)),
		collab.WithLocalOps(func(ops []collab.Op) {
			p.pending = append(p.pending, ops)
		}),
		collab.WithErrorHandler(func(err error) {
			p.lastErr = err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("replica %s: %w", name, err)
	}
	p.adapter = ad
	return p, nil
}

func runScript(cfg *config.Config, log *logging.Logger) error {
	state, origin, err := initialState(cfg.Demo.State)
	if err != nil {
		return err
	}

	var aliceWire, bobWire *wire
	if cfg.Demo.Relay != "" {
		fmt.Printf("richsync demo: two replicas via relay %s, session %q\n", cfg.Demo.Relay, cfg.Demo.Session)
		if aliceWire, err = dialRelay(cfg.Demo.Relay, cfg.Demo.Session); err != nil {
			return err
		}
		defer aliceWire.close()
		if bobWire, err = dialRelay(cfg.Demo.Relay, cfg.Demo.Session); err != nil {
			return err
		}
		defer bobWire.close()
	} else {
		fmt.Println("richsync demo: two replicas wired in process")
	}
	fmt.Printf("starting from %s\n\n", origin)

	alice, err := newPlayer("alice", state, aliceWire, log)
	if err != nil {
		return err
	}
	bob, err := newPlayer("bob", state, bobWire, log)
	if err != nil {
		return err
	}

	// Script positions are relative to the end of whatever content the
	// starting state already holds, so a saved document just grows.
	base := alice.adapter.View().Len() - 1

	steps := []struct {
		actor    *player
		audience *player
		desc     string
		batch    *delta.Delta
	}{
		{alice, bob, `type "Hello world"`, delta.New().Retain(base, nil).Insert("Hello world", nil)},
		{alice, bob, `bold "Hello"`, delta.New().Retain(base, nil).Retain(5, delta.AttrMap{"bold": true})},
		{bob, alice, `append "!"`, delta.New().Retain(base+11, nil).Insert("!", nil)},
		{alice, bob, "make the line a level-1 heading", delta.New().Retain(base+12, nil).Retain(1, delta.AttrMap{"header": 1})},
		{bob, alice, `delete " world"`, delta.New().Retain(base+5, nil).Delete(6)},
		{bob, alice, "turn the line into an ordered list", delta.New().Retain(base+6, nil).Retain(1, delta.AttrMap{"list": "ordered"})},
	}
	for _, s := range steps {
		if err := step(s.actor, s.audience, s.desc, s.batch); err != nil {
			return err
		}
	}

	return report(alice, bob)
}

func initialState(path string) ([]byte, string, error) {
	if path == "" {
		state, err := collab.Genesis()
		if err != nil {
			return nil, "", fmt.Errorf("genesis state: %w", err)
		}
		return state, "an empty document", nil
	}
	state, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read state: %w", err)
	}
	return state, fmt.Sprintf("saved state %s", path), nil
}

// step runs one scripted edit on the actor's view and delivers the
// resulting batches to the audience before the script moves on. Delivery
// is strictly sequential, so a run is reproducible frame for frame.
func step(actor, audience *player, desc string, batch *delta.Delta) error {
	fmt.Printf("%s: %s\n", actor.name, desc)
	if _, err := actor.adapter.View().ApplyBatch(batch, editor.SourceUser); err != nil {
		return fmt.Errorf("%s, %s: %w", actor.name, desc, err)
	}
	if actor.lastErr != nil {
		return fmt.Errorf("%s, %s: %w", actor.name, desc, actor.lastErr)
	}
	return deliver(actor, audience)
}

func deliver(from, to *player) error {
	batches := from.pending
	from.pending = nil
	for _, ops := range batches {
		received := ops
		if from.wire != nil {
			if err := from.wire.send(envelope{From: from.name, Ops: ops}); err != nil {
				return fmt.Errorf("%s send: %w", from.name, err)
			}
			env, err := to.wire.recv()
			if err != nil {
				return fmt.Errorf("%s recv: %w", to.name, err)
			}
			if env.From != from.name {
				return fmt.Errorf("%s got a frame from %q, want %q", to.name, env.From, from.name)
			}
			received = env.Ops
		}
		if err := to.adapter.ApplyOps(received); err != nil {
			return fmt.Errorf("%s apply: %w", to.name, err)
		}
	}
	return nil
}

func report(alice, bob *player) error {
	fmt.Println()
	aliceRuns, err := renderRuns(alice.adapter)
	if err != nil {
		return fmt.Errorf("alice runs: %w", err)
	}
	bobRuns, err := renderRuns(bob.adapter)
	if err != nil {
		return fmt.Errorf("bob runs: %w", err)
	}
	fmt.Printf("alice:\n%s", aliceRuns)
	fmt.Printf("bob:\n%s", bobRuns)

	if alice.adapter.Text() != bob.adapter.Text() || aliceRuns != bobRuns {
		return errors.New("replicas diverged")
	}
	fmt.Printf("\nreplicas converged on %q\n", alice.adapter.Text())

	snap, err := alice.adapter.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	fmt.Printf("snapshot: %d bytes, %d bunches, %d cells, %d marks, stamp %d\n",
		len(snap),
		gjson.GetBytes(snap, "metas.#").Int(),
		gjson.GetBytes(snap, "cells.#").Int(),
		gjson.GetBytes(snap, "marks.#").Int(),
		gjson.GetBytes(snap, "stamp").Int())
	return nil
}

func renderRuns(ad *collab.Adapter) (string, error) {
	runs, err := ad.Runs()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, r := range runs {
		fmt.Fprintf(&b, "  %q", r.Text)
		if len(r.Attrs) > 0 {
			b.WriteString("  ")
			b.WriteString(formatAttrs(r.Attrs))
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func formatAttrs(attrs delta.AttrMap) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, attrs[k]))
	}
	return strings.Join(parts, " ")
}
